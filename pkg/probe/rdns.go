package probe

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	// DefaultLookupTimeout bounds one reverse-DNS query.
	DefaultLookupTimeout = 2 * time.Second

	resolvConf = "/etc/resolv.conf"
)

// LookupName resolves the PTR name for an IP address using the first
// nameserver from the system resolver configuration. It is best effort;
// any failure just means the device has no friendly name.
func LookupName(ctx context.Context, ip string) (string, error) {
	reverse, err := dns.ReverseAddr(ip)
	if err != nil {
		return "", fmt.Errorf("rdns %s: %w", ip, err)
	}

	conf, err := dns.ClientConfigFromFile(resolvConf)
	if err != nil {
		return "", fmt.Errorf("rdns %s: read resolver config: %w", ip, err)
	}
	if len(conf.Servers) == 0 {
		return "", fmt.Errorf("rdns %s: no nameservers configured", ip)
	}
	server := net.JoinHostPort(conf.Servers[0], conf.Port)

	msg := new(dns.Msg)
	msg.SetQuestion(reverse, dns.TypePTR)

	client := &dns.Client{Timeout: DefaultLookupTimeout}
	resp, _, err := client.ExchangeContext(ctx, msg, server)
	if err != nil {
		return "", fmt.Errorf("rdns %s: query %s: %w", ip, server, err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("rdns %s: rcode %s", ip, dns.RcodeToString[resp.Rcode])
	}

	for _, rr := range resp.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			return strings.TrimSuffix(ptr.Ptr, "."), nil
		}
	}
	return "", fmt.Errorf("rdns %s: no PTR record", ip)
}
