package probe

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"time"
)

const (
	// ArpType is the type name reported by ArpWatcher.
	ArpType = "arp"

	// DefaultArpTimeout is the default per-probe timeout.
	DefaultArpTimeout = 3 * time.Second

	// warmupTimeout bounds the optional ping sent before reading the
	// ARP table. Its reply does not matter, only the table refresh.
	warmupTimeout = 1 * time.Second
)

// ArpWatcher probes a device by its MAC address. It reads the local ARP
// table, where devices that recently answered traffic on the segment
// appear; an absent or incomplete entry counts as unreachable. ARP entries
// age out, so a warm-up IP can be configured to be pinged first, which
// refreshes the entry for devices that answer ARP but filter ICMP echo.
type ArpWatcher struct {
	mac     string // canonical form, e.g. "aa:bb:cc:dd:ee:ff"
	warmup  *Pinger
	timeout time.Duration
}

// ArpOption is a functional option for configuring an ArpWatcher.
type ArpOption func(*ArpWatcher) error

// WithArpTimeout sets the per-probe timeout.
func WithArpTimeout(d time.Duration) ArpOption {
	return func(w *ArpWatcher) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", d)
		}
		w.timeout = d
		return nil
	}
}

// WithWarmupIP sets an IP address to ping before each table read.
func WithWarmupIP(ip string) ArpOption {
	return func(w *ArpWatcher) error {
		p, err := NewPinger(ip, WithPingTimeout(warmupTimeout))
		if err != nil {
			return fmt.Errorf("warmup: %w", err)
		}
		w.warmup = p
		return nil
	}
}

// NewArpWatcher creates an ArpWatcher for the given MAC address. The
// address may use any notation net.ParseMAC accepts; it is stored in
// canonical lowercase colon form.
func NewArpWatcher(mac string, opts ...ArpOption) (*ArpWatcher, error) {
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return nil, fmt.Errorf("arp: invalid mac %q: %w", mac, err)
	}

	w := &ArpWatcher{
		mac:     hw.String(),
		timeout: DefaultArpTimeout,
	}

	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, fmt.Errorf("arp: %w", err)
		}
	}

	return w, nil
}

// Type returns the probe type name.
func (w *ArpWatcher) Type() string {
	return ArpType
}

// Target returns the canonical MAC address.
func (w *ArpWatcher) Target() string {
	return w.mac
}

// Probe reads the ARP table and looks for the target MAC. A present,
// complete entry is Reachable, an absent or incomplete one is Unreachable,
// and a failure to run or read the arp command is Error.
func (w *ArpWatcher) Probe(ctx context.Context) Result {
	now := time.Now()

	if w.warmup != nil {
		w.warmup.Probe(ctx)
	}

	cmd := exec.CommandContext(ctx, "arp", "-a")

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return Result{At: now, Outcome: Error, Err: fmt.Errorf("arp %s: %w", w.mac, err)}
	}

	if arpEntryPresent(out.String(), w.mac) {
		return Result{At: now, Outcome: Reachable}
	}
	return Result{At: now, Outcome: Unreachable}
}

// arpEntryPresent reports whether the arp -a output contains a complete
// entry for the given canonical MAC. Lines marked incomplete are kernel
// placeholders for addresses that did not answer and never count.
func arpEntryPresent(output, mac string) bool {
	for _, line := range strings.Split(output, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "incomplete") {
			continue
		}
		for _, field := range strings.Fields(lower) {
			hw, err := net.ParseMAC(strings.Trim(field, "(),[]"))
			if err != nil {
				continue
			}
			if hw.String() == mac {
				return true
			}
		}
	}
	return false
}
