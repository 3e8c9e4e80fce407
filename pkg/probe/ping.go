package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	// PingType is the type name reported by Pinger.
	PingType = "ping"

	// DefaultPingTimeout is the default per-probe timeout.
	DefaultPingTimeout = 3 * time.Second
)

// Pinger probes an IP address with a single ICMP echo request. It shells
// out to the system ping command, so it needs no raw-socket privileges
// beyond what ping itself carries.
type Pinger struct {
	ip      string
	timeout time.Duration
}

// PingOption is a functional option for configuring a Pinger.
type PingOption func(*Pinger) error

// WithPingTimeout sets the per-probe timeout.
func WithPingTimeout(d time.Duration) PingOption {
	return func(p *Pinger) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", d)
		}
		p.timeout = d
		return nil
	}
}

// NewPinger creates a Pinger for the given IP address.
func NewPinger(ip string, opts ...PingOption) (*Pinger, error) {
	if ip == "" {
		return nil, fmt.Errorf("ping: ip must not be empty")
	}

	p := &Pinger{
		ip:      ip,
		timeout: DefaultPingTimeout,
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, fmt.Errorf("ping: %w", err)
		}
	}

	return p, nil
}

// Type returns the probe type name.
func (p *Pinger) Type() string {
	return PingType
}

// Target returns the probed IP address.
func (p *Pinger) Target() string {
	return p.ip
}

// Probe sends one echo request. A zero exit status with a parsable
// round-trip time is Reachable, a non-zero exit (no reply, host
// unreachable, killed at the context deadline) is Unreachable, and
// anything else, such as a missing ping binary, is Error.
func (p *Pinger) Probe(ctx context.Context) Result {
	now := time.Now()

	timeoutSec := int(p.timeout.Seconds())
	if timeoutSec < 1 {
		timeoutSec = 1
	}

	cmd := exec.CommandContext(ctx, "ping", "-c", "1", "-W", strconv.Itoa(timeoutSec), p.ip)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{At: now, Outcome: Unreachable}
		}
		return Result{At: now, Outcome: Error, Err: fmt.Errorf("ping %s: %w", p.ip, err)}
	}

	latency, err := parsePingOutput(out.String())
	if err != nil {
		return Result{At: now, Outcome: Error, Err: fmt.Errorf("ping %s: %w", p.ip, err)}
	}

	return Result{At: now, Outcome: Reachable, Latency: latency}
}

// parsePingOutput extracts the round-trip time from ping command output.
func parsePingOutput(output string) (time.Duration, error) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "time=") {
			continue
		}

		start := strings.Index(line, "time=") + len("time=")
		end := strings.IndexAny(line[start:], " ")
		if end == -1 {
			end = len(line[start:])
		}
		rttStr := line[start : start+end]

		unitStart := start + end
		unit := strings.TrimSpace(line[unitStart:])

		rtt, err := strconv.ParseFloat(strings.TrimSpace(rttStr), 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse RTT %q: %w", rttStr, err)
		}

		switch {
		case strings.Contains(unit, "ms"):
			return time.Duration(rtt * float64(time.Millisecond)), nil
		case strings.Contains(unit, "us") || strings.Contains(unit, "µs"):
			return time.Duration(rtt * float64(time.Microsecond)), nil
		case unit == "s":
			return time.Duration(rtt * float64(time.Second)), nil
		}

		return 0, fmt.Errorf("could not determine time unit from %q", unit)
	}
	return 0, fmt.Errorf("RTT not found in ping output")
}
