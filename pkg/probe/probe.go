// Package probe implements reachability probes for a single network device.
//
// A probe answers one question: did the device respond just now? The answer
// is one of three outcomes. Reachable and Unreachable are clean answers;
// Error means the probe itself could not be carried out (missing command,
// unparsable output), which callers may want to surface differently from a
// device that is simply not answering.
package probe

import (
	"context"
	"time"
)

// Outcome classifies the result of a single reachability probe.
type Outcome int

const (
	// Reachable means the device answered within the probe timeout.
	Reachable Outcome = iota

	// Unreachable means the probe ran cleanly but the device did not answer.
	Unreachable

	// Error means the probe could not be executed or its output could not
	// be understood. The device may or may not be up.
	Error
)

// String returns the lowercase name of the outcome.
func (o Outcome) String() string {
	switch o {
	case Reachable:
		return "reachable"
	case Unreachable:
		return "unreachable"
	default:
		return "error"
	}
}

// Result captures one probe execution.
type Result struct {
	// At is when the probe started.
	At time.Time

	// Outcome classifies what the probe observed.
	Outcome Outcome

	// Latency is the measured round-trip time, for probe types that
	// measure one. Zero otherwise.
	Latency time.Duration

	// Err holds the cause when Outcome is Error.
	Err error
}

// Prober is implemented by all probe types.
type Prober interface {
	// Type returns the probe type name, e.g. "ping".
	Type() string

	// Target returns the probed device identity for display.
	Target() string

	// Probe executes one reachability check. The context bounds the
	// underlying network operation.
	Probe(ctx context.Context) Result
}
