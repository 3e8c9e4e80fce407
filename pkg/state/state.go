// Package state turns raw reachability observations into confirmed
// online/offline transitions.
//
// A single dissenting observation never flips the confirmed status. It
// opens a pending candidate stamped with its own observation time; only
// once the candidate has persisted for the configured threshold is it
// promoted. The emitted event is anchored at the first dissent, not at the
// promotion, so recorded intervals reflect when the change actually began
// rather than when it was confirmed.
package state

import (
	"time"

	"github.com/gowinder/ip-online-checker/pkg/probe"
)

// Status is a confirmed reachability state of the monitored device.
type Status string

const (
	// Online means the device answers probes.
	Online Status = "Online"

	// Offline means the device does not answer probes.
	Offline Status = "Offline"
)

// statusOf maps a probe outcome onto the status it argues for. Probe
// errors count as unreachable here; the caller is responsible for logging
// them so a broken probe does not masquerade silently as a down device.
func statusOf(o probe.Outcome) Status {
	if o == probe.Reachable {
		return Online
	}
	return Offline
}

// Event records one confirmed transition. StartedAt and EndedAt delimit
// the interval spent in From; EndedAt is the first observation that
// dissented from it.
type Event struct {
	From      Status
	To        Status
	StartedAt time.Time
	EndedAt   time.Time
}

// Duration returns the length of the interval that ended with this event.
func (e Event) Duration() time.Duration {
	return e.EndedAt.Sub(e.StartedAt)
}

// Tracker holds the confirmed status of one device plus any pending
// candidate awaiting confirmation. It keeps no history and is not safe for
// concurrent use; a single goroutine owns it.
type Tracker struct {
	offlineThreshold time.Duration
	onlineThreshold  time.Duration

	baselined bool
	current   Status
	since     time.Time

	hasPending   bool
	pending      Status
	pendingSince time.Time
}

// NewTracker creates a Tracker. offlineThreshold guards transitions into
// Offline, onlineThreshold transitions into Online. A zero threshold
// confirms on the second consecutive dissenting observation.
func NewTracker(offlineThreshold, onlineThreshold time.Duration) *Tracker {
	return &Tracker{
		offlineThreshold: offlineThreshold,
		onlineThreshold:  onlineThreshold,
	}
}

// Observe feeds one probe outcome observed at the given time into the
// tracker and returns a non-nil Event exactly when a transition is
// confirmed.
//
// The first observation after construction baselines the tracker with no
// event, whatever its outcome. Observations must arrive in chronological
// order.
func (t *Tracker) Observe(at time.Time, outcome probe.Outcome) *Event {
	observed := statusOf(outcome)

	if !t.baselined {
		t.baselined = true
		t.current = observed
		t.since = at
		return nil
	}

	if observed == t.current {
		// Any pending candidate was an anomaly that self-healed.
		t.hasPending = false
		return nil
	}

	if !t.hasPending || t.pending != observed {
		t.hasPending = true
		t.pending = observed
		t.pendingSince = at
		return nil
	}

	if at.Sub(t.pendingSince) < t.thresholdFor(observed) {
		return nil
	}

	ev := &Event{
		From:      t.current,
		To:        observed,
		StartedAt: t.since,
		EndedAt:   t.pendingSince,
	}
	t.current = observed
	t.since = t.pendingSince
	t.hasPending = false
	return ev
}

// thresholdFor returns the confirmation threshold guarding a transition
// into the given status.
func (t *Tracker) thresholdFor(to Status) time.Duration {
	if to == Offline {
		return t.offlineThreshold
	}
	return t.onlineThreshold
}

// Baselined reports whether the first observation has been consumed.
func (t *Tracker) Baselined() bool {
	return t.baselined
}

// Current returns the confirmed status. Meaningless before baselining.
func (t *Tracker) Current() Status {
	return t.current
}

// Since returns when the current status began.
func (t *Tracker) Since() time.Time {
	return t.since
}
