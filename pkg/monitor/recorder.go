package monitor

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gowinder/ip-online-checker/pkg/journal"
	"github.com/gowinder/ip-online-checker/pkg/notify"
	"github.com/gowinder/ip-online-checker/pkg/state"
)

// Recorder fans one confirmed transition out to its three sinks: the
// interval journal, the console log, and the notifier.
type Recorder struct {
	target   string
	journal  *journal.Journal
	notifier notify.Notifier
	logger   *logrus.Logger
}

// NewRecorder creates a Recorder. target is the device identity used in
// messages, friendly name included when one is known.
func NewRecorder(target string, j *journal.Journal, n notify.Notifier, logger *logrus.Logger) *Recorder {
	return &Recorder{
		target:   target,
		journal:  j,
		notifier: n,
		logger:   logger,
	}
}

// OnTransition records one confirmed transition.
func (r *Recorder) OnTransition(ev state.Event) {
	r.journal.Record(ev)
	r.logger.Infof("%s: status changed to %s (was %s for %s)",
		r.target, ev.To, ev.From, journal.FormatDuration(ev.Duration()))
	r.notifier.Notify(r.message(ev))
}

// OnStop closes out the still-open interval when monitoring ends, so the
// journal accounts for all observed time. No notification is sent; the
// device did not change state.
func (r *Recorder) OnStop(current state.Status, since, now time.Time) {
	r.journal.Record(state.Event{
		From:      current,
		To:        current,
		StartedAt: since,
		EndedAt:   now,
	})
}

func (r *Recorder) message(ev state.Event) string {
	dur := journal.FormatDuration(ev.Duration())
	if ev.To == state.Offline {
		return fmt.Sprintf("Device %s went offline, was online for %s", r.target, dur)
	}
	return fmt.Sprintf("Device %s is back online, was offline for %s", r.target, dur)
}
