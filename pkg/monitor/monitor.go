// Package monitor drives the watch loop for one device: fixed-interval
// probing, debounce tracking, interval journaling, heartbeats, and
// notification dispatch.
//
// The loop is strictly sequential. One goroutine owns the tracker and the
// journal, probes synchronously, and hands slow work (webhook delivery)
// to the notifier's own worker, so no locking is needed anywhere in the
// data path.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"github.com/gowinder/ip-online-checker/pkg/config"
	"github.com/gowinder/ip-online-checker/pkg/journal"
	"github.com/gowinder/ip-online-checker/pkg/notify"
	"github.com/gowinder/ip-online-checker/pkg/probe"
	"github.com/gowinder/ip-online-checker/pkg/state"
)

const (
	// DefaultPingInterval is the probe cadence when none is configured.
	DefaultPingInterval = 5 * time.Second

	// DefaultHeartbeatInterval is the liveness log cadence.
	DefaultHeartbeatInterval = 5 * time.Minute
)

// Monitor watches one device until stopped.
type Monitor struct {
	prober   probe.Prober
	tracker  *state.Tracker
	recorder *Recorder
	logger   *logrus.Logger
	clk      clock.Clock

	pingInterval      time.Duration
	heartbeatInterval time.Duration
	probeTimeout      time.Duration

	startedAt     time.Time
	lastHeartbeat time.Time

	done chan struct{}
	wg   sync.WaitGroup
}

// Option is a functional option for configuring a Monitor.
type Option func(*Monitor) error

// WithPingInterval sets the probe cadence.
func WithPingInterval(d time.Duration) Option {
	return func(m *Monitor) error {
		if d <= 0 {
			return fmt.Errorf("ping interval must be positive, got %v", d)
		}
		m.pingInterval = d
		return nil
	}
}

// WithHeartbeatInterval sets the liveness log cadence.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(m *Monitor) error {
		if d <= 0 {
			return fmt.Errorf("heartbeat interval must be positive, got %v", d)
		}
		m.heartbeatInterval = d
		return nil
	}
}

// WithProbeTimeout caps one probe execution. Defaults to a second under
// the ping interval so a hung probe can never make the loop fall behind
// schedule.
func WithProbeTimeout(d time.Duration) Option {
	return func(m *Monitor) error {
		if d <= 0 {
			return fmt.Errorf("probe timeout must be positive, got %v", d)
		}
		m.probeTimeout = d
		return nil
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(c clock.Clock) Option {
	return func(m *Monitor) error {
		m.clk = c
		return nil
	}
}

// New creates a Monitor from its collaborators.
func New(prober probe.Prober, tracker *state.Tracker, rec *Recorder, logger *logrus.Logger, opts ...Option) (*Monitor, error) {
	m := &Monitor{
		prober:            prober,
		tracker:           tracker,
		recorder:          rec,
		logger:            logger,
		clk:               clock.New(),
		pingInterval:      DefaultPingInterval,
		heartbeatInterval: DefaultHeartbeatInterval,
		done:              make(chan struct{}),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("monitor: %w", err)
		}
	}

	if m.probeTimeout == 0 {
		m.probeTimeout = probeDeadline(m.pingInterval)
	}

	return m, nil
}

// probeDeadline returns the per-probe budget for a given cadence, one
// second under it so a slow probe cannot push the loop off schedule.
// Cadences too short to shave stay as they are.
func probeDeadline(interval time.Duration) time.Duration {
	if d := interval - time.Second; d >= time.Second {
		return d
	}
	return interval
}

// Start launches the watch loop.
func (m *Monitor) Start() {
	m.wg.Add(1)
	go m.run()
}

// Stop terminates the loop and waits for it to finish. The still-open
// interval is written out before returning.
func (m *Monitor) Stop() {
	close(m.done)
	m.wg.Wait()
}

func (m *Monitor) run() {
	defer m.wg.Done()

	m.startedAt = m.clk.Now()
	m.lastHeartbeat = m.startedAt

	m.logger.Infof("%s: monitoring via %s every %v", m.prober.Target(), m.prober.Type(), m.pingInterval)
	m.baseline()

	ticker := m.clk.Ticker(m.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.iterate()
		case <-m.done:
			m.shutdown()
			return
		}
	}
}

// baseline consumes the first probe. Whatever it observes becomes the
// starting status; no transition is recorded for it.
func (m *Monitor) baseline() {
	m.observe()
	m.logger.Infof("%s: initial status %s", m.prober.Target(), m.tracker.Current())
}

// iterate is one scheduler step: probe, record any confirmed transition,
// and emit a heartbeat when due.
func (m *Monitor) iterate() {
	if ev := m.observe(); ev != nil {
		m.recorder.OnTransition(*ev)
	}
	m.heartbeat()
}

// observe runs one probe and feeds the outcome to the tracker. Probe
// errors count as unreachable but are surfaced in the console log so a
// broken probe does not pass for a down device.
func (m *Monitor) observe() *state.Event {
	ctx, cancel := context.WithTimeout(context.Background(), m.probeTimeout)
	defer cancel()

	res := m.prober.Probe(ctx)
	if res.Outcome == probe.Error {
		m.logger.Warnf("%s: probe error: %v (counting as unreachable)", m.prober.Target(), res.Err)
	} else {
		m.logger.Debugf("%s: probe %s", m.prober.Target(), res.Outcome)
	}

	return m.tracker.Observe(m.clk.Now(), res.Outcome)
}

// heartbeat logs a liveness line once the heartbeat interval has elapsed
// since the previous one. It rides the probe cadence instead of its own
// timer, so it may run late by up to one ping interval.
func (m *Monitor) heartbeat() {
	now := m.clk.Now()
	if now.Sub(m.lastHeartbeat) < m.heartbeatInterval {
		return
	}
	m.lastHeartbeat = now

	m.logger.Infof("%s: heartbeat: %s for %s, monitor up %s",
		m.prober.Target(),
		m.tracker.Current(),
		journal.FormatDuration(now.Sub(m.tracker.Since())),
		journal.FormatDuration(now.Sub(m.startedAt)))
}

// shutdown closes out the open interval so the journal accounts for all
// observed time.
func (m *Monitor) shutdown() {
	if m.tracker.Baselined() {
		m.recorder.OnStop(m.tracker.Current(), m.tracker.Since(), m.clk.Now())
	}
	m.logger.Infof("%s: monitoring stopped", m.prober.Target())
}

// FromConfig assembles a ready-to-start Monitor for one configured
// device: prober, tracker, journal, and recorder. The notifier is shared
// by all monitors and passed in.
func FromConfig(cfg config.Config, notifier notify.Notifier, logger *logrus.Logger) (*Monitor, error) {
	prober, err := buildProber(cfg)
	if err != nil {
		return nil, err
	}

	jrnl, err := journal.New(cfg.LogFile, logger)
	if err != nil {
		return nil, err
	}

	tracker := state.NewTracker(
		time.Duration(cfg.OfflineThreshold)*time.Second,
		time.Duration(cfg.OnlineThreshold)*time.Second,
	)
	rec := NewRecorder(displayName(cfg.Target, prober, logger), jrnl, notifier, logger)

	return New(prober, tracker, rec, logger,
		WithPingInterval(time.Duration(cfg.PingInterval)*time.Second),
		WithHeartbeatInterval(time.Duration(cfg.HeartbeatInterval)*time.Second),
	)
}

// buildProber picks the probe type for the target. A MAC address means
// watching the ARP table, with the IP as warm-up ping when both are set.
func buildProber(cfg config.Config) (probe.Prober, error) {
	if cfg.Target.MAC != "" {
		var opts []probe.ArpOption
		if cfg.Target.IP != "" {
			opts = append(opts, probe.WithWarmupIP(cfg.Target.IP))
		}
		return probe.NewArpWatcher(cfg.Target.MAC, opts...)
	}
	return probe.NewPinger(cfg.Target.IP,
		probe.WithPingTimeout(probeDeadline(time.Duration(cfg.PingInterval)*time.Second)))
}

// displayName decorates the probed identity with the reverse-DNS name of
// the IP when one resolves.
func displayName(t config.Target, p probe.Prober, logger *logrus.Logger) string {
	name := p.Target()
	if t.IP == "" {
		return name
	}

	ctx, cancel := context.WithTimeout(context.Background(), probe.DefaultLookupTimeout)
	defer cancel()

	friendly, err := probe.LookupName(ctx, t.IP)
	if err != nil {
		logger.Debugf("%s: no reverse dns name: %v", t.IP, err)
		return name
	}
	return fmt.Sprintf("%s (%s)", name, friendly)
}
