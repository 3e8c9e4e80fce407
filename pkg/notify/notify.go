// Package notify delivers status-change messages to an external webhook.
//
// Delivery is best effort. Sends run on a dedicated worker goroutine so
// the monitoring loop is never blocked by a slow or broken webhook, and
// failures are logged and swallowed. A full queue or an exhausted rate
// budget drops the message.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Notifier is the outbound notification transport.
type Notifier interface {
	// Notify queues one message for delivery. It never blocks.
	Notify(message string)

	// Close stops the transport. Queued messages may be dropped.
	Close()
}

// Nop is a Notifier that discards every message.
type Nop struct{}

// Notify discards the message.
func (Nop) Notify(string) {}

// Close does nothing.
func (Nop) Close() {}

const (
	// DefaultSendTimeout bounds one webhook POST.
	DefaultSendTimeout = 10 * time.Second

	// DefaultQueueSize is how many messages may wait for the worker.
	DefaultQueueSize = 16
)

// defaultLimiter allows a sustained message per second with headroom for
// a burst of simultaneous transitions. Confirmed transitions are rare, so
// this only guards against a runaway caller.
func defaultLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(1), 10)
}

// Slack posts messages to a Slack incoming webhook.
type Slack struct {
	webhookURL string
	channel    string
	client     *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger

	queue chan string
	done  chan struct{}
	wg    sync.WaitGroup
}

// SlackOption is a functional option for configuring a Slack notifier.
type SlackOption func(*Slack) error

// WithSendTimeout sets the timeout for one webhook POST.
func WithSendTimeout(d time.Duration) SlackOption {
	return func(s *Slack) error {
		if d <= 0 {
			return fmt.Errorf("send timeout must be positive, got %v", d)
		}
		s.client.Timeout = d
		return nil
	}
}

// WithQueueSize sets the delivery queue capacity.
func WithQueueSize(n int) SlackOption {
	return func(s *Slack) error {
		if n < 1 {
			return fmt.Errorf("queue size must be at least 1, got %d", n)
		}
		s.queue = make(chan string, n)
		return nil
	}
}

// WithLimiter replaces the default message rate limiter.
func WithLimiter(l *rate.Limiter) SlackOption {
	return func(s *Slack) error {
		if l == nil {
			return fmt.Errorf("limiter must not be nil")
		}
		s.limiter = l
		return nil
	}
}

// NewSlack creates a Slack notifier and starts its delivery worker.
func NewSlack(webhookURL, channel string, logger *logrus.Logger, opts ...SlackOption) (*Slack, error) {
	if webhookURL == "" {
		return nil, fmt.Errorf("notify: webhook url must not be empty")
	}

	s := &Slack{
		webhookURL: webhookURL,
		channel:    channel,
		client:     &http.Client{Timeout: DefaultSendTimeout},
		limiter:    defaultLimiter(),
		logger:     logger,
		queue:      make(chan string, DefaultQueueSize),
		done:       make(chan struct{}),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("notify: %w", err)
		}
	}

	s.wg.Add(1)
	go s.worker()

	return s, nil
}

// Notify queues the message for delivery. When the rate budget is spent
// or the queue is full the message is dropped with a warning; the caller
// is never blocked.
func (s *Slack) Notify(message string) {
	if !s.limiter.Allow() {
		s.logger.Warnf("notify: rate limit exceeded, dropping message")
		return
	}

	select {
	case s.queue <- message:
	default:
		s.logger.Warnf("notify: queue full, dropping message")
	}
}

// Close stops the delivery worker and waits for it to exit. Messages
// still queued are dropped.
func (s *Slack) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Slack) worker() {
	defer s.wg.Done()

	for {
		select {
		case msg := <-s.queue:
			s.send(msg)
		case <-s.done:
			return
		}
	}
}

// payload is the body of a Slack incoming-webhook POST.
type payload struct {
	Text    string `json:"text"`
	Channel string `json:"channel,omitempty"`
}

// send posts one message. Failures are logged, never returned; a downed
// webhook must not take the monitor with it.
func (s *Slack) send(message string) {
	body, err := json.Marshal(payload{Text: message, Channel: s.channel})
	if err != nil {
		s.logger.Errorf("notify: encode payload: %v", err)
		return
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		s.logger.Warnf("notify: send failed: %v", err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		s.logger.Warnf("notify: webhook returned status %d", resp.StatusCode)
	}
}
