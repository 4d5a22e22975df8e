// Package alert delivers out-of-band notifications for order events. Sends
// are asynchronous and best effort: a slow or failing notifier never blocks
// or fails the trading call that triggered it.
package alert

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

type Notifier interface {
	Notify(ctx context.Context, msg string) error
}

// Alerter is what the trader facade holds; a nil *Manager satisfies it.
type Alerter interface {
	Event(event string, fields map[string]string)
}

const (
	defaultQueueSize   = 64
	defaultSendTimeout = 20 * time.Second
)

type Manager struct {
	mode     string
	notifier Notifier
	log      logrus.FieldLogger
	queue    chan event
	stop     chan struct{}
	done     chan struct{}

	dropped uint64

	mu     sync.Mutex
	closed bool
}

type event struct {
	name   string
	fields map[string]string
}

// NewManager starts the delivery goroutine. Returns nil when notifier is nil,
// which callers treat as alerting disabled.
func NewManager(mode string, notifier Notifier, log logrus.FieldLogger) *Manager {
	if notifier == nil {
		return nil
	}
	m := &Manager{
		mode:     mode,
		notifier: notifier,
		log:      log,
		queue:    make(chan event, defaultQueueSize),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go m.loop()
	return m
}

// Event queues a notification. Drops (and counts) the event when the queue
// is full rather than blocking the caller.
func (m *Manager) Event(name string, fields map[string]string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	ev := event{name: name, fields: cloneFields(fields)}
	select {
	case m.queue <- ev:
	default:
		total := atomic.AddUint64(&m.dropped, 1)
		if m.log != nil {
			m.log.WithFields(logrus.Fields{
				"event":         name,
				"dropped_total": total,
			}).Warn("alert queue full, event dropped")
		}
	}
}

// Close drains pending events, then stops the delivery goroutine.
func (m *Manager) Close(ctx context.Context) error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.stop)
	m.mu.Unlock()

	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) loop() {
	defer close(m.done)
	for {
		select {
		case ev := <-m.queue:
			m.send(ev)
		case <-m.stop:
			for {
				select {
				case ev := <-m.queue:
					m.send(ev)
				default:
					return
				}
			}
		}
	}
}

func (m *Manager) send(ev event) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultSendTimeout)
	defer cancel()
	if err := m.notifier.Notify(ctx, m.buildMessage(ev)); err != nil && m.log != nil {
		m.log.WithField("event", ev.name).WithError(err).Error("alert delivery failed")
	}
}

func (m *Manager) buildMessage(ev event) string {
	lines := []string{
		"[spot-trader] " + ev.name,
		"time: " + time.Now().UTC().Format(time.RFC3339),
		"mode: " + m.mode,
	}
	keys := make([]string, 0, len(ev.fields))
	for k := range ev.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, k+": "+ev.fields[k])
	}
	return strings.Join(lines, "\n")
}

func cloneFields(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
