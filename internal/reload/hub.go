package reload

import (
	"context"
	"sync"

	"github.com/vk/themegrid/internal/ctxlog"
	"github.com/vk/themegrid/internal/executor"
)

// Sink receives every notification published through a Hub.
type Sink interface {
	Notify(ctx context.Context, n Notification)
	Report(ctx context.Context, s Summary)
}

// Hub delivers notifications to sinks and subscribers.
type Hub struct {
	mu     sync.Mutex
	sinks  []Sink
	subs   map[int]chan Notification
	nextID int
}

// NewHub creates a hub delivering to the given sinks.
func NewHub(sinks ...Sink) *Hub {
	return &Hub{sinks: sinks, subs: make(map[int]chan Notification)}
}

// AddSink attaches another sink.
func (h *Hub) AddSink(s Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sinks = append(h.sinks, s)
}

// Subscribe returns a buffered channel of notifications and a function
// that closes it.
func (h *Hub) Subscribe(buffer int) (<-chan Notification, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Notification, buffer)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers one notification.
func (h *Hub) Publish(ctx context.Context, n Notification) {
	h.mu.Lock()
	sinks := append([]Sink(nil), h.sinks...)
	for _, ch := range h.subs {
		select {
		case ch <- n:
		default:
			ctxlog.FromContext(ctx).Warn("Reload subscriber is slow, dropping notification.", "group", n.Group)
		}
	}
	h.mu.Unlock()

	for _, s := range sinks {
		s.Notify(ctx, n)
	}
}

// PublishReport delivers a notification per task that ran, then the
// summary of the cycle.
func (h *Hub) PublishReport(ctx context.Context, report *executor.BuildReport, changed []string) {
	logger := ctxlog.FromContext(ctx)
	notes := FromReport(report)
	for _, n := range notes {
		if n.Failed() {
			logger.Warn("Task failed, notifying clients.", "group", n.Group, "errors", n.Errors)
		}
		h.Publish(ctx, n)
	}

	s := SummaryOf(report, changed)
	h.mu.Lock()
	sinks := append([]Sink(nil), h.sinks...)
	h.mu.Unlock()
	for _, sink := range sinks {
		sink.Report(ctx, s)
	}
	logger.Debug("Published reload notifications.", "count", len(notes))
}
