// Package realtime fans scoreboard events out to live subscribers. The hub
// is transport-agnostic pub/sub; the API layer owns the WebSocket upgrade
// and drains a subscriber channel per connection.
package realtime

import (
	"context"
	"encoding/json/v2"
	"log/slog"
	"sync"
	"time"

	"github.com/scoredeck/scoredeck-server/internal/domain"
	"github.com/scoredeck/scoredeck-server/internal/id"
)

const (
	// queueSize bounds the hub's inbound event queue.
	queueSize = 1000
	// subscriberBuffer bounds each subscriber's channel. Slow consumers
	// lose events rather than stalling the broadcast loop.
	subscriberBuffer = 64
)

// Subscriber is a registered event consumer, scoped to one scoreboard.
type Subscriber struct {
	ConnectedAt  time.Time
	Events       chan domain.Event
	Done         chan struct{}
	ID           string
	ScoreboardID string
}

// Hub manages subscribers and broadcasts scoreboard events to them.
type Hub struct {
	logger *slog.Logger
	events chan domain.Event

	mu   sync.RWMutex
	subs map[string]*Subscriber
}

// NewHub creates a hub. Call Run in a goroutine to start delivery.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger: logger,
		events: make(chan domain.Event, queueSize),
		subs:   make(map[string]*Subscriber),
	}
}

// Run delivers queued events until ctx is canceled, then closes every
// subscriber. Call once at server startup.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("Realtime hub starting")

	for {
		select {
		case event := <-h.events:
			h.broadcast(event)
		case <-ctx.Done():
			h.logger.Info("Realtime hub stopping")
			h.closeAllSubscribers()
			return
		}
	}
}

// Subscribe registers a consumer for one scoreboard's events.
func (h *Hub) Subscribe(scoreboardID string) (*Subscriber, error) {
	subID, err := id.Generate("ws")
	if err != nil {
		return nil, err
	}

	sub := &Subscriber{
		ID:           subID,
		ScoreboardID: scoreboardID,
		Events:       make(chan domain.Event, subscriberBuffer),
		Done:         make(chan struct{}),
		ConnectedAt:  time.Now(),
	}

	h.mu.Lock()
	h.subs[sub.ID] = sub
	total := len(h.subs)
	h.mu.Unlock()

	h.logger.Info("Live subscriber connected",
		slog.String("subscriber_id", subID),
		slog.String("scoreboard_id", scoreboardID),
		slog.Int("total_subscribers", total))
	return sub, nil
}

// Unsubscribe removes a subscriber and closes its channels. Safe to call
// after the hub has already shut the subscriber down.
func (h *Hub) Unsubscribe(subID string) {
	h.mu.Lock()
	sub, ok := h.subs[subID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.subs, subID)
	total := len(h.subs)
	h.mu.Unlock()

	close(sub.Done)
	close(sub.Events)

	h.logger.Info("Live subscriber disconnected",
		slog.String("subscriber_id", subID),
		slog.Duration("duration", time.Since(sub.ConnectedAt)),
		slog.Int("total_subscribers", total))
}

// Emit queues an event for broadcast. Non-blocking: when the queue is full
// the event is dropped and logged, never stalling a write path.
func (h *Hub) Emit(event domain.Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	select {
	case h.events <- event:
	default:
		h.logger.Warn("Event queue full, dropping event",
			slog.String("event_type", event.Type),
			slog.String("scoreboard_id", event.ScoreboardID))
	}
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// broadcast sends an event to subscribers of its scoreboard. Sends happen
// under the read lock so a concurrent Unsubscribe cannot close a channel
// mid-send; they are non-blocking so a stuck consumer only loses events.
func (h *Hub) broadcast(event domain.Event) {
	var delivered, dropped int

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if sub.ScoreboardID != "" && sub.ScoreboardID != event.ScoreboardID {
			continue
		}

		select {
		case sub.Events <- event:
			delivered++
		default:
			dropped++
			h.logger.Warn("Dropped event for slow subscriber",
				slog.String("subscriber_id", sub.ID),
				slog.String("event_type", event.Type))
		}
	}

	h.logger.Debug("Event broadcast",
		slog.String("event_type", event.Type),
		slog.String("scoreboard_id", event.ScoreboardID),
		slog.Int("delivered", delivered),
		slog.Int("dropped", dropped))
}

// closeAllSubscribers closes every subscriber (used during shutdown).
func (h *Hub) closeAllSubscribers() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		close(sub.Done)
		close(sub.Events)
	}
	h.subs = make(map[string]*Subscriber)

	h.logger.Info("All live subscribers disconnected")
}

// MarshalEvent converts an event to JSON bytes for the wire.
func MarshalEvent(event domain.Event) []byte {
	b, _ := json.Marshal(event)
	return b
}
