package events

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Event is one message off the upstream event feed. Payload stays raw; the
// hub routes by type only.
type Event struct {
	Type       string          `json:"event_type"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"received_at"`
}

type subscriber struct {
	id int64
	ch chan Event
}

// Hub fans events out to per-type subscribers. Subscribe returns the channel
// together with its unsubscribe function; callers release the subscription
// on teardown so handlers never leak past the page that registered them.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string][]*subscriber
	nextID int64

	dropped uint64
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subs:   map[string][]*subscriber{},
		logger: logger,
	}
}

// Subscribe registers for one event type. The returned function removes the
// subscription and closes the channel; calling it twice is safe.
func (h *Hub) Subscribe(eventType string, buf int) (<-chan Event, func()) {
	if buf <= 0 {
		buf = 16
	}
	sub := &subscriber{
		id: atomic.AddInt64(&h.nextID, 1),
		ch: make(chan Event, buf),
	}
	h.mu.Lock()
	h.subs[eventType] = append(h.subs[eventType], sub)
	h.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			list := h.subs[eventType]
			for i, s := range list {
				if s.id == sub.id {
					h.subs[eventType] = append(list[:i], list[i+1:]...)
					break
				}
			}
			if len(h.subs[eventType]) == 0 {
				delete(h.subs, eventType)
			}
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, unsubscribe
}

// Publish delivers to every subscriber of the event's type. Slow consumers
// are skipped; the hub must never block the read loop.
func (h *Hub) Publish(ev Event) {
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs[ev.Type] {
		select {
		case s.ch <- ev:
		default:
			atomic.AddUint64(&h.dropped, 1)
			if h.logger != nil {
				h.logger.Warn("event dropped for slow subscriber", zap.String("event_type", ev.Type))
			}
		}
	}
}

// Dropped reports how many events were discarded for slow subscribers.
func (h *Hub) Dropped() uint64 {
	return atomic.LoadUint64(&h.dropped)
}

// SubscriberCount is used by the health endpoint.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, list := range h.subs {
		n += len(list)
	}
	return n
}
