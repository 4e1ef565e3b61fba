// Package push is the best-effort broadcast channel for progress and state
// events. Subscriptions are tenant-scoped: a subscriber only ever receives
// events published for its own tenant. Delivery is unordered across topics
// and lossy under backpressure; the store remains the source of truth.
package push

import (
	"context"
	"log/slog"
	"sync"

	"github.com/docvaulthq/docvault/internal/domain"
)

const subscriberBuffer = 64

type Event struct {
	Name    string `json:"name"`
	Payload any    `json:"payload"`
}

type Hub struct {
	log *slog.Logger

	mu          sync.RWMutex
	subscribers map[domain.TenantID]map[*subscriber]struct{}
}

type subscriber struct {
	events chan Event
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:         log,
		subscribers: make(map[domain.TenantID]map[*subscriber]struct{}),
	}
}

// Subscribe registers a listener for one tenant's events. The returned
// cancel function must be called when the listener goes away; it closes the
// event channel.
func (h *Hub) Subscribe(tenantID domain.TenantID) (<-chan Event, func()) {
	sub := &subscriber{events: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	group, ok := h.subscribers[tenantID]
	if !ok {
		group = make(map[*subscriber]struct{})
		h.subscribers[tenantID] = group
	}
	group[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if group, ok := h.subscribers[tenantID]; ok {
				delete(group, sub)
				if len(group) == 0 {
					delete(h.subscribers, tenantID)
				}
			}
			h.mu.Unlock()
			close(sub.events)
		})
	}

	return sub.events, cancel
}

// Publish fans an event out to the tenant's current subscribers. Sends never
// block: a subscriber whose buffer is full loses the event.
func (h *Hub) Publish(ctx context.Context, tenantID domain.TenantID, name string, payload any) {
	event := Event{Name: name, Payload: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers[tenantID] {
		select {
		case sub.events <- event:
		default:
			h.log.DebugContext(ctx, "dropped push event for slow subscriber",
				slog.String("tenant_id", tenantID.String()),
				slog.String("event", name),
			)
		}
	}
}
