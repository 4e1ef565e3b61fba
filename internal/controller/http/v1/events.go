package v1

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/docvaulthq/docvault/internal/domain"
	"github.com/docvaulthq/docvault/internal/push"
)

type Subscriber interface {
	Subscribe(tenantID domain.TenantID) (<-chan push.Event, func())
}

// EventsHandler streams the tenant's push events over SSE. The stream is
// best effort by construction: nothing is replayed on reconnect.
type EventsHandler struct {
	hub Subscriber
}

func NewEventsHandler(hub Subscriber) *EventsHandler {
	return &EventsHandler{
		hub: hub,
	}
}

func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, cancel := h.hub.Subscribe(tenantFromRequest(r))
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}

			data, err := json.Marshal(event.Payload)
			if err != nil {
				continue
			}

			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Name, data)
			flusher.Flush()
		}
	}
}
