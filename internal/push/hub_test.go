package push_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/docvaulthq/docvault/internal/push"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_DeliversToOwnTenantOnly(t *testing.T) {
	t.Parallel()

	hub := push.NewHub(slog.New(slog.DiscardHandler))

	eventsA, cancelA := hub.Subscribe("tenant-a")
	defer cancelA()
	eventsB, cancelB := hub.Subscribe("tenant-b")
	defer cancelB()

	hub.Publish(context.Background(), "tenant-a", push.EventUploadProgress, push.UploadProgress{BatchID: "b1", Processed: 1, Total: 3})

	select {
	case event := <-eventsA:
		assert.Equal(t, push.EventUploadProgress, event.Name)
	case <-time.After(10 * time.Millisecond):
		t.Fatal("timeout: tenant-a did not receive its event")
	}

	select {
	case event := <-eventsB:
		t.Fatalf("tenant-b received foreign event %q", event.Name)
	case <-time.After(10 * time.Millisecond):
	}
}

func TestHub_SlowSubscriberDropsEvents(t *testing.T) {
	t.Parallel()

	hub := push.NewHub(slog.New(slog.DiscardHandler))

	events, cancel := hub.Subscribe("tenant-a")
	defer cancel()

	// Overflow the buffer without draining; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Publish(context.Background(), "tenant-a", push.EventBulkJobProgress, push.BulkJobProgress{JobID: "j", Progress: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	// Whatever was buffered is still readable.
	select {
	case event := <-events:
		require.Equal(t, push.EventBulkJobProgress, event.Name)
	case <-time.After(10 * time.Millisecond):
		t.Fatal("expected at least one buffered event")
	}
}

func TestHub_CancelStopsDelivery(t *testing.T) {
	t.Parallel()

	hub := push.NewHub(slog.New(slog.DiscardHandler))

	events, cancel := hub.Subscribe("tenant-a")
	cancel()
	cancel() // idempotent

	_, open := <-events
	assert.False(t, open, "channel should be closed after cancel")

	// Publishing after cancel must not panic.
	hub.Publish(context.Background(), "tenant-a", push.EventUploadCompleted, push.UploadCompleted{BatchID: "b1"})
}
