package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesOnlyTheUser(t *testing.T) {
	hub := NewHub()

	mine, cancelMine := hub.Subscribe("admin-1")
	defer cancelMine()
	other, cancelOther := hub.Subscribe("admin-2")
	defer cancelOther()

	hub.Publish("admin-1", "bulk.started", map[string]int{"total": 3})

	select {
	case ev := <-mine:
		assert.Equal(t, "admin-1", ev.UserID)
		assert.Equal(t, "bulk.started", ev.Event)
		assert.Equal(t, map[string]int{"total": 3}, ev.Data)
	default:
		t.Fatal("expected an event for admin-1")
	}

	select {
	case ev := <-other:
		t.Fatalf("admin-2 received %q", ev.Event)
	default:
	}
}

func TestHub_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("admin-1")
	defer cancel()

	for range hub.bufferSize + 10 {
		hub.Publish("admin-1", "bulk.item", nil)
	}

	assert.Len(t, ch, hub.bufferSize)
}

func TestHub_CleanupClosesAndForgets(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("admin-1")
	require.Equal(t, 1, hub.SubscriberCount("admin-1"))

	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, hub.SubscriberCount("admin-1"))

	hub.Publish("admin-1", "bulk.completed", nil)
}
