package notify_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafeteria-system/internal/domain"
	"cafeteria-system/internal/notify"
)

func recv(t *testing.T, ch <-chan domain.EventKind) domain.EventKind {
	t.Helper()
	select {
	case kind := <-ch:
		return kind
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return ""
	}
}

func TestHubDeliversToAllSubscribers(t *testing.T) {
	hub := notify.NewHub()
	a, cancelA := hub.Subscribe()
	defer cancelA()
	b, cancelB := hub.Subscribe()
	defer cancelB()

	hub.Publish(domain.MenuUpdated)

	assert.Equal(t, domain.MenuUpdated, recv(t, a))
	assert.Equal(t, domain.MenuUpdated, recv(t, b))
}

func TestHubSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	hub := notify.NewHub()
	slow, cancelSlow := hub.Subscribe()
	defer cancelSlow()
	fast, cancelFast := hub.Subscribe()
	defer cancelFast()

	// Overrun the slow subscriber's buffer without draining it. Publish
	// must not block; the fast subscriber keeps receiving.
	for i := 0; i < 50; i++ {
		hub.Publish(domain.OrdersUpdated)
		recv(t, fast)
	}
	_ = slow
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := notify.NewHub()
	ch, cancel := hub.Subscribe()

	cancel()
	_, open := <-ch
	assert.False(t, open)

	// Safe to cancel twice, and publishing after is a no-op.
	cancel()
	hub.Publish(domain.MenuUpdated)
}

func TestHubBroadcastFeedsSubscribers(t *testing.T) {
	hub := notify.NewHub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	hub.Broadcast(domain.OrdersUpdated)
	require.Equal(t, domain.OrdersUpdated, recv(t, ch))
}
