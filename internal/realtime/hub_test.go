package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_DispatchToCollectionSubscribers(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	votes, err := hub.Subscribe(ctx, domain.CollectionVotes)
	require.NoError(t, err)
	defer votes.Close()
	items, err := hub.Subscribe(ctx, domain.CollectionFeedback)
	require.NoError(t, err)
	defer items.Close()

	hub.Dispatch(domain.ChangeEvent{Collection: domain.CollectionVotes, Op: domain.OpInsert})

	select {
	case ev := <-votes.Events():
		assert.Equal(t, domain.OpInsert, ev.Op)
	default:
		t.Fatal("votes subscriber did not receive the event")
	}

	select {
	case <-items.Events():
		t.Fatal("feedback subscriber should not receive vote events")
	default:
	}
}

func TestHub_DispatchCoalescesPendingEvents(t *testing.T) {
	hub := NewHub()
	sub, err := hub.Subscribe(context.Background(), domain.CollectionVotes)
	require.NoError(t, err)
	defer sub.Close()

	for range 10 {
		hub.Dispatch(domain.ChangeEvent{Collection: domain.CollectionVotes, Op: domain.OpUpdate})
	}

	assert.Len(t, sub.Events(), 1)
}

func TestHub_CloseSubscription(t *testing.T) {
	hub := NewHub()
	sub, err := hub.Subscribe(context.Background(), domain.CollectionFeedback)
	require.NoError(t, err)
	require.Equal(t, 1, hub.Subscribers(domain.CollectionFeedback))

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	_, ok := <-sub.Events()
	assert.False(t, ok, "channel should be closed")
	assert.Equal(t, 0, hub.Subscribers(domain.CollectionFeedback))

	// Dispatch after close must not panic.
	hub.Dispatch(domain.ChangeEvent{Collection: domain.CollectionFeedback, Op: domain.OpInsert})
}

func TestHub_ContextCancelClosesSubscription(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := hub.Subscribe(ctx, domain.CollectionVotes)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription was not closed after context cancel")
	}
	assert.Eventually(t, func() bool { return hub.Subscribers(domain.CollectionVotes) == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub()
	sub, err := hub.Subscribe(context.Background(), domain.CollectionVotes)
	require.NoError(t, err)

	hub.Close()

	_, ok := <-sub.Events()
	assert.False(t, ok)
	require.NoError(t, sub.Close())

	_, err = hub.Subscribe(context.Background(), domain.CollectionVotes)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestHub_SubscribeWithDoneContext(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := hub.Subscribe(ctx, domain.CollectionVotes)
	assert.ErrorIs(t, err, context.Canceled)
}
