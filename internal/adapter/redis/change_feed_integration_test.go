package redis

import (
	"context"
	"testing"
	"time"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeFeed_PublishReachesSubscriber(t *testing.T) {
	feed := startFeed(t)
	ctx := context.Background()

	sub, err := feed.Subscribe(ctx, domain.CollectionVotes)
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, feed.Publish(ctx, domain.ChangeEvent{Collection: domain.CollectionVotes, Op: domain.OpInsert, At: at}))

	select {
	case event := <-sub.Events():
		assert.Equal(t, domain.CollectionVotes, event.Collection)
		assert.Equal(t, domain.OpInsert, event.Op)
		assert.True(t, event.At.Equal(at))
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}
}

func TestChangeFeed_RoutesByCollection(t *testing.T) {
	feed := startFeed(t)
	ctx := context.Background()

	feedbackSub, err := feed.Subscribe(ctx, domain.CollectionFeedback)
	require.NoError(t, err)
	votesSub, err := feed.Subscribe(ctx, domain.CollectionVotes)
	require.NoError(t, err)

	require.NoError(t, feed.Publish(ctx, domain.ChangeEvent{Collection: domain.CollectionFeedback, Op: domain.OpInsert}))

	select {
	case <-feedbackSub.Events():
	case <-time.After(5 * time.Second):
		t.Fatal("feedback subscriber got no event")
	}

	select {
	case event := <-votesSub.Events():
		t.Fatalf("votes subscriber got unexpected event %+v", event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestChangeFeed_RunClosesSubscriptionsOnShutdown(t *testing.T) {
	client := setupTestClient(t)
	feed := NewChangeFeed(client)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- feed.Run(ctx) }()
	<-feed.Ready()

	sub, err := feed.Subscribe(context.Background(), domain.CollectionFeedback)
	require.NoError(t, err)

	cancel()
	require.NoError(t, <-done)

	_, open := <-sub.Events()
	assert.False(t, open)
}
