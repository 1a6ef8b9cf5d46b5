package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/realtime"
	goredis "github.com/redis/go-redis/v9"
)

const channelPrefix = "feedbackwall:changes:"

func changeChannel(c domain.Collection) string {
	return channelPrefix + string(c)
}

// ChangeFeed is both the change feed and the change publisher for deployments
// where writers announce their own mutations.
type ChangeFeed struct {
	rdb       *goredis.Client
	hub       *realtime.Hub
	ready     chan struct{}
	readyOnce sync.Once
}

var (
	_ domain.ChangeFeed      = (*ChangeFeed)(nil)
	_ domain.ChangePublisher = (*ChangeFeed)(nil)
)

// NewChangeFeed creates a feed on rdb. Call Run to start receiving.
func NewChangeFeed(rdb *goredis.Client) *ChangeFeed {
	return &ChangeFeed{
		rdb:   rdb,
		hub:   realtime.NewHub(),
		ready: make(chan struct{}),
	}
}

func (f *ChangeFeed) Subscribe(ctx context.Context, collection domain.Collection) (domain.Subscription, error) {
	return f.hub.Subscribe(ctx, collection)
}

// Publish announces event to every process subscribed to its collection.
func (f *ChangeFeed) Publish(ctx context.Context, event domain.ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if err := f.rdb.Publish(ctx, changeChannel(event.Collection), data).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

// Ready is closed once the subscription connection is confirmed.
func (f *ChangeFeed) Ready() <-chan struct{} {
	return f.ready
}

// Run receives until ctx is done. go-redis re-establishes a dropped
// subscription on its own. The hub is closed when Run returns.
func (f *ChangeFeed) Run(ctx context.Context) error {
	defer f.hub.Close()

	channels := make([]string, 0, len(domain.Collections))
	for _, c := range domain.Collections {
		channels = append(channels, changeChannel(c))
	}

	pubsub := f.rdb.Subscribe(ctx, channels...)
	defer func() { _ = pubsub.Close() }()

	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to subscribe to change channels: %w", err)
	}
	f.readyOnce.Do(func() { close(f.ready) })
	slog.Info("Change feed subscribed", "channels", channels)

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			event, err := decodeMessage(msg.Channel, msg.Payload)
			if err != nil {
				slog.Warn("Ignoring malformed change message", "channel", msg.Channel, "error", err)
				continue
			}
			f.hub.Dispatch(event)
		case <-ctx.Done():
			return nil
		}
	}
}

// decodeMessage trusts the channel over the payload for the collection.
func decodeMessage(channel, payload string) (domain.ChangeEvent, error) {
	name, ok := strings.CutPrefix(channel, channelPrefix)
	if !ok {
		return domain.ChangeEvent{}, fmt.Errorf("unexpected channel %q", channel)
	}

	var event domain.ChangeEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return domain.ChangeEvent{}, fmt.Errorf("failed to unmarshal change event: %w", err)
	}

	event.Collection = domain.Collection(name)
	switch event.Collection {
	case domain.CollectionFeedback, domain.CollectionVotes:
	default:
		return domain.ChangeEvent{}, fmt.Errorf("unknown collection %q", name)
	}
	if event.Op == "" {
		event.Op = domain.OpUpdate
	}
	return event, nil
}
