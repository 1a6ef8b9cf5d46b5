package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/metrics"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/platform/retry"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/realtime"
	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
)

// ChangeChannel is the NOTIFY channel written by the row triggers.
const ChangeChannel = "feedbackwall_changes"

// ChangeFeed turns trigger notifications into change events. One dedicated
// connection LISTENs for the whole process and fans out through a hub.
type ChangeFeed struct {
	databaseURL string
	hub         *realtime.Hub
	metrics     *metrics.DatabaseMetrics
	clock       clockwork.Clock
	policy      retry.Policy
}

var _ domain.ChangeFeed = (*ChangeFeed)(nil)

// NewChangeFeed creates a feed. m may be nil. Call Run to start listening.
func NewChangeFeed(databaseURL string, m *metrics.DatabaseMetrics, clock clockwork.Clock) *ChangeFeed {
	return &ChangeFeed{
		databaseURL: databaseURL,
		hub:         realtime.NewHub(),
		metrics:     m,
		clock:       clock,
		policy: retry.Policy{
			InitialBackoff: 500 * time.Millisecond,
			MaxBackoff:     30 * time.Second,
			Clock:          clock,
			OnRetry: func(attempt int, err error, backoff time.Duration) {
				slog.Warn("Change listener connect failed, retrying",
					"attempt", attempt, "backoff", backoff, "error", err)
			},
		},
	}
}

func (f *ChangeFeed) Subscribe(ctx context.Context, collection domain.Collection) (domain.Subscription, error) {
	return f.hub.Subscribe(ctx, collection)
}

// Run listens until ctx is done, reconnecting on connection loss. Every
// reconnect emits one synthetic event per collection, since notifications sent
// while disconnected are lost. The hub is closed when Run returns.
func (f *ChangeFeed) Run(ctx context.Context) error {
	defer f.hub.Close()

	for {
		conn, err := retry.Do(ctx, f.policy, retry.Always, f.connect)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		err = f.consume(ctx, conn)
		f.closeConn(conn)
		if ctx.Err() != nil {
			return nil
		}

		slog.Warn("Change listener disconnected, reconnecting", "error", err)
		if f.metrics != nil {
			f.metrics.ListenerReconnects.Inc()
		}
		f.resync()
	}
}

func (f *ChangeFeed) connect(ctx context.Context) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, f.databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect listener: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+ChangeChannel); err != nil {
		f.closeConn(conn)
		return nil, fmt.Errorf("failed to listen on %s: %w", ChangeChannel, err)
	}
	slog.Info("Change listener connected", "channel", ChangeChannel)
	return conn, nil
}

func (f *ChangeFeed) consume(ctx context.Context, conn *pgx.Conn) error {
	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}

		event, err := decodeNotification(n.Payload)
		if err != nil {
			slog.Warn("Ignoring malformed change notification", "payload", n.Payload, "error", err)
			continue
		}
		f.hub.Dispatch(event)
	}
}

func (f *ChangeFeed) resync() {
	now := f.clock.Now()
	for _, c := range domain.Collections {
		f.hub.Dispatch(domain.ChangeEvent{Collection: c, Op: domain.OpUpdate, At: now})
	}
}

func (f *ChangeFeed) closeConn(conn *pgx.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Close(ctx); err != nil {
		slog.Debug("Failed to close listener connection", "error", err)
	}
}

func decodeNotification(payload string) (domain.ChangeEvent, error) {
	var event domain.ChangeEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return domain.ChangeEvent{}, err
	}
	switch event.Collection {
	case domain.CollectionFeedback, domain.CollectionVotes:
	default:
		return domain.ChangeEvent{}, fmt.Errorf("unknown collection %q", event.Collection)
	}
	switch event.Op {
	case domain.OpInsert, domain.OpUpdate, domain.OpDelete:
	default:
		return domain.ChangeEvent{}, fmt.Errorf("unknown operation %q", event.Op)
	}
	return event, nil
}
