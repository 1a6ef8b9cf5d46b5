package feedback

import (
	"context"
	"log/slog"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/jonboulle/clockwork"
)

// announcer publishes a change after a successful write when the feed needs writers to do so.
// Publish failures are logged only: the polling backstop of every live view covers them.
type announcer struct {
	publisher domain.ChangePublisher
	clock     clockwork.Clock
}

func (a announcer) announce(ctx context.Context, collection domain.Collection, op domain.ChangeOp) {
	if a.publisher == nil {
		return
	}
	event := domain.ChangeEvent{Collection: collection, Op: op, At: a.clock.Now()}
	if err := a.publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "Failed to publish change", "collection", collection, "op", op, "error", err)
	}
}

func changeOpFor(op domain.Operation) domain.ChangeOp {
	switch op {
	case domain.OpCreate:
		return domain.OpInsert
	case domain.OpRetract:
		return domain.OpDelete
	default:
		return domain.OpUpdate
	}
}
