package feedback

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/metrics"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
)

// Fetcher pulls the current aggregate view and the viewer's own votes and left-joins them.
type Fetcher struct {
	items   domain.ItemViewReader
	votes   domain.VoteReader
	metrics *metrics.ViewMetrics
}

// NewFetcher creates a fetcher. m may be nil.
func NewFetcher(items domain.ItemViewReader, votes domain.VoteReader, m *metrics.ViewMetrics) *Fetcher {
	return &Fetcher{items: items, votes: votes, metrics: m}
}

// Fetch returns every item annotated with voter's own polarity, in no particular order.
// A failure to read the item view is returned with no items. A failure to read the
// viewer's votes only degrades the annotation: all items then carry PolarityNone.
func (f *Fetcher) Fetch(ctx context.Context, voter domain.Identity) ([]domain.AnnotatedItem, error) {
	rows, err := f.items.ListWithVotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load feedback view: %w", err)
	}

	own := f.ownVotes(ctx, voter)

	annotated := make([]domain.AnnotatedItem, len(rows))
	for i, row := range rows {
		annotated[i] = domain.AnnotatedItem{
			Item:          row.Item,
			VoteAggregate: row.VoteAggregate,
			UserVote:      own[row.ID],
		}
	}
	return annotated, nil
}

func (f *Fetcher) ownVotes(ctx context.Context, voter domain.Identity) map[string]domain.Polarity {
	if !voter.Present() {
		return nil
	}

	votes, err := f.votes.VotesByVoter(ctx, voter)
	if err != nil {
		slog.WarnContext(ctx, "Failed to load viewer votes, continuing without them", "voter", voter, "error", err)
		if f.metrics != nil {
			f.metrics.DegradedVoteLookups.Inc()
		}
		return nil
	}

	own := make(map[string]domain.Polarity, len(votes))
	for _, v := range votes {
		own[v.ItemID] = v.Polarity
	}
	return own
}
