package feedback

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/metrics"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/jonboulle/clockwork"
)

// VoteRequest is a voter's desired polarity on an item together with the polarity they
// currently hold there, as last observed.
type VoteRequest struct {
	ItemID  string
	Voter   domain.Identity
	Current domain.Polarity
	Desired domain.Polarity
}

// Decide maps a (current, desired) pair to the store operation that realises it:
// no vote creates, the same polarity retracts, the other polarity changes.
func Decide(current, desired domain.Polarity) (domain.Operation, error) {
	if !desired.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidVote, desired)
	}

	switch current {
	case domain.PolarityNone:
		return domain.OpCreate, nil
	case desired:
		return domain.OpRetract, nil
	case domain.PolarityUp, domain.PolarityDown:
		return domain.OpChange, nil
	default:
		return "", fmt.Errorf("%w: current %q", domain.ErrInvalidVote, current)
	}
}

// Mutator turns vote requests into single store calls. It never touches view state:
// live views observe the result through their change subscriptions.
type Mutator struct {
	votes   domain.VoteWriter
	reader  domain.VoteReader
	metrics *metrics.VoteMetrics
	announcer
}

// NewMutator creates a vote mutator.
// publisher may be nil when the change feed is driven by the store itself. m may be nil.
func NewMutator(votes domain.VoteWriter, reader domain.VoteReader, publisher domain.ChangePublisher, m *metrics.VoteMetrics, clock clockwork.Clock) *Mutator {
	return &Mutator{
		votes:     votes,
		reader:    reader,
		metrics:   m,
		announcer: announcer{publisher: publisher, clock: clock},
	}
}

// Apply executes the operation decided for req and returns it.
// An anonymous voter gets domain.ErrAuthRequired without any store call.
func (m *Mutator) Apply(ctx context.Context, req VoteRequest) (domain.Operation, error) {
	if !req.Voter.Present() {
		return "", domain.ErrAuthRequired
	}
	if req.ItemID == "" {
		return "", fmt.Errorf("%w: empty item id", domain.ErrItemNotFound)
	}

	op, err := Decide(req.Current, req.Desired)
	if err != nil {
		return "", err
	}

	switch op {
	case domain.OpCreate:
		err = m.votes.CreateVote(ctx, req.ItemID, req.Voter, req.Desired)
	case domain.OpChange:
		err = m.votes.UpdateVote(ctx, req.ItemID, req.Voter, req.Desired)
	case domain.OpRetract:
		err = m.votes.DeleteVote(ctx, req.ItemID, req.Voter)
	}
	m.record(op, err)
	if err != nil {
		slog.WarnContext(ctx, "Vote mutation failed", "item_id", req.ItemID, "voter", req.Voter, "operation", op, "error", err)
		return op, fmt.Errorf("failed to %s vote: %w", op, err)
	}

	slog.DebugContext(ctx, "Vote applied", "item_id", req.ItemID, "voter", req.Voter, "operation", op)
	m.announce(ctx, domain.CollectionVotes, changeOpFor(op))
	return op, nil
}

// Cast looks up the voter's current polarity on itemID and applies desired against it.
func (m *Mutator) Cast(ctx context.Context, itemID string, voter domain.Identity, desired domain.Polarity) (domain.Operation, error) {
	if !voter.Present() {
		return "", domain.ErrAuthRequired
	}

	current, err := m.currentPolarity(ctx, itemID, voter)
	if err != nil {
		return "", err
	}

	return m.Apply(ctx, VoteRequest{ItemID: itemID, Voter: voter, Current: current, Desired: desired})
}

func (m *Mutator) currentPolarity(ctx context.Context, itemID string, voter domain.Identity) (domain.Polarity, error) {
	votes, err := m.reader.VotesByVoter(ctx, voter)
	if err != nil {
		return domain.PolarityNone, fmt.Errorf("failed to load current vote: %w", err)
	}
	for _, v := range votes {
		if v.ItemID == itemID {
			return v.Polarity, nil
		}
	}
	return domain.PolarityNone, nil
}

func (m *Mutator) record(op domain.Operation, err error) {
	if m.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.metrics.Mutations.WithLabelValues(string(op), result).Inc()
}
