package feedback

import (
	"context"
	"sync"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
)

type fakeItemReader struct {
	rows []domain.ItemWithVotes
	err  error
}

func (f *fakeItemReader) ListWithVotes(context.Context) ([]domain.ItemWithVotes, error) {
	return f.rows, f.err
}

type fakeVoteReader struct {
	votes map[domain.Identity][]domain.Vote
	err   error
	calls int
}

func (f *fakeVoteReader) VotesByVoter(_ context.Context, voter domain.Identity) ([]domain.Vote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.votes[voter], nil
}

type writerCall struct {
	Method   string
	ItemID   string
	Voter    domain.Identity
	Polarity domain.Polarity
}

type recordingWriter struct {
	calls []writerCall
	err   error
}

func (w *recordingWriter) CreateVote(_ context.Context, itemID string, voter domain.Identity, p domain.Polarity) error {
	w.calls = append(w.calls, writerCall{"create", itemID, voter, p})
	return w.err
}

func (w *recordingWriter) UpdateVote(_ context.Context, itemID string, voter domain.Identity, p domain.Polarity) error {
	w.calls = append(w.calls, writerCall{"update", itemID, voter, p})
	return w.err
}

func (w *recordingWriter) DeleteVote(_ context.Context, itemID string, voter domain.Identity) error {
	w.calls = append(w.calls, writerCall{"delete", itemID, voter, domain.PolarityNone})
	return w.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type fakeItemWriter struct {
	got domain.NewItem
	err error
}

func (w *fakeItemWriter) CreateItem(_ context.Context, item domain.NewItem) (*domain.Item, error) {
	w.got = item
	if w.err != nil {
		return nil, w.err
	}
	return &domain.Item{ID: "new-item", Title: item.Title, Description: item.Description, CreatedBy: item.CreatedBy.String()}, nil
}
