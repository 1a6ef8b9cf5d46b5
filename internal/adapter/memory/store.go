// Package memory provides an in-process feedback store for development and tests.
//
// Writes emit change events to the configured publisher the way the database
// triggers do for the Postgres backend.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

type voteKey struct {
	ItemID string
	Voter  domain.Identity
}

// Store is a mutex-guarded in-memory implementation of domain.Store.
type Store struct {
	mu        sync.RWMutex
	clock     clockwork.Clock
	items     map[string]domain.Item
	votes     map[voteKey]domain.Vote
	publisher domain.ChangePublisher
}

// NewStore creates an empty store. publisher may be nil.
func NewStore(clock clockwork.Clock, publisher domain.ChangePublisher) *Store {
	return &Store{
		clock:     clock,
		items:     make(map[string]domain.Item),
		votes:     make(map[voteKey]domain.Vote),
		publisher: publisher,
	}
}

// ListWithVotes returns every item with its aggregate, newest first.
func (s *Store) ListWithVotes(_ context.Context) ([]domain.ItemWithVotes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type tally struct{ up, down int }
	tallies := make(map[string]tally, len(s.items))
	for key, v := range s.votes {
		t := tallies[key.ItemID]
		if v.Polarity == domain.PolarityUp {
			t.up++
		} else {
			t.down++
		}
		tallies[key.ItemID] = t
	}

	rows := make([]domain.ItemWithVotes, 0, len(s.items))
	for id, item := range s.items {
		t := tallies[id]
		rows = append(rows, domain.ItemWithVotes{
			Item:          copyItem(item),
			VoteAggregate: domain.NewVoteAggregate(t.up, t.down),
		})
	}
	slices.SortFunc(rows, func(a, b domain.ItemWithVotes) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return rows, nil
}

// VotesByVoter returns every vote cast by voter.
func (s *Store) VotesByVoter(_ context.Context, voter domain.Identity) ([]domain.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var votes []domain.Vote
	for key, v := range s.votes {
		if key.Voter == voter {
			votes = append(votes, v)
		}
	}
	return votes, nil
}

func (s *Store) CreateVote(ctx context.Context, itemID string, voter domain.Identity, polarity domain.Polarity) error {
	if err := s.createVote(itemID, voter, polarity); err != nil {
		return err
	}
	s.emit(ctx, domain.CollectionVotes, domain.OpInsert)
	return nil
}

func (s *Store) createVote(itemID string, voter domain.Identity, polarity domain.Polarity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[itemID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrItemNotFound, itemID)
	}
	key := voteKey{ItemID: itemID, Voter: voter}
	if _, ok := s.votes[key]; ok {
		return domain.ErrVoteExists
	}
	s.votes[key] = domain.Vote{
		ID:        uuid.NewString(),
		ItemID:    itemID,
		VoterID:   voter,
		Polarity:  polarity,
		CreatedAt: s.clock.Now(),
	}
	return nil
}

func (s *Store) UpdateVote(ctx context.Context, itemID string, voter domain.Identity, polarity domain.Polarity) error {
	s.mu.Lock()
	key := voteKey{ItemID: itemID, Voter: voter}
	v, ok := s.votes[key]
	if ok {
		v.Polarity = polarity
		s.votes[key] = v
	}
	s.mu.Unlock()

	if !ok {
		return domain.ErrVoteNotFound
	}
	s.emit(ctx, domain.CollectionVotes, domain.OpUpdate)
	return nil
}

func (s *Store) DeleteVote(ctx context.Context, itemID string, voter domain.Identity) error {
	s.mu.Lock()
	key := voteKey{ItemID: itemID, Voter: voter}
	_, ok := s.votes[key]
	delete(s.votes, key)
	s.mu.Unlock()

	if !ok {
		return domain.ErrVoteNotFound
	}
	s.emit(ctx, domain.CollectionVotes, domain.OpDelete)
	return nil
}

func (s *Store) CreateItem(ctx context.Context, item domain.NewItem) (*domain.Item, error) {
	created := domain.Item{
		ID:          uuid.NewString(),
		Title:       item.Title,
		Description: copyString(item.Description),
		CreatedBy:   item.CreatedBy.String(),
		CreatedAt:   s.clock.Now(),
	}

	s.mu.Lock()
	s.items[created.ID] = created
	s.mu.Unlock()

	s.emit(ctx, domain.CollectionFeedback, domain.OpInsert)
	result := copyItem(created)
	return &result, nil
}

func (s *Store) emit(ctx context.Context, collection domain.Collection, op domain.ChangeOp) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(ctx, domain.ChangeEvent{Collection: collection, Op: op, At: s.clock.Now()})
}

func copyItem(item domain.Item) domain.Item {
	item.Description = copyString(item.Description)
	return item
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
