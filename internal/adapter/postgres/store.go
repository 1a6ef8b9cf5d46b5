package postgres

import (
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the Postgres-backed domain.Store.
type Store struct {
	*FeedbackRepo
	*VoteRepo
}

var _ domain.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		FeedbackRepo: NewFeedbackRepo(pool),
		VoteRepo:     NewVoteRepo(pool),
	}
}
