package postgres

import (
	"context"
	"fmt"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const listWithVotesSQL = `-- name: ListWithVotes
SELECT id::text, title, description, created_by, created_at, vote_count, upvotes, downvotes
FROM feedback_with_votes
ORDER BY created_at DESC, id`

const createItemSQL = `-- name: CreateItem
INSERT INTO feedback (title, description, created_by)
VALUES ($1, $2, $3)
RETURNING id::text, title, description, created_by, created_at`

type FeedbackRepo struct {
	pool *pgxpool.Pool
	list sharedList
}

func NewFeedbackRepo(pool *pgxpool.Pool) *FeedbackRepo {
	r := &FeedbackRepo{pool: pool}
	r.list.load = r.listWithVotes
	return r
}

// ListWithVotes reads the aggregate view. Concurrent calls share one query
// when they arrive before it starts.
func (r *FeedbackRepo) ListWithVotes(ctx context.Context) ([]domain.ItemWithVotes, error) {
	return r.list.Do(ctx)
}

func (r *FeedbackRepo) listWithVotes(ctx context.Context) ([]domain.ItemWithVotes, error) {
	rows, err := r.pool.Query(ctx, listWithVotesSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ItemWithVotes, error) {
		var it domain.ItemWithVotes
		err := row.Scan(&it.ID, &it.Title, &it.Description, &it.CreatedBy, &it.CreatedAt,
			&it.Net, &it.Upvotes, &it.Downvotes)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan feedback: %w", err)
	}
	return items, nil
}

func (r *FeedbackRepo) CreateItem(ctx context.Context, item domain.NewItem) (*domain.Item, error) {
	var created domain.Item
	err := r.pool.QueryRow(ctx, createItemSQL, item.Title, item.Description, string(item.CreatedBy)).
		Scan(&created.ID, &created.Title, &created.Description, &created.CreatedBy, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert feedback: %w", err)
	}
	return &created, nil
}
