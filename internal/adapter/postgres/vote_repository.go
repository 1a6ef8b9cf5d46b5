package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const votesByVoterSQL = `-- name: VotesByVoter
SELECT id::text, feedback_id::text, user_id, vote_type::text, created_at
FROM votes
WHERE user_id = $1`

const createVoteSQL = `-- name: CreateVote
INSERT INTO votes (feedback_id, user_id, vote_type)
VALUES ($1, $2, $3::vote_type)`

const updateVoteSQL = `-- name: UpdateVote
UPDATE votes SET vote_type = $3::vote_type
WHERE feedback_id = $1 AND user_id = $2`

const deleteVoteSQL = `-- name: DeleteVote
DELETE FROM votes
WHERE feedback_id = $1 AND user_id = $2`

type VoteRepo struct {
	pool *pgxpool.Pool
}

func NewVoteRepo(pool *pgxpool.Pool) *VoteRepo {
	return &VoteRepo{pool: pool}
}

func (r *VoteRepo) VotesByVoter(ctx context.Context, voter domain.Identity) ([]domain.Vote, error) {
	rows, err := r.pool.Query(ctx, votesByVoterSQL, string(voter))
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}

	votes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Vote, error) {
		var v domain.Vote
		err := row.Scan(&v.ID, &v.ItemID, &v.VoterID, &v.Polarity, &v.CreatedAt)
		return v, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan votes: %w", err)
	}
	return votes, nil
}

func (r *VoteRepo) CreateVote(ctx context.Context, itemID string, voter domain.Identity, polarity domain.Polarity) error {
	id, err := uuid.Parse(itemID)
	if err != nil {
		return domain.ErrItemNotFound
	}

	if _, err := r.pool.Exec(ctx, createVoteSQL, id, string(voter), string(polarity)); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return domain.ErrVoteExists
			case pgForeignKeyViolation:
				return domain.ErrItemNotFound
			}
		}
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	return nil
}

func (r *VoteRepo) UpdateVote(ctx context.Context, itemID string, voter domain.Identity, polarity domain.Polarity) error {
	id, err := uuid.Parse(itemID)
	if err != nil {
		return domain.ErrVoteNotFound
	}

	tag, err := r.pool.Exec(ctx, updateVoteSQL, id, string(voter), string(polarity))
	if err != nil {
		return fmt.Errorf("failed to update vote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVoteNotFound
	}
	return nil
}

func (r *VoteRepo) DeleteVote(ctx context.Context, itemID string, voter domain.Identity) error {
	id, err := uuid.Parse(itemID)
	if err != nil {
		return domain.ErrVoteNotFound
	}

	tag, err := r.pool.Exec(ctx, deleteVoteSQL, id, string(voter))
	if err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVoteNotFound
	}
	return nil
}
