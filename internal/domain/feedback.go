package domain

import "time"

// Identity is the opaque voter/creator identifier supplied by the auth collaborator.
// The empty Identity is an anonymous viewer.
type Identity string

// Anonymous is the identity of a viewer who has not signed in.
const Anonymous Identity = ""

// Present reports whether the identity belongs to a signed-in viewer.
func (i Identity) Present() bool { return i != Anonymous }

func (i Identity) String() string { return string(i) }

// Item is a submitted feedback entry.
type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// VoteAggregate holds the per-item vote totals. Net is always Upvotes - Downvotes.
type VoteAggregate struct {
	Net       int `json:"vote_count"`
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

// NewVoteAggregate builds an aggregate from raw counts, deriving the net count.
func NewVoteAggregate(upvotes, downvotes int) VoteAggregate {
	return VoteAggregate{
		Net:       upvotes - downvotes,
		Upvotes:   upvotes,
		Downvotes: downvotes,
	}
}

// ItemWithVotes is one row of the store's pre-aggregated item view.
type ItemWithVotes struct {
	Item
	VoteAggregate
}

// AnnotatedItem is an item with its aggregate and the requesting viewer's own vote.
// Instances are built fresh on every fetch and never mutated afterwards.
type AnnotatedItem struct {
	Item
	VoteAggregate
	UserVote Polarity `json:"user_vote"`
}

// NewItem carries the fields of an item submission.
type NewItem struct {
	Title       string
	Description *string
	CreatedBy   Identity
}
