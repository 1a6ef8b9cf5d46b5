package domain

import "context"

// ItemViewReader reads the store's pre-aggregated item view.
type ItemViewReader interface {
	ListWithVotes(ctx context.Context) ([]ItemWithVotes, error)
}

// VoteReader reads the votes cast by one voter across all items.
type VoteReader interface {
	VotesByVoter(ctx context.Context, voter Identity) ([]Vote, error)
}

// VoteWriter mutates the vote keyed by (item, voter). Each call is a single atomic store operation.
type VoteWriter interface {
	CreateVote(ctx context.Context, itemID string, voter Identity, polarity Polarity) error
	UpdateVote(ctx context.Context, itemID string, voter Identity, polarity Polarity) error
	DeleteVote(ctx context.Context, itemID string, voter Identity) error
}

// ItemWriter creates feedback items.
type ItemWriter interface {
	CreateItem(ctx context.Context, item NewItem) (*Item, error)
}

// Store is the full client handle of the external relational store.
type Store interface {
	ItemViewReader
	VoteReader
	VoteWriter
	ItemWriter
}
