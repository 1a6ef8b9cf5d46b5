package domain

import (
	"context"
	"time"
)

// Collection names a record collection of the external store.
type Collection string

const (
	CollectionFeedback Collection = "feedback"
	CollectionVotes    Collection = "votes"
)

// Collections lists every collection a live view watches.
var Collections = []Collection{CollectionFeedback, CollectionVotes}

// ChangeOp is the kind of change reported by a notification.
type ChangeOp string

const (
	OpInsert ChangeOp = "INSERT"
	OpUpdate ChangeOp = "UPDATE"
	OpDelete ChangeOp = "DELETE"
)

// ChangeEvent is a change notification. Consumers re-fetch instead of trusting the payload.
type ChangeEvent struct {
	Collection Collection `json:"collection"`
	Op         ChangeOp   `json:"op"`
	At         time.Time  `json:"at"`
}

// Subscription is an open change subscription. Events is closed once Close returns,
// and nothing is dispatched to it afterwards.
type Subscription interface {
	Events() <-chan ChangeEvent
	Close() error
}

// ChangeFeed opens change subscriptions on a collection (insert, update and delete).
type ChangeFeed interface {
	Subscribe(ctx context.Context, collection Collection) (Subscription, error)
}

// ChangePublisher announces changes on feeds where writers, not the database, publish.
type ChangePublisher interface {
	Publish(ctx context.Context, event ChangeEvent) error
}
