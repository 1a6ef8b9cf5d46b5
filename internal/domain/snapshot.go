package domain

import "time"

// ChartBar is one bar of the top-voted chart.
type ChartBar struct {
	ItemID    string `json:"id"`
	Label     string `json:"name"`
	Title     string `json:"full_title"`
	Votes     int    `json:"votes"`
	Upvotes   int    `json:"upvotes"`
	Downvotes int    `json:"downvotes"`
}

// Snapshot is the immutable result of one refresh pass of a live view.
// When Err is set, Items and Chart are empty: callers show an error state, never stale data.
type Snapshot struct {
	Version   uint64          `json:"version"`
	Voter     Identity        `json:"voter"`
	Items     []AnnotatedItem `json:"items"`
	Chart     []ChartBar      `json:"chart"`
	Err       error           `json:"-"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Failed reports whether the refresh that produced the snapshot could not load items.
func (s Snapshot) Failed() bool { return s.Err != nil }
