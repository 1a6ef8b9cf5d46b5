package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Polarity is the direction of a vote. The zero value means "no vote".
type Polarity string

const (
	PolarityNone Polarity = ""
	PolarityUp   Polarity = "up"
	PolarityDown Polarity = "down"
)

// ParsePolarity parses "up" or "down".
func ParsePolarity(s string) (Polarity, error) {
	switch p := Polarity(s); p {
	case PolarityUp, PolarityDown:
		return p, nil
	default:
		return PolarityNone, fmt.Errorf("%w: %q", ErrInvalidVote, s)
	}
}

// Valid reports whether p is up or down.
func (p Polarity) Valid() bool {
	return p == PolarityUp || p == PolarityDown
}

// MarshalJSON encodes PolarityNone as null.
func (p Polarity) MarshalJSON() ([]byte, error) {
	if p == PolarityNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(p))
}

// Vote is a single voter's polarity on one item.
type Vote struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"feedback_id"`
	VoterID   Identity  `json:"user_id"`
	Polarity  Polarity  `json:"vote_type"`
	CreatedAt time.Time `json:"created_at"`
}

// Operation is the store mutation chosen for a vote request.
type Operation string

const (
	OpCreate  Operation = "create"
	OpChange  Operation = "change"
	OpRetract Operation = "retract"
)
