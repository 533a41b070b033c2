package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type VoteType string

const (
	Upvote   VoteType = "upvote"
	Downvote VoteType = "downvote"
)

// ParseVoteType accepts "upvote" or "downvote", case-insensitively.
func ParseVoteType(s string) (VoteType, error) {
	switch VoteType(strings.ToLower(strings.TrimSpace(s))) {
	case Upvote:
		return Upvote, nil
	case Downvote:
		return Downvote, nil
	default:
		return "", fmt.Errorf("%w: vote type must be %q or %q", ErrInvalidInput, Upvote, Downvote)
	}
}

type Vote struct {
	UserID    uuid.UUID
	MemeID    uuid.UUID
	Type      VoteType
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CounterDelta is a signed adjustment to a meme's aggregate counters.
type CounterDelta struct {
	Upvotes   int
	Downvotes int
	Comments  int
}

func (d CounterDelta) IsZero() bool {
	return d == CounterDelta{}
}

// Add returns the field-wise sum of d and o.
func (d CounterDelta) Add(o CounterDelta) CounterDelta {
	return CounterDelta{
		Upvotes:   d.Upvotes + o.Upvotes,
		Downvotes: d.Downvotes + o.Downvotes,
		Comments:  d.Comments + o.Comments,
	}
}

// DeltaFor returns +n on the counter matching t.
func DeltaFor(t VoteType, n int) CounterDelta {
	if t == Upvote {
		return CounterDelta{Upvotes: n}
	}
	return CounterDelta{Downvotes: n}
}
