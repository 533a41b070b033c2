package domain

import (
	"context"

	"github.com/google/uuid"
)

// EngagementStore runs vote and comment mutations together with the matching
// counter adjustment as one atomic unit. If fn returns an error, nothing is kept.
type EngagementStore interface {
	WithinTx(ctx context.Context, fn func(tx EngagementTx) error) error
}

type EngagementTx interface {
	// LockVote returns the (user, meme) vote and holds it until the unit ends.
	// It returns ErrVoteNotFound when there is none.
	LockVote(ctx context.Context, userID, memeID uuid.UUID) (*Vote, error)
	InsertVote(ctx context.Context, v Vote) error
	UpdateVoteType(ctx context.Context, userID, memeID uuid.UUID, t VoteType) error
	DeleteVote(ctx context.Context, userID, memeID uuid.UUID) error

	InsertComment(ctx context.Context, memeID, ownerID uuid.UUID, content string) (*Comment, error)
	DeleteComment(ctx context.Context, memeID, commentID, ownerID uuid.UUID) error

	// AdjustCounters applies delta in place and returns the updated meme.
	AdjustCounters(ctx context.Context, memeID uuid.UUID, delta CounterDelta) (*Meme, error)
}
