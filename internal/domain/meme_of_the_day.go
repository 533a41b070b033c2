package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type MemeOfTheDay struct {
	ID        uuid.UUID
	Day       time.Time // UTC midnight
	MemeID    uuid.UUID
	CreatedAt time.Time
}

type MemeOfTheDayRepository interface {
	GetByDay(ctx context.Context, day time.Time) (*MemeOfTheDay, error)
	// Create returns ErrMemeOfTheDayExists when another writer chose first.
	Create(ctx context.Context, day time.Time, memeID uuid.UUID) (*MemeOfTheDay, error)
}

// MemeOfTheDayCache remembers which meme was chosen for a day. Misses and
// backend failures both report ok=false.
type MemeOfTheDayCache interface {
	Get(ctx context.Context, day time.Time) (uuid.UUID, bool)
	Set(ctx context.Context, day time.Time, memeID uuid.UUID)
	Invalidate(ctx context.Context, day time.Time)
}
