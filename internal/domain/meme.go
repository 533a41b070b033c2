package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Meme struct {
	ID            uuid.UUID
	Owner         Owner
	Title         string
	Description   string
	ImageURL      string
	Tags          []string
	Upvotes       int
	Downvotes     int
	CommentsCount int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type MemeDetail struct {
	Meme
	Comments []Comment
}

type NewMeme struct {
	OwnerID     uuid.UUID
	Title       string
	Description string
	ImageURL    string
	Tags        []string
}

// MemePatch is a partial update; nil fields are left unchanged.
type MemePatch struct {
	Title       *string
	Description *string
	ImageURL    *string
	Tags        *[]string
}

func (p MemePatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.ImageURL == nil && p.Tags == nil
}

type MemeRepository interface {
	List(ctx context.Context, q MemeQuery) ([]Meme, int, error)
	GetByID(ctx context.Context, memeID uuid.UUID) (*Meme, error)
	Create(ctx context.Context, m NewMeme) (*Meme, error)
	// Update and Delete only touch rows owned by ownerID.
	Update(ctx context.Context, memeID, ownerID uuid.UUID, patch MemePatch) (*Meme, error)
	Delete(ctx context.Context, memeID, ownerID uuid.UUID) (*Meme, error)
	OwnerOf(ctx context.Context, memeID uuid.UUID) (uuid.UUID, error)

	// CountCreatedSince counts memes created at or after since. A zero since counts all memes.
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	// NthCreatedSince returns the meme at offset n in (created_at, id) order among those counted above.
	NthCreatedSince(ctx context.Context, since time.Time, n int) (*Meme, error)
}

// CounterReconciler recomputes denormalized counters from vote and comment rows.
type CounterReconciler interface {
	ReconcileCounters(ctx context.Context) (int, error)
}
