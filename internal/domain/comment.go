package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID        uuid.UUID
	MemeID    uuid.UUID
	Owner     Owner
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CommentRepository interface {
	ListByMeme(ctx context.Context, memeID uuid.UUID) ([]Comment, error)
	// Update only touches a comment of memeID owned by ownerID.
	Update(ctx context.Context, memeID, commentID, ownerID uuid.UUID, content string) (*Comment, error)
	OwnerOf(ctx context.Context, commentID uuid.UUID) (uuid.UUID, error)
}
