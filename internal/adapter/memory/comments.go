package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/memeboard/internal/domain"
)

type CommentRepo struct{ s *Store }

var _ domain.CommentRepository = (*CommentRepo)(nil)

func (r *CommentRepo) ListByMeme(_ context.Context, memeID uuid.UUID) ([]domain.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.memes[memeID]; !ok {
		return nil, domain.ErrMemeNotFound
	}
	out := []domain.Comment{}
	for _, c := range r.s.comments {
		if c.MemeID == memeID {
			c.Owner = r.s.owner(c.Owner.ID)
			out = append(out, c)
		}
	}
	sortByCreation(out,
		func(c domain.Comment) time.Time { return c.CreatedAt },
		func(c domain.Comment) uuid.UUID { return c.ID })
	return out, nil
}

func (r *CommentRepo) Update(_ context.Context, memeID, commentID, ownerID uuid.UUID, content string) (*domain.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.comments[commentID]
	if !ok || c.MemeID != memeID || c.Owner.ID != ownerID {
		return nil, domain.ErrCommentNotFound
	}
	c.Content = content
	c.UpdatedAt = r.s.clock.Now().UTC()
	r.s.comments[commentID] = c
	c.Owner = r.s.owner(c.Owner.ID)
	return &c, nil
}

func (r *CommentRepo) OwnerOf(_ context.Context, commentID uuid.UUID) (uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.comments[commentID]
	if !ok {
		return uuid.Nil, domain.ErrCommentNotFound
	}
	return c.Owner.ID, nil
}
