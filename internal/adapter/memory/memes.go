package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/memeboard/internal/domain"
)

type MemeRepo struct{ s *Store }

var _ domain.MemeRepository = (*MemeRepo)(nil)

func (r *MemeRepo) List(_ context.Context, q domain.MemeQuery) ([]domain.Meme, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.fault("ListMemes"); err != nil {
		return nil, 0, err
	}

	title := strings.ToLower(q.Title)
	matched := []domain.Meme{}
	for _, m := range r.s.memes {
		if title != "" && !strings.Contains(strings.ToLower(m.Title), title) {
			continue
		}
		if !tagsMatch(m.Tags, q.Tags, q.Match) {
			continue
		}
		matched = append(matched, *r.s.project(m))
	}

	sortMemes(matched, q.SortBy, q.Direction)

	total := len(matched)
	start := min(q.Offset(), total)
	end := min(start+q.Limit, total)
	return matched[start:end], total, nil
}

func tagsMatch(memeTags, filter []string, match domain.TagMatch) bool {
	if len(filter) == 0 {
		return true
	}
	if match == domain.MatchAll {
		for _, f := range filter {
			if !slices.Contains(memeTags, f) {
				return false
			}
		}
		return true
	}
	for _, f := range filter {
		if slices.Contains(memeTags, f) {
			return true
		}
	}
	return false
}

func sortMemes(memes []domain.Meme, field domain.SortField, dir domain.SortDirection) {
	key := func(m domain.Meme) int64 {
		switch field {
		case domain.SortUpvotes:
			return int64(m.Upvotes)
		case domain.SortDownvotes:
			return int64(m.Downvotes)
		case domain.SortCommentsCount:
			return int64(m.CommentsCount)
		default:
			return m.CreatedAt.UnixNano()
		}
	}

	sort.SliceStable(memes, func(i, j int) bool {
		a, b := key(memes[i]), key(memes[j])
		if a == b {
			return strings.Compare(memes[i].ID.String(), memes[j].ID.String()) < 0
		}
		if dir == domain.SortAsc {
			return a < b
		}
		return a > b
	})
}

func (r *MemeRepo) GetByID(_ context.Context, memeID uuid.UUID) (*domain.Meme, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.memes[memeID]
	if !ok {
		return nil, domain.ErrMemeNotFound
	}
	return r.s.project(m), nil
}

func (r *MemeRepo) Create(_ context.Context, nm domain.NewMeme) (*domain.Meme, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.fault("CreateMeme"); err != nil {
		return nil, err
	}
	if _, ok := r.s.users[nm.OwnerID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	for _, m := range r.s.memes {
		if m.ImageURL == nm.ImageURL {
			return nil, domain.ErrImageTaken
		}
	}

	now := r.s.clock.Now().UTC()
	m := domain.Meme{
		ID:          uuid.New(),
		Owner:       domain.Owner{ID: nm.OwnerID},
		Title:       nm.Title,
		Description: nm.Description,
		ImageURL:    nm.ImageURL,
		Tags:        slices.Clone(nm.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.s.memes[m.ID] = m
	return r.s.project(m), nil
}

func (r *MemeRepo) Update(_ context.Context, memeID, ownerID uuid.UUID, patch domain.MemePatch) (*domain.Meme, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.fault("UpdateMeme"); err != nil {
		return nil, err
	}
	m, ok := r.s.memes[memeID]
	if !ok || m.Owner.ID != ownerID {
		return nil, domain.ErrMemeNotFound
	}
	if patch.ImageURL != nil {
		for id, other := range r.s.memes {
			if id != memeID && other.ImageURL == *patch.ImageURL {
				return nil, domain.ErrImageTaken
			}
		}
		m.ImageURL = *patch.ImageURL
	}
	if patch.Title != nil {
		m.Title = *patch.Title
	}
	if patch.Description != nil {
		m.Description = *patch.Description
	}
	if patch.Tags != nil {
		m.Tags = slices.Clone(*patch.Tags)
	}
	m.UpdatedAt = r.s.clock.Now().UTC()
	r.s.memes[memeID] = m
	return r.s.project(m), nil
}

func (r *MemeRepo) Delete(_ context.Context, memeID, ownerID uuid.UUID) (*domain.Meme, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.fault("DeleteMeme"); err != nil {
		return nil, err
	}
	m, ok := r.s.memes[memeID]
	if !ok || m.Owner.ID != ownerID {
		return nil, domain.ErrMemeNotFound
	}
	deleted := r.s.project(m)
	r.s.deleteMemeLocked(memeID)
	return deleted, nil
}

func (r *MemeRepo) OwnerOf(_ context.Context, memeID uuid.UUID) (uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.memes[memeID]
	if !ok {
		return uuid.Nil, domain.ErrMemeNotFound
	}
	return m.Owner.ID, nil
}

func (r *MemeRepo) createdSince(since time.Time) []domain.Meme {
	var pool []domain.Meme
	for _, m := range r.s.memes {
		if since.IsZero() || !m.CreatedAt.Before(since) {
			pool = append(pool, m)
		}
	}
	sortByCreation(pool,
		func(m domain.Meme) time.Time { return m.CreatedAt },
		func(m domain.Meme) uuid.UUID { return m.ID })
	return pool
}

func (r *MemeRepo) CountCreatedSince(_ context.Context, since time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.createdSince(since)), nil
}

func (r *MemeRepo) NthCreatedSince(_ context.Context, since time.Time, n int) (*domain.Meme, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	pool := r.createdSince(since)
	if n < 0 || n >= len(pool) {
		return nil, domain.ErrMemeNotFound
	}
	return r.s.project(pool[n]), nil
}
