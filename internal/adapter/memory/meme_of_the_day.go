package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/memeboard/internal/domain"
)

type MemeOfTheDayRepo struct{ s *Store }

var _ domain.MemeOfTheDayRepository = (*MemeOfTheDayRepo)(nil)

func dayKey(day time.Time) string {
	return day.UTC().Format(time.DateOnly)
}

func (r *MemeOfTheDayRepo) GetByDay(_ context.Context, day time.Time) (*domain.MemeOfTheDay, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.motd[dayKey(day)]
	if !ok {
		return nil, domain.ErrMemeOfTheDayNotFound
	}
	return &d, nil
}

func (r *MemeOfTheDayRepo) Create(_ context.Context, day time.Time, memeID uuid.UUID) (*domain.MemeOfTheDay, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := dayKey(day)
	if _, ok := r.s.motd[key]; ok {
		return nil, domain.ErrMemeOfTheDayExists
	}
	if _, ok := r.s.memes[memeID]; !ok {
		return nil, domain.ErrMemeNotFound
	}
	d := domain.MemeOfTheDay{
		ID:        uuid.New(),
		Day:       day.UTC().Truncate(24 * time.Hour),
		MemeID:    memeID,
		CreatedAt: r.s.clock.Now().UTC(),
	}
	r.s.motd[key] = d
	return &d, nil
}

// Seed stores a selection for day directly, as a concurrent writer would.
func (r *MemeOfTheDayRepo) Seed(day time.Time, memeID uuid.UUID) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.motd[dayKey(day)] = domain.MemeOfTheDay{ID: uuid.New(), Day: day.UTC().Truncate(24 * time.Hour), MemeID: memeID}
}
