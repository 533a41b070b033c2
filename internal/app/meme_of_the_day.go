package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/memeboard/internal/adapter/metrics"
	"github.com/pscheid92/memeboard/internal/domain"
	"golang.org/x/sync/singleflight"
)

// recentWindow is how far back a meme may have been posted to be picked.
const recentWindow = 14 * 24 * time.Hour

// MemeOfTheDayPicker resolves the meme of the current UTC day. The choice is
// made once per day, persisted, and shared by every replica afterwards.
type MemeOfTheDayPicker struct {
	memes    domain.MemeRepository
	days     domain.MemeOfTheDayRepository
	cache    domain.MemeOfTheDayCache
	clock    clockwork.Clock
	metrics  *metrics.CacheMetrics
	randIntN func(n int) int
	group    singleflight.Group
}

func NewMemeOfTheDayPicker(memes domain.MemeRepository, days domain.MemeOfTheDayRepository, cache domain.MemeOfTheDayCache, clock clockwork.Clock, m *metrics.CacheMetrics) *MemeOfTheDayPicker {
	return &MemeOfTheDayPicker{
		memes:    memes,
		days:     days,
		cache:    cache,
		clock:    clock,
		metrics:  m,
		randIntN: rand.IntN,
	}
}

// WithRand replaces the uniform index source; randIntN(n) must return a value in [0, n).
func (p *MemeOfTheDayPicker) WithRand(randIntN func(n int) int) *MemeOfTheDayPicker {
	p.randIntN = randIntN
	return p
}

// Today returns the current calendar day as UTC midnight.
func Today(clock clockwork.Clock) time.Time {
	now := clock.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Resolve returns the id of today's meme, choosing one if nobody has yet.
func (p *MemeOfTheDayPicker) Resolve(ctx context.Context) (uuid.UUID, error) {
	day := Today(p.clock)

	if id, ok := p.cache.Get(ctx, day); ok {
		return id, nil
	}

	// The shared resolution must outlive any single caller; each caller
	// still stops waiting when its own context ends.
	ch := p.group.DoChan(day.Format(time.DateOnly), func() (any, error) {
		return p.resolveUncached(context.WithoutCancel(ctx), day)
	})
	select {
	case <-ctx.Done():
		return uuid.Nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return uuid.Nil, res.Err
		}
		return res.Val.(uuid.UUID), nil
	}
}

// Forget drops a cached choice, e.g. after the chosen meme was deleted.
func (p *MemeOfTheDayPicker) Forget(ctx context.Context) {
	p.cache.Invalidate(ctx, Today(p.clock))
}

func (p *MemeOfTheDayPicker) resolveUncached(ctx context.Context, day time.Time) (uuid.UUID, error) {
	row, err := p.days.GetByDay(ctx, day)
	if err == nil {
		p.cache.Set(ctx, day, row.MemeID)
		return row.MemeID, nil
	}
	if !errors.Is(err, domain.ErrMemeOfTheDayNotFound) {
		return uuid.Nil, fmt.Errorf("failed to load meme of the day: %w", err)
	}

	chosen, err := p.pick(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	row, err = p.days.Create(ctx, day, chosen.ID)
	if errors.Is(err, domain.ErrMemeOfTheDayExists) {
		// Another replica chose first; its choice wins.
		row, err = p.days.GetByDay(ctx, day)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to store meme of the day: %w", err)
	}

	if row.MemeID == chosen.ID {
		p.metrics.Selections.Inc()
		slog.InfoContext(ctx, "Meme of the day selected", "day", day.Format(time.DateOnly), "meme_id", chosen.ID)
	}

	p.cache.Set(ctx, day, row.MemeID)
	return row.MemeID, nil
}

// pick draws uniformly from memes of the trailing window, or from all memes if
// the window is empty.
func (p *MemeOfTheDayPicker) pick(ctx context.Context) (*domain.Meme, error) {
	since := p.clock.Now().UTC().Add(-recentWindow)

	count, err := p.memes.CountCreatedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count recent memes: %w", err)
	}
	if count == 0 {
		since = time.Time{}
		if count, err = p.memes.CountCreatedSince(ctx, since); err != nil {
			return nil, fmt.Errorf("failed to count memes: %w", err)
		}
	}
	if count == 0 {
		return nil, domain.ErrNoMemesAvailable
	}

	meme, err := p.memes.NthCreatedSince(ctx, since, p.randIntN(count))
	if err != nil {
		return nil, fmt.Errorf("failed to load chosen meme: %w", err)
	}
	return meme, nil
}
