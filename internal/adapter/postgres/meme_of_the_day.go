package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/memeboard/internal/domain"
)

type MemeOfTheDayRepo struct {
	pool *pgxpool.Pool
}

var _ domain.MemeOfTheDayRepository = (*MemeOfTheDayRepo)(nil)

func NewMemeOfTheDayRepo(pool *pgxpool.Pool) *MemeOfTheDayRepo {
	return &MemeOfTheDayRepo{pool: pool}
}

func scanMemeOfTheDay(row pgx.Row) (*domain.MemeOfTheDay, error) {
	var d domain.MemeOfTheDay
	if err := row.Scan(&d.ID, &d.Day, &d.MemeID, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.Day = d.Day.UTC()
	return &d, nil
}

func utcDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (r *MemeOfTheDayRepo) GetByDay(ctx context.Context, day time.Time) (*domain.MemeOfTheDay, error) {
	d, err := scanMemeOfTheDay(r.pool.QueryRow(ctx,
		`SELECT id, day, meme_id, created_at FROM memes_of_the_day WHERE day = $1::date`,
		utcDay(day)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMemeOfTheDayNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meme of the day: %w", err)
	}
	return d, nil
}

// Create stores the first selection for day. A concurrent writer that got
// there first makes it return ErrMemeOfTheDayExists.
func (r *MemeOfTheDayRepo) Create(ctx context.Context, day time.Time, memeID uuid.UUID) (*domain.MemeOfTheDay, error) {
	d, err := scanMemeOfTheDay(r.pool.QueryRow(ctx, `
		INSERT INTO memes_of_the_day (day, meme_id) VALUES ($1::date, $2)
		ON CONFLICT (day) DO NOTHING
		RETURNING id, day, meme_id, created_at`,
		utcDay(day), memeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMemeOfTheDayExists
	}
	if err != nil {
		if mapped := mapConstraintError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to create meme of the day: %w", err)
	}
	return d, nil
}
