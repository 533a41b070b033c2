package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pscheid92/memeboard/internal/domain"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

var errNegativeCounter = errors.New("counter would become negative")

// constraintErrors maps named constraints to domain errors.
var constraintErrors = map[string]error{
	"users_username_key":            domain.ErrUsernameTaken,
	"memes_image_url_key":           domain.ErrImageTaken,
	"memes_user_id_fkey":            domain.ErrUserNotFound,
	"memes_counters_check":          errNegativeCounter,
	"comments_meme_id_fkey":         domain.ErrMemeNotFound,
	"comments_user_id_fkey":         domain.ErrUserNotFound,
	"votes_pkey":                    domain.ErrVoteConflict,
	"votes_meme_id_fkey":            domain.ErrMemeNotFound,
	"votes_user_id_fkey":            domain.ErrUserNotFound,
	"memes_of_the_day_day_key":      domain.ErrMemeOfTheDayExists,
	"memes_of_the_day_meme_id_fkey": domain.ErrMemeNotFound,
}

// mapConstraintError translates integrity violations into domain errors and
// leaves every other error untouched.
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation, codeForeignKeyViolation, codeCheckViolation:
		if mapped, ok := constraintErrors[pgErr.ConstraintName]; ok {
			return mapped
		}
	}
	return err
}
