package postgres

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pscheid92/memeboard/internal/domain"
	"github.com/pscheid92/memeboard/internal/platform/retry"
	"github.com/stretchr/testify/assert"
)

func TestMapConstraintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"duplicate vote", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "votes_pkey"}, domain.ErrVoteConflict},
		{"duplicate image", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "memes_image_url_key"}, domain.ErrImageTaken},
		{"duplicate username", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "users_username_key"}, domain.ErrUsernameTaken},
		{"vote on missing meme", &pgconn.PgError{Code: codeForeignKeyViolation, ConstraintName: "votes_meme_id_fkey"}, domain.ErrMemeNotFound},
		{"comment by missing user", &pgconn.PgError{Code: codeForeignKeyViolation, ConstraintName: "comments_user_id_fkey"}, domain.ErrUserNotFound},
		{"negative counter", &pgconn.PgError{Code: codeCheckViolation, ConstraintName: "memes_counters_check"}, errNegativeCounter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapConstraintError(tt.err), tt.want)
		})
	}

	unknown := &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "something_else"}
	assert.Same(t, unknown, mapConstraintError(unknown))

	plain := errors.New("plain")
	assert.Same(t, plain, mapConstraintError(plain))
}

func TestClassifyConnectError(t *testing.T) {
	assert.Equal(t, retry.Retry, ClassifyConnectError(&net.OpError{Op: "dial", Err: errors.New("connection refused")}))
	assert.Equal(t, retry.Retry, ClassifyConnectError(&pgconn.PgError{Code: "57P03"}))
	assert.Equal(t, retry.Stop, ClassifyConnectError(&pgconn.PgError{Code: "28P01"}))
	assert.Equal(t, retry.Stop, ClassifyConnectError(context.Canceled))
	assert.Equal(t, retry.Stop, ClassifyConnectError(errors.New("failed to parse database URL")))
}

func TestExtractSSLMode(t *testing.T) {
	assert.Equal(t, "disable", extractSSLMode("postgres://u:p@h/db?sslmode=DISABLE"))
	assert.Equal(t, "prefer (default)", extractSSLMode("postgres://u:p@h/db"))
	assert.Equal(t, "unknown", extractSSLMode("://bad"))
}
