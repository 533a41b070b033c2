package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Owner is the public projection of a user attached to memes and comments.
type Owner struct {
	ID       uuid.UUID
	Username string
}

type UserRepository interface {
	Create(ctx context.Context, username, passwordHash string) (*User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns ErrInvalidCredentials when password does not match hash.
	Compare(hash, password string) error
}

// TokenIssuer turns a user into a bearer credential and back into an actor id.
type TokenIssuer interface {
	Issue(user *User) (string, error)
	Verify(token string) (uuid.UUID, error)
}
