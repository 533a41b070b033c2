package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pscheid92/memeboard/internal/domain"
)

// OwnerLookup resolves only the owning user id of a resource.
type OwnerLookup interface {
	OwnerOf(ctx context.Context, resourceID uuid.UUID) (uuid.UUID, error)
}

// Authorizer decides whether an actor may mutate a meme or comment.
type Authorizer struct {
	lookups map[domain.ResourceKind]OwnerLookup
}

func NewAuthorizer(memes, comments OwnerLookup) *Authorizer {
	return &Authorizer{lookups: map[domain.ResourceKind]OwnerLookup{
		domain.ResourceMeme:    memes,
		domain.ResourceComment: comments,
	}}
}

// CanModify returns nil when actorID owns the resource. Otherwise it fails with
// ErrInvalidInput for nil ids or an unknown kind, the repository's not-found
// error for a missing resource, or ErrForbidden.
func (a *Authorizer) CanModify(ctx context.Context, actorID, resourceID uuid.UUID, kind domain.ResourceKind) error {
	if actorID == uuid.Nil {
		return fmt.Errorf("%w: actor id is required", domain.ErrInvalidInput)
	}
	if resourceID == uuid.Nil {
		return fmt.Errorf("%w: %s id is required", domain.ErrInvalidInput, kind)
	}

	lookup, ok := a.lookups[kind]
	if !ok {
		return fmt.Errorf("%w: unknown resource kind %q", domain.ErrInvalidInput, kind)
	}

	ownerID, err := lookup.OwnerOf(ctx, resourceID)
	if err != nil {
		return err
	}
	if ownerID != actorID {
		return fmt.Errorf("%w: %s %s is owned by another user", domain.ErrForbidden, kind, resourceID)
	}
	return nil
}
