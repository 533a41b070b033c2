package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"
	"github.com/pscheid92/memeboard/internal/domain"
	"github.com/pscheid92/memeboard/internal/engagement"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 32
	minPasswordLength = 6
	maxPasswordLength = 72 // bcrypt ignores anything beyond 72 bytes
	maxTitleLength    = 200

	// dummyPassword is hashed once so logins for unknown users cost the
	// same as a wrong password.
	dummyPassword = "memeboard-no-such-user"
)

// EngagementEngine applies vote and comment mutations with their counter updates.
type EngagementEngine interface {
	Vote(ctx context.Context, userID, memeID uuid.UUID, rawType string) (*engagement.VoteResult, error)
	AddComment(ctx context.Context, memeID, userID uuid.UUID, content string) (*domain.Comment, error)
	RemoveComment(ctx context.Context, memeID, commentID, userID uuid.UUID) error
}

type Deps struct {
	Users        domain.UserRepository
	Memes        domain.MemeRepository
	Comments     domain.CommentRepository
	Engine       EngagementEngine
	Images       domain.ImageStore
	Hasher       domain.PasswordHasher
	Tokens       domain.TokenIssuer
	Reconciler   domain.CounterReconciler
	MemeOfTheDay *MemeOfTheDayPicker
}

// Service is the application layer. It is the only component that references
// multiple domain components, and it orchestrates all use cases.
type Service struct {
	users      domain.UserRepository
	memes      domain.MemeRepository
	comments   domain.CommentRepository
	engine     EngagementEngine
	images     domain.ImageStore
	hasher     domain.PasswordHasher
	tokens     domain.TokenIssuer
	reconciler domain.CounterReconciler
	motd       *MemeOfTheDayPicker
	authz      *Authorizer
	dummyHash  func() (string, error)
}

func NewService(d Deps) *Service {
	return &Service{
		users:      d.Users,
		memes:      d.Memes,
		comments:   d.Comments,
		engine:     d.Engine,
		images:     d.Images,
		hasher:     d.Hasher,
		tokens:     d.Tokens,
		reconciler: d.Reconciler,
		motd:       d.MemeOfTheDay,
		authz:      NewAuthorizer(d.Memes, d.Comments),
		dummyHash:  sync.OnceValues(func() (string, error) {
			return d.Hasher.Hash(dummyPassword)
		}),
	}
}

// --- Accounts ---

func (s *Service) SignUp(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, username, hash)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "User signed up", "user_id", user.ID)
	return user, nil
}

func validateCredentials(username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}
	if n := len([]rune(username)); n < minUsernameLength || n > maxUsernameLength {
		return fmt.Errorf("%w: username must be %d to %d characters", domain.ErrInvalidInput, minUsernameLength, maxUsernameLength)
	}
	for _, r := range username {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			return fmt.Errorf("%w: username may only contain letters, digits, '_', '-' and '.'", domain.ErrInvalidInput)
		}
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return fmt.Errorf("%w: password must be %d to %d bytes", domain.ErrInvalidInput, minPasswordLength, maxPasswordLength)
	}
	return nil
}

// Login checks credentials and returns a bearer token. Unknown users and wrong
// passwords both fail with ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", nil, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		if hash, hashErr := s.dummyHash(); hashErr == nil {
			_ = s.hasher.Compare(hash, password)
		}
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return token, user, nil
}

// Authenticate resolves a bearer token to a user that still exists.
func (s *Service) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return uuid.Nil, err
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return uuid.Nil, fmt.Errorf("%w: account no longer exists", domain.ErrUnauthorized)
		}
		return uuid.Nil, err
	}
	return userID, nil
}

// --- Memes: reads ---

func (s *Service) ListMemes(ctx context.Context, params MemeListParams) (*domain.MemePage, error) {
	q := NormalizeMemeQuery(params)

	memes, total, err := s.memes.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list memes: %w", err)
	}

	return &domain.MemePage{Memes: memes, Pagination: Paginate(q, total)}, nil
}

func (s *Service) GetMeme(ctx context.Context, memeID uuid.UUID) (*domain.MemeDetail, error) {
	meme, err := s.memes.GetByID(ctx, memeID)
	if err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByMeme(ctx, memeID)
	if err != nil {
		return nil, err
	}

	return &domain.MemeDetail{Meme: *meme, Comments: comments}, nil
}

// GetMemeOfTheDay returns today's meme with live counters and comments.
func (s *Service) GetMemeOfTheDay(ctx context.Context) (*domain.MemeDetail, error) {
	memeID, err := s.motd.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	detail, err := s.GetMeme(ctx, memeID)
	if !errors.Is(err, domain.ErrMemeNotFound) {
		return detail, err
	}

	// The cached choice was deleted since; the stored row went with it.
	s.motd.Forget(ctx)
	if memeID, err = s.motd.Resolve(ctx); err != nil {
		return nil, err
	}
	return s.GetMeme(ctx, memeID)
}

// --- Memes: writes ---

type CreateMemeRequest struct {
	Title       string
	Description string
	Tags        []string
	Image       *domain.Upload
}

func (s *Service) CreateMeme(ctx context.Context, actorID uuid.UUID, req CreateMemeRequest) (*domain.Meme, error) {
	title, err := validateTitle(req.Title)
	if err != nil {
		return nil, err
	}
	if req.Image == nil {
		return nil, fmt.Errorf("%w: image is required", domain.ErrInvalidInput)
	}

	imageURL, err := s.images.Save(ctx, *req.Image)
	if err != nil {
		return nil, err
	}

	meme, err := s.memes.Create(ctx, domain.NewMeme{
		OwnerID:     actorID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		ImageURL:    imageURL,
		Tags:        NormalizeTags(req.Tags...),
	})
	if err != nil {
		s.discardImage(ctx, imageURL, "create failed")
		return nil, err
	}

	slog.InfoContext(ctx, "Meme created", "meme_id", meme.ID, "user_id", actorID)
	return meme, nil
}

// UpdateMemeRequest is a partial update; nil fields are left unchanged.
type UpdateMemeRequest struct {
	Title       *string
	Description *string
	Tags        *[]string
	Image       *domain.Upload
}

func (s *Service) UpdateMeme(ctx context.Context, actorID, memeID uuid.UUID, req UpdateMemeRequest) (*domain.Meme, error) {
	if err := s.authz.CanModify(ctx, actorID, memeID, domain.ResourceMeme); err != nil {
		return nil, err
	}

	var patch domain.MemePatch
	if req.Title != nil {
		title, err := validateTitle(*req.Title)
		if err != nil {
			return nil, err
		}
		patch.Title = &title
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		patch.Description = &description
	}
	if req.Tags != nil {
		tags := NormalizeTags(*req.Tags...)
		patch.Tags = &tags
	}

	if patch.IsEmpty() && req.Image == nil {
		return s.memes.GetByID(ctx, memeID)
	}

	var previousURL string
	if req.Image != nil {
		current, err := s.memes.GetByID(ctx, memeID)
		if err != nil {
			return nil, err
		}
		previousURL = current.ImageURL

		newURL, err := s.images.Save(ctx, *req.Image)
		if err != nil {
			return nil, err
		}
		patch.ImageURL = &newURL
	}

	updated, err := s.memes.Update(ctx, memeID, actorID, patch)
	if err != nil {
		if patch.ImageURL != nil {
			s.discardImage(ctx, *patch.ImageURL, "update failed")
		}
		return nil, err
	}

	if previousURL != "" && previousURL != updated.ImageURL {
		s.discardImage(ctx, previousURL, "image replaced")
	}
	return updated, nil
}

func (s *Service) DeleteMeme(ctx context.Context, actorID, memeID uuid.UUID) error {
	if err := s.authz.CanModify(ctx, actorID, memeID, domain.ResourceMeme); err != nil {
		return err
	}

	deleted, err := s.memes.Delete(ctx, memeID, actorID)
	if err != nil {
		return err
	}

	s.discardImage(ctx, deleted.ImageURL, "meme deleted")
	slog.InfoContext(ctx, "Meme deleted", "meme_id", memeID, "user_id", actorID)
	return nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if len([]rune(title)) > maxTitleLength {
		return "", fmt.Errorf("%w: title exceeds %d characters", domain.ErrInvalidInput, maxTitleLength)
	}
	return title, nil
}

// discardImage removes a stored file that no meme references anymore. Failures
// are logged and never replace the caller's result.
func (s *Service) discardImage(ctx context.Context, url, reason string) {
	if err := s.images.Delete(context.WithoutCancel(ctx), url); err != nil {
		slog.ErrorContext(ctx, "Failed to remove image", "url", url, "reason", reason, "error", err)
	}
}

// --- Engagement ---

func (s *Service) Vote(ctx context.Context, actorID, memeID uuid.UUID, rawType string) (*engagement.VoteResult, error) {
	return s.engine.Vote(ctx, actorID, memeID, rawType)
}

func (s *Service) ListComments(ctx context.Context, memeID uuid.UUID) ([]domain.Comment, error) {
	return s.comments.ListByMeme(ctx, memeID)
}

func (s *Service) CreateComment(ctx context.Context, actorID, memeID uuid.UUID, content string) (*domain.Comment, error) {
	return s.engine.AddComment(ctx, memeID, actorID, content)
}

func (s *Service) UpdateComment(ctx context.Context, actorID, memeID, commentID uuid.UUID, content string) (*domain.Comment, error) {
	content, err := engagement.ValidateCommentContent(content)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanModify(ctx, actorID, commentID, domain.ResourceComment); err != nil {
		return nil, err
	}
	return s.comments.Update(ctx, memeID, commentID, actorID, content)
}

func (s *Service) DeleteComment(ctx context.Context, actorID, memeID, commentID uuid.UUID) error {
	if err := s.authz.CanModify(ctx, actorID, commentID, domain.ResourceComment); err != nil {
		return err
	}
	return s.engine.RemoveComment(ctx, memeID, commentID, actorID)
}

// ReconcileCounters recomputes every meme's counters from live rows and
// reports how many memes were corrected.
func (s *Service) ReconcileCounters(ctx context.Context) (int, error) {
	fixed, err := s.reconciler.ReconcileCounters(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile counters: %w", err)
	}
	if fixed > 0 {
		slog.WarnContext(ctx, "Counters drifted from rows and were repaired", "memes", fixed)
	}
	return fixed, nil
}
