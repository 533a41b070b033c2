// Package engagement keeps meme counters consistent with vote and comment rows.
//
// Every mutation runs through domain.EngagementStore.WithinTx: the row change and
// the signed counter delta commit together or not at all.
package engagement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/memeboard/internal/adapter/metrics"
	"github.com/pscheid92/memeboard/internal/domain"
)

const maxCommentLength = 2000

type Engine struct {
	store   domain.EngagementStore
	clock   clockwork.Clock
	metrics *metrics.EngagementMetrics
}

func NewEngine(store domain.EngagementStore, clock clockwork.Clock, m *metrics.EngagementMetrics) *Engine {
	return &Engine{store: store, clock: clock, metrics: m}
}

type VoteResult struct {
	Meme       *domain.Meme
	Transition Transition
}

func (r *VoteResult) Message() string {
	return r.Transition.Message()
}

// Vote applies a vote request from userID on memeID. The type is validated
// before any state is read.
func (e *Engine) Vote(ctx context.Context, userID, memeID uuid.UUID, rawType string) (*VoteResult, error) {
	voteType, err := domain.ParseVoteType(rawType)
	if err != nil {
		return nil, err
	}

	var result VoteResult
	err = e.run(ctx, "vote", func(tx domain.EngagementTx) error {
		existing, err := tx.LockVote(ctx, userID, memeID)
		if err != nil && !errors.Is(err, domain.ErrVoteNotFound) {
			return err
		}

		tr := Decide(StateOf(existing), voteType)
		now := e.clock.Now()

		switch tr.Action {
		case ActionCreate:
			err = tx.InsertVote(ctx, domain.Vote{
				UserID:    userID,
				MemeID:    memeID,
				Type:      voteType,
				CreatedAt: now,
				UpdatedAt: now,
			})
		case ActionRemove:
			err = tx.DeleteVote(ctx, userID, memeID)
		case ActionFlip:
			err = tx.UpdateVoteType(ctx, userID, memeID, voteType)
		}
		if err != nil {
			return err
		}

		meme, err := tx.AdjustCounters(ctx, memeID, tr.Delta)
		if err != nil {
			return err
		}

		result = VoteResult{Meme: meme, Transition: tr}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.metrics.VotesApplied.WithLabelValues(string(result.Transition.Action), string(voteType)).Inc()
	slog.DebugContext(ctx, "Vote applied",
		"meme_id", memeID, "user_id", userID,
		"from", result.Transition.From.String(), "to", result.Transition.To.String())
	return &result, nil
}

// AddComment stores a comment and bumps the meme's comment counter.
func (e *Engine) AddComment(ctx context.Context, memeID, userID uuid.UUID, content string) (*domain.Comment, error) {
	content, err := ValidateCommentContent(content)
	if err != nil {
		return nil, err
	}

	var created *domain.Comment
	err = e.run(ctx, "add_comment", func(tx domain.EngagementTx) error {
		c, err := tx.InsertComment(ctx, memeID, userID, content)
		if err != nil {
			return err
		}
		if _, err := tx.AdjustCounters(ctx, memeID, domain.CounterDelta{Comments: 1}); err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.metrics.CommentsApplied.WithLabelValues("create").Inc()
	return created, nil
}

// RemoveComment deletes a comment of memeID owned by userID and decrements the counter.
func (e *Engine) RemoveComment(ctx context.Context, memeID, commentID, userID uuid.UUID) error {
	err := e.run(ctx, "remove_comment", func(tx domain.EngagementTx) error {
		if err := tx.DeleteComment(ctx, memeID, commentID, userID); err != nil {
			return err
		}
		_, err := tx.AdjustCounters(ctx, memeID, domain.CounterDelta{Comments: -1})
		return err
	})
	if err != nil {
		return err
	}

	e.metrics.CommentsApplied.WithLabelValues("delete").Inc()
	return nil
}

func (e *Engine) run(ctx context.Context, operation string, fn func(tx domain.EngagementTx) error) error {
	timer := prometheus.NewTimer(e.metrics.UnitDuration.WithLabelValues(operation))
	defer timer.ObserveDuration()

	if err := e.store.WithinTx(ctx, fn); err != nil {
		e.metrics.Failures.WithLabelValues(operation).Inc()
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

// ValidateCommentContent trims content and rejects empty or oversized comments.
func ValidateCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: comment content is required", domain.ErrInvalidInput)
	}
	if len([]rune(content)) > maxCommentLength {
		return "", fmt.Errorf("%w: comment content exceeds %d characters", domain.ErrInvalidInput, maxCommentLength)
	}
	return content, nil
}
