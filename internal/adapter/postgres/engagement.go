package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/memeboard/internal/domain"
)

// EngagementStore runs each engagement unit in a READ COMMITTED transaction.
// The vote row is locked with FOR UPDATE and counters change through atomic
// increments, so concurrent units on one meme never lose an update.
type EngagementStore struct {
	pool *pgxpool.Pool
}

var _ domain.EngagementStore = (*EngagementStore)(nil)

func NewEngagementStore(pool *pgxpool.Pool) *EngagementStore {
	return &EngagementStore{pool: pool}
}

func (s *EngagementStore) WithinTx(ctx context.Context, fn func(tx domain.EngagementTx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&engagementTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type engagementTx struct {
	tx pgx.Tx
}

func (t *engagementTx) LockVote(ctx context.Context, userID, memeID uuid.UUID) (*domain.Vote, error) {
	var v domain.Vote
	err := t.tx.QueryRow(ctx, `
		SELECT user_id, meme_id, type, created_at, updated_at
		FROM votes WHERE user_id = $1 AND meme_id = $2
		FOR UPDATE`, userID, memeID).
		Scan(&v.UserID, &v.MemeID, &v.Type, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrVoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock vote: %w", err)
	}
	return &v, nil
}

func (t *engagementTx) InsertVote(ctx context.Context, v domain.Vote) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO votes (user_id, meme_id, type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		v.UserID, v.MemeID, string(v.Type), v.CreatedAt, v.UpdatedAt)
	if err != nil {
		if mapped := mapConstraintError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	return nil
}

func (t *engagementTx) UpdateVoteType(ctx context.Context, userID, memeID uuid.UUID, vt domain.VoteType) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE votes SET type = $3, updated_at = NOW() WHERE user_id = $1 AND meme_id = $2`,
		userID, memeID, string(vt))
	if err != nil {
		return fmt.Errorf("failed to update vote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVoteNotFound
	}
	return nil
}

func (t *engagementTx) DeleteVote(ctx context.Context, userID, memeID uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM votes WHERE user_id = $1 AND meme_id = $2`, userID, memeID)
	if err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVoteNotFound
	}
	return nil
}

func (t *engagementTx) InsertComment(ctx context.Context, memeID, ownerID uuid.UUID, content string) (*domain.Comment, error) {
	c, err := scanComment(t.tx.QueryRow(ctx, `
		WITH c AS (
			INSERT INTO comments (meme_id, user_id, content) VALUES ($1, $2, $3) RETURNING *
		)
		SELECT `+commentColumns+` FROM c JOIN users u ON u.id = c.user_id`,
		memeID, ownerID, content))
	if err != nil {
		if mapped := mapConstraintError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}
	return c, nil
}

func (t *engagementTx) DeleteComment(ctx context.Context, memeID, commentID, ownerID uuid.UUID) error {
	tag, err := t.tx.Exec(ctx,
		`DELETE FROM comments WHERE id = $1 AND meme_id = $2 AND user_id = $3`,
		commentID, memeID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

func (t *engagementTx) AdjustCounters(ctx context.Context, memeID uuid.UUID, delta domain.CounterDelta) (*domain.Meme, error) {
	m, err := scanMeme(t.tx.QueryRow(ctx, `
		WITH m AS (
			UPDATE memes SET
				upvotes        = upvotes + $2,
				downvotes      = downvotes + $3,
				comments_count = comments_count + $4
			WHERE id = $1
			RETURNING *
		)
		SELECT `+memeColumns+` FROM m JOIN users u ON u.id = m.user_id`,
		memeID, delta.Upvotes, delta.Downvotes, delta.Comments))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMemeNotFound
	}
	if err != nil {
		if mapped := mapConstraintError(err); mapped != err {
			return nil, fmt.Errorf("failed to adjust counters of meme %s: %w", memeID, mapped)
		}
		return nil, fmt.Errorf("failed to adjust counters: %w", err)
	}
	return m, nil
}
