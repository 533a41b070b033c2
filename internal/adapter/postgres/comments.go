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

// commentColumns must match the Scan order in scanComment. Queries alias
// comments as c and users as u.
const commentColumns = `c.id, c.meme_id, c.user_id, u.username, c.content, c.created_at, c.updated_at`

type CommentRepo struct {
	pool *pgxpool.Pool
}

var _ domain.CommentRepository = (*CommentRepo)(nil)

func NewCommentRepo(pool *pgxpool.Pool) *CommentRepo {
	return &CommentRepo{pool: pool}
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var c domain.Comment
	if err := row.Scan(&c.ID, &c.MemeID, &c.Owner.ID, &c.Owner.Username, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CommentRepo) ListByMeme(ctx context.Context, memeID uuid.UUID) ([]domain.Comment, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM memes WHERE id = $1)`, memeID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check meme: %w", err)
	}
	if !exists {
		return nil, domain.ErrMemeNotFound
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+commentColumns+`
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.meme_id = $1
		ORDER BY c.created_at, c.id`, memeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

func (r *CommentRepo) Update(ctx context.Context, memeID, commentID, ownerID uuid.UUID, content string) (*domain.Comment, error) {
	c, err := scanComment(r.pool.QueryRow(ctx, `
		WITH c AS (
			UPDATE comments SET content = $4, updated_at = NOW()
			WHERE id = $2 AND meme_id = $1 AND user_id = $3
			RETURNING *
		)
		SELECT `+commentColumns+` FROM c JOIN users u ON u.id = c.user_id`,
		memeID, commentID, ownerID, content))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	return c, nil
}

func (r *CommentRepo) OwnerOf(ctx context.Context, commentID uuid.UUID) (uuid.UUID, error) {
	var ownerID uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT user_id FROM comments WHERE id = $1`, commentID).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, domain.ErrCommentNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to get comment owner: %w", err)
	}
	return ownerID, nil
}
