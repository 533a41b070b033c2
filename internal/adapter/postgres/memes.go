package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/memeboard/internal/domain"
)

// memeColumns must match the Scan order in scanMeme. Queries alias memes as m
// and users as u.
const memeColumns = `m.id, m.user_id, u.username, m.title, m.description, m.image_url, m.tags,
	m.upvotes, m.downvotes, m.comments_count, m.created_at, m.updated_at`

type MemeRepo struct {
	pool *pgxpool.Pool
}

var _ domain.MemeRepository = (*MemeRepo)(nil)

func NewMemeRepo(pool *pgxpool.Pool) *MemeRepo {
	return &MemeRepo{pool: pool}
}

func scanMeme(row pgx.Row) (*domain.Meme, error) {
	var m domain.Meme
	err := row.Scan(&m.ID, &m.Owner.ID, &m.Owner.Username, &m.Title, &m.Description, &m.ImageURL, &m.Tags,
		&m.Upvotes, &m.Downvotes, &m.CommentsCount, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	return &m, nil
}

// sortColumns is the only source of ORDER BY identifiers.
var sortColumns = map[domain.SortField]string{
	domain.SortCreatedAt:     "m.created_at",
	domain.SortUpvotes:       "m.upvotes",
	domain.SortDownvotes:     "m.downvotes",
	domain.SortCommentsCount: "m.comments_count",
}

// likeEscaper makes user input match literally inside an ILIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func listFilter(q domain.MemeQuery) (string, []any) {
	var conds []string
	var args []any

	if q.Title != "" {
		args = append(args, "%"+likeEscaper.Replace(q.Title)+"%")
		conds = append(conds, fmt.Sprintf(`m.title ILIKE $%d ESCAPE '\'`, len(args)))
	}
	if len(q.Tags) > 0 {
		args = append(args, q.Tags)
		op := "&&"
		if q.Match == domain.MatchAll {
			op = "@>"
		}
		conds = append(conds, fmt.Sprintf(`m.tags %s $%d::text[]`, op, len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func listOrder(q domain.MemeQuery) string {
	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = sortColumns[domain.SortCreatedAt]
	}
	dir := "DESC"
	if q.Direction == domain.SortAsc {
		dir = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, m.id %s", col, dir, dir)
}

func (r *MemeRepo) List(ctx context.Context, q domain.MemeQuery) ([]domain.Meme, int, error) {
	where, args := listFilter(q)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM memes m`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count memes: %w", err)
	}

	n := len(args)
	sql := `SELECT ` + memeColumns + ` FROM memes m JOIN users u ON u.id = m.user_id` + where + listOrder(q) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2)
	rows, err := r.pool.Query(ctx, sql, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list memes: %w", err)
	}
	defer rows.Close()

	memes := []domain.Meme{}
	for rows.Next() {
		m, err := scanMeme(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan meme: %w", err)
		}
		memes = append(memes, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list memes: %w", err)
	}
	return memes, total, nil
}

func (r *MemeRepo) GetByID(ctx context.Context, memeID uuid.UUID) (*domain.Meme, error) {
	m, err := scanMeme(r.pool.QueryRow(ctx,
		`SELECT `+memeColumns+` FROM memes m JOIN users u ON u.id = m.user_id WHERE m.id = $1`, memeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMemeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meme: %w", err)
	}
	return m, nil
}

func (r *MemeRepo) Create(ctx context.Context, nm domain.NewMeme) (*domain.Meme, error) {
	tags := nm.Tags
	if tags == nil {
		tags = []string{}
	}

	m, err := scanMeme(r.pool.QueryRow(ctx, `
		WITH m AS (
			INSERT INTO memes (user_id, title, description, image_url, tags)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING *
		)
		SELECT `+memeColumns+` FROM m JOIN users u ON u.id = m.user_id`,
		nm.OwnerID, nm.Title, nm.Description, nm.ImageURL, tags))
	if err != nil {
		if mapped := mapConstraintError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to create meme: %w", err)
	}
	return m, nil
}

func (r *MemeRepo) Update(ctx context.Context, memeID, ownerID uuid.UUID, patch domain.MemePatch) (*domain.Meme, error) {
	m, err := scanMeme(r.pool.QueryRow(ctx, `
		WITH m AS (
			UPDATE memes SET
				title       = COALESCE($3, title),
				description = COALESCE($4, description),
				image_url   = COALESCE($5, image_url),
				tags        = COALESCE($6::text[], tags),
				updated_at  = NOW()
			WHERE id = $1 AND user_id = $2
			RETURNING *
		)
		SELECT `+memeColumns+` FROM m JOIN users u ON u.id = m.user_id`,
		memeID, ownerID, patch.Title, patch.Description, patch.ImageURL, patch.Tags))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMemeNotFound
	}
	if err != nil {
		if mapped := mapConstraintError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to update meme: %w", err)
	}
	return m, nil
}

// Delete removes the meme; comments, votes and meme-of-the-day rows cascade.
func (r *MemeRepo) Delete(ctx context.Context, memeID, ownerID uuid.UUID) (*domain.Meme, error) {
	m, err := scanMeme(r.pool.QueryRow(ctx, `
		WITH m AS (
			DELETE FROM memes WHERE id = $1 AND user_id = $2 RETURNING *
		)
		SELECT `+memeColumns+` FROM m JOIN users u ON u.id = m.user_id`,
		memeID, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMemeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete meme: %w", err)
	}
	return m, nil
}

func (r *MemeRepo) OwnerOf(ctx context.Context, memeID uuid.UUID) (uuid.UUID, error) {
	var ownerID uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT user_id FROM memes WHERE id = $1`, memeID).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, domain.ErrMemeNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to get meme owner: %w", err)
	}
	return ownerID, nil
}

// sinceArg turns a zero time into NULL, which the queries read as "no lower bound".
func sinceArg(since time.Time) *time.Time {
	if since.IsZero() {
		return nil
	}
	return &since
}

func (r *MemeRepo) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM memes WHERE $1::timestamptz IS NULL OR created_at >= $1`,
		sinceArg(since)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count memes: %w", err)
	}
	return n, nil
}

func (r *MemeRepo) NthCreatedSince(ctx context.Context, since time.Time, n int) (*domain.Meme, error) {
	m, err := scanMeme(r.pool.QueryRow(ctx, `
		SELECT `+memeColumns+`
		FROM memes m JOIN users u ON u.id = m.user_id
		WHERE $1::timestamptz IS NULL OR m.created_at >= $1
		ORDER BY m.created_at, m.id
		OFFSET $2 LIMIT 1`,
		sinceArg(since), n))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMemeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meme by offset: %w", err)
	}
	return m, nil
}
