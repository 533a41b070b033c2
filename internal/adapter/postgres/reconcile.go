package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/memeboard/internal/domain"
)

type Reconciler struct {
	pool   *pgxpool.Pool
	dryRun bool
}

var _ domain.CounterReconciler = (*Reconciler)(nil)

func NewReconciler(pool *pgxpool.Pool) *Reconciler {
	return &Reconciler{pool: pool}
}

// DryRun returns a reconciler that reports drifted memes but rolls its repair back.
func (r *Reconciler) DryRun() *Reconciler {
	return &Reconciler{pool: r.pool, dryRun: true}
}

// ReconcileCounters rewrites every meme whose counters differ from its live
// vote and comment rows and returns how many memes changed.
func (r *Reconciler) ReconcileCounters(ctx context.Context) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		WITH actual AS (
			SELECT m.id,
				COALESCE(v.up, 0)   AS up,
				COALESCE(v.down, 0) AS down,
				COALESCE(c.n, 0)    AS comments
			FROM memes m
			LEFT JOIN (
				SELECT meme_id,
					COUNT(*) FILTER (WHERE type = 'upvote')   AS up,
					COUNT(*) FILTER (WHERE type = 'downvote') AS down
				FROM votes GROUP BY meme_id
			) v ON v.meme_id = m.id
			LEFT JOIN (
				SELECT meme_id, COUNT(*) AS n FROM comments GROUP BY meme_id
			) c ON c.meme_id = m.id
		)
		UPDATE memes m SET
			upvotes        = a.up,
			downvotes      = a.down,
			comments_count = a.comments
		FROM actual a
		WHERE m.id = a.id
			AND (m.upvotes, m.downvotes, m.comments_count) IS DISTINCT FROM (a.up::int, a.down::int, a.comments::int)`)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile counters: %w", err)
	}

	if r.dryRun {
		return int(tag.RowsAffected()), nil
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
