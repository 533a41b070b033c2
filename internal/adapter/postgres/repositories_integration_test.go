package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/memeboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepo(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewUserRepo(pool)
	ctx := context.Background()

	alice, err := repo.Create(ctx, "Alice", "hash")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, alice.ID)

	_, err = repo.Create(ctx, "alice", "other")
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	byName, err := repo.GetByUsername(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)

	byID, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", byID.Username)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestMemeRepo_CreateAndGet(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewMemeRepo(pool)
	ctx := context.Background()
	alice := createUser(t, pool, "alice")

	m, err := repo.Create(ctx, domain.NewMeme{
		OwnerID:     alice.ID,
		Title:       "Success Kid",
		Description: "fist pump",
		ImageURL:    "/uploads/1-kid.png",
		Tags:        []string{"win", "baby"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Owner{ID: alice.ID, Username: "alice"}, m.Owner)
	assert.Equal(t, []string{"win", "baby"}, m.Tags)

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Title, got.Title)
	assert.Equal(t, "fist pump", got.Description)

	_, err = repo.Create(ctx, domain.NewMeme{OwnerID: alice.ID, Title: "dup", ImageURL: "/uploads/1-kid.png"})
	assert.ErrorIs(t, err, domain.ErrImageTaken)

	_, err = repo.Create(ctx, domain.NewMeme{OwnerID: uuid.New(), Title: "orphan", ImageURL: "/uploads/2.png"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrMemeNotFound)
}

func TestMemeRepo_List(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewMemeRepo(pool)
	ctx := context.Background()
	alice := createUser(t, pool, "alice")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	cat := createMeme(t, pool, alice.ID, "Grumpy Cat", "cats", "grumpy")
	dog := createMeme(t, pool, alice.ID, "Doge", "dogs")
	both := createMeme(t, pool, alice.ID, "100% Cat_Dog", "cats", "dogs")
	setCreatedAt(t, pool, cat.ID, base)
	setCreatedAt(t, pool, dog.ID, base.Add(time.Hour))
	setCreatedAt(t, pool, both.ID, base.Add(2*time.Hour))
	_, err := pool.Exec(ctx, `UPDATE memes SET upvotes = 5 WHERE id = $1`, dog.ID)
	require.NoError(t, err)

	query := func(mod func(q *domain.MemeQuery)) ([]uuid.UUID, int) {
		q := domain.MemeQuery{Page: 1, Limit: 10, Tags: []string{}, Match: domain.MatchAny, SortBy: domain.SortCreatedAt, Direction: domain.SortDesc}
		mod(&q)
		memes, total, err := repo.List(ctx, q)
		require.NoError(t, err)
		ids := make([]uuid.UUID, len(memes))
		for i, m := range memes {
			ids[i] = m.ID
		}
		return ids, total
	}

	ids, total := query(func(*domain.MemeQuery) {})
	assert.Equal(t, []uuid.UUID{both.ID, dog.ID, cat.ID}, ids)
	assert.Equal(t, 3, total)

	ids, _ = query(func(q *domain.MemeQuery) { q.Tags = []string{"cats", "dogs"}; q.Match = domain.MatchAll })
	assert.Equal(t, []uuid.UUID{both.ID}, ids)

	ids, _ = query(func(q *domain.MemeQuery) { q.Tags = []string{"grumpy", "dogs"} })
	assert.Equal(t, []uuid.UUID{both.ID, dog.ID, cat.ID}, ids)

	ids, _ = query(func(q *domain.MemeQuery) { q.Title = "cat" })
	assert.Equal(t, []uuid.UUID{both.ID, cat.ID}, ids)

	ids, _ = query(func(q *domain.MemeQuery) { q.Title = "100%" })
	assert.Equal(t, []uuid.UUID{both.ID}, ids, "wildcards in the filter match literally")

	ids, _ = query(func(q *domain.MemeQuery) { q.Title = "o_e" })
	assert.Empty(t, ids)

	ids, _ = query(func(q *domain.MemeQuery) { q.SortBy = domain.SortUpvotes })
	assert.Equal(t, dog.ID, ids[0])

	ids, total = query(func(q *domain.MemeQuery) { q.Limit = 2; q.Page = 2; q.Direction = domain.SortAsc })
	assert.Equal(t, []uuid.UUID{both.ID}, ids)
	assert.Equal(t, 3, total)

	ids, total = query(func(q *domain.MemeQuery) { q.Page = 5 })
	assert.Empty(t, ids)
	assert.Equal(t, 3, total)
}

func TestMemeRepo_UpdateDeleteOwnership(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewMemeRepo(pool)
	ctx := context.Background()
	alice := createUser(t, pool, "alice")
	bob := createUser(t, pool, "bob")
	m := createMeme(t, pool, alice.ID, "before", "old")

	title := "after"
	tags := []string{"new"}
	_, err := repo.Update(ctx, m.ID, bob.ID, domain.MemePatch{Title: &title})
	assert.ErrorIs(t, err, domain.ErrMemeNotFound)

	updated, err := repo.Update(ctx, m.ID, alice.ID, domain.MemePatch{Title: &title, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Title)
	assert.Equal(t, []string{"new"}, updated.Tags)
	assert.Equal(t, m.ImageURL, updated.ImageURL)

	owner, err := repo.OwnerOf(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, owner)

	_, err = repo.Delete(ctx, m.ID, bob.ID)
	assert.ErrorIs(t, err, domain.ErrMemeNotFound)

	deleted, err := repo.Delete(ctx, m.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ImageURL, deleted.ImageURL)

	_, err = repo.OwnerOf(ctx, m.ID)
	assert.ErrorIs(t, err, domain.ErrMemeNotFound)
}

func TestMemeRepo_CreatedSince(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewMemeRepo(pool)
	ctx := context.Background()
	alice := createUser(t, pool, "alice")
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	old := createMeme(t, pool, alice.ID, "old")
	recent := createMeme(t, pool, alice.ID, "recent")
	setCreatedAt(t, pool, old.ID, now.Add(-30*24*time.Hour))
	setCreatedAt(t, pool, recent.ID, now.Add(-24*time.Hour))

	n, err := repo.CountCreatedSince(ctx, now.Add(-14*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = repo.CountCreatedSince(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	m, err := repo.NthCreatedSince(ctx, time.Time{}, 0)
	require.NoError(t, err)
	assert.Equal(t, old.ID, m.ID)

	m, err = repo.NthCreatedSince(ctx, now.Add(-14*24*time.Hour), 0)
	require.NoError(t, err)
	assert.Equal(t, recent.ID, m.ID)

	_, err = repo.NthCreatedSince(ctx, time.Time{}, 2)
	assert.ErrorIs(t, err, domain.ErrMemeNotFound)
}

func TestCommentRepo(t *testing.T) {
	pool := setupTestDB(t)
	store := NewEngagementStore(pool)
	repo := NewCommentRepo(pool)
	ctx := context.Background()
	alice := createUser(t, pool, "alice")
	bob := createUser(t, pool, "bob")
	m := createMeme(t, pool, alice.ID, "meme")
	other := createMeme(t, pool, alice.ID, "other")

	var c *domain.Comment
	require.NoError(t, store.WithinTx(ctx, func(tx domain.EngagementTx) error {
		var err error
		c, err = tx.InsertComment(ctx, m.ID, bob.ID, "hello")
		return err
	}))
	assert.Equal(t, "bob", c.Owner.Username)

	comments, err := repo.ListByMeme(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, c.ID, comments[0].ID)

	empty, err := repo.ListByMeme(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = repo.ListByMeme(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrMemeNotFound)

	_, err = repo.Update(ctx, other.ID, c.ID, bob.ID, "wrong meme")
	assert.ErrorIs(t, err, domain.ErrCommentNotFound)
	_, err = repo.Update(ctx, m.ID, c.ID, alice.ID, "wrong owner")
	assert.ErrorIs(t, err, domain.ErrCommentNotFound)

	updated, err := repo.Update(ctx, m.ID, c.ID, bob.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	owner, err := repo.OwnerOf(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, owner)
}

func TestMemeOfTheDayRepo(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewMemeOfTheDayRepo(pool)
	ctx := context.Background()
	alice := createUser(t, pool, "alice")
	first := createMeme(t, pool, alice.ID, "first")
	second := createMeme(t, pool, alice.ID, "second")
	day := time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC)

	_, err := repo.GetByDay(ctx, day)
	assert.ErrorIs(t, err, domain.ErrMemeOfTheDayNotFound)

	created, err := repo.Create(ctx, day, first.ID)
	require.NoError(t, err)
	assert.Equal(t, day, created.Day)

	_, err = repo.Create(ctx, day, second.ID)
	assert.ErrorIs(t, err, domain.ErrMemeOfTheDayExists)

	got, err := repo.GetByDay(ctx, day.Add(15*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.MemeID)

	_, err = repo.Create(ctx, day.Add(24*time.Hour), uuid.New())
	assert.ErrorIs(t, err, domain.ErrMemeNotFound)

	_, err = NewMemeRepo(pool).Delete(ctx, first.ID, alice.ID)
	require.NoError(t, err)
	_, err = repo.GetByDay(ctx, day)
	assert.ErrorIs(t, err, domain.ErrMemeOfTheDayNotFound, "selection cascades with its meme")
}
