package memory

import (
	"context"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/pscheid92/memeboard/internal/domain"
)

var _ domain.EngagementStore = (*Store)(nil)

type snapshot struct {
	memes    map[uuid.UUID]domain.Meme
	comments map[uuid.UUID]domain.Comment
	votes    map[voteKey]domain.Vote
}

func (s *Store) snapshot() snapshot {
	memes := make(map[uuid.UUID]domain.Meme, len(s.memes))
	for id, m := range s.memes {
		m.Tags = slices.Clone(m.Tags)
		memes[id] = m
	}
	return snapshot{
		memes:    memes,
		comments: maps.Clone(s.comments),
		votes:    maps.Clone(s.votes),
	}
}

func (s *Store) restore(snap snapshot) {
	s.memes = snap.memes
	s.comments = snap.comments
	s.votes = snap.votes
}

// WithinTx runs fn while holding the store lock. Any error restores the state
// from before the call.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.EngagementTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snap := s.snapshot()
	if err := fn(&engagementTx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	if err := s.fault("Commit"); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// engagementTx operates on a Store whose lock is already held.
type engagementTx struct {
	s *Store
}

func (tx *engagementTx) LockVote(_ context.Context, userID, memeID uuid.UUID) (*domain.Vote, error) {
	if err := tx.s.fault("LockVote"); err != nil {
		return nil, err
	}
	v, ok := tx.s.votes[voteKey{userID: userID, memeID: memeID}]
	if !ok {
		return nil, domain.ErrVoteNotFound
	}
	return &v, nil
}

func (tx *engagementTx) InsertVote(_ context.Context, v domain.Vote) error {
	if err := tx.s.fault("InsertVote"); err != nil {
		return err
	}
	if _, ok := tx.s.memes[v.MemeID]; !ok {
		return domain.ErrMemeNotFound
	}
	if _, ok := tx.s.users[v.UserID]; !ok {
		return domain.ErrUserNotFound
	}
	key := voteKey{userID: v.UserID, memeID: v.MemeID}
	if _, ok := tx.s.votes[key]; ok {
		return domain.ErrVoteConflict
	}
	tx.s.votes[key] = v
	return nil
}

func (tx *engagementTx) UpdateVoteType(_ context.Context, userID, memeID uuid.UUID, t domain.VoteType) error {
	if err := tx.s.fault("UpdateVoteType"); err != nil {
		return err
	}
	key := voteKey{userID: userID, memeID: memeID}
	v, ok := tx.s.votes[key]
	if !ok {
		return domain.ErrVoteNotFound
	}
	v.Type = t
	v.UpdatedAt = tx.s.clock.Now().UTC()
	tx.s.votes[key] = v
	return nil
}

func (tx *engagementTx) DeleteVote(_ context.Context, userID, memeID uuid.UUID) error {
	if err := tx.s.fault("DeleteVote"); err != nil {
		return err
	}
	key := voteKey{userID: userID, memeID: memeID}
	if _, ok := tx.s.votes[key]; !ok {
		return domain.ErrVoteNotFound
	}
	delete(tx.s.votes, key)
	return nil
}

func (tx *engagementTx) InsertComment(_ context.Context, memeID, ownerID uuid.UUID, content string) (*domain.Comment, error) {
	if err := tx.s.fault("InsertComment"); err != nil {
		return nil, err
	}
	if _, ok := tx.s.memes[memeID]; !ok {
		return nil, domain.ErrMemeNotFound
	}
	if _, ok := tx.s.users[ownerID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	now := tx.s.clock.Now().UTC()
	c := domain.Comment{
		ID:        uuid.New(),
		MemeID:    memeID,
		Owner:     domain.Owner{ID: ownerID},
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	tx.s.comments[c.ID] = c
	c.Owner = tx.s.owner(ownerID)
	return &c, nil
}

func (tx *engagementTx) DeleteComment(_ context.Context, memeID, commentID, ownerID uuid.UUID) error {
	if err := tx.s.fault("DeleteComment"); err != nil {
		return err
	}
	c, ok := tx.s.comments[commentID]
	if !ok || c.MemeID != memeID || c.Owner.ID != ownerID {
		return domain.ErrCommentNotFound
	}
	delete(tx.s.comments, commentID)
	return nil
}

func (tx *engagementTx) AdjustCounters(_ context.Context, memeID uuid.UUID, delta domain.CounterDelta) (*domain.Meme, error) {
	if err := tx.s.fault("AdjustCounters"); err != nil {
		return nil, err
	}
	m, ok := tx.s.memes[memeID]
	if !ok {
		return nil, domain.ErrMemeNotFound
	}
	m.Upvotes += delta.Upvotes
	m.Downvotes += delta.Downvotes
	m.CommentsCount += delta.Comments
	if m.Upvotes < 0 || m.Downvotes < 0 || m.CommentsCount < 0 {
		return nil, errNegativeCounter
	}
	tx.s.memes[memeID] = m
	return tx.s.project(m), nil
}
