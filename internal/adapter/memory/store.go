// Package memory is an in-process implementation of the domain repositories.
// Engagement units are serialized and rolled back from a snapshot on error.
// It backs unit tests and local runs without PostgreSQL.
package memory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/memeboard/internal/domain"
)

type voteKey struct {
	userID uuid.UUID
	memeID uuid.UUID
}

// Store holds all entities. Use Users, Memes, Comments and MemesOfTheDay for
// the repository views; Store itself is the EngagementStore and CounterReconciler.
type Store struct {
	mu    sync.Mutex
	clock clockwork.Clock

	users    map[uuid.UUID]domain.User
	memes    map[uuid.UUID]domain.Meme
	comments map[uuid.UUID]domain.Comment
	votes    map[voteKey]domain.Vote
	motd     map[string]domain.MemeOfTheDay

	faults map[string]error
}

func NewStore(clock clockwork.Clock) *Store {
	return &Store{
		clock:    clock,
		users:    make(map[uuid.UUID]domain.User),
		memes:    make(map[uuid.UUID]domain.Meme),
		comments: make(map[uuid.UUID]domain.Comment),
		votes:    make(map[voteKey]domain.Vote),
		motd:     make(map[string]domain.MemeOfTheDay),
		faults:   make(map[string]error),
	}
}

func (s *Store) Users() *UserRepo                 { return &UserRepo{s} }
func (s *Store) Memes() *MemeRepo                 { return &MemeRepo{s} }
func (s *Store) Comments() *CommentRepo           { return &CommentRepo{s} }
func (s *Store) MemesOfTheDay() *MemeOfTheDayRepo { return &MemeOfTheDayRepo{s} }

// FailNext makes the next call of the named operation (e.g. "AdjustCounters") return err.
func (s *Store) FailNext(operation string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[operation] = err
}

// fault must be called with mu held.
func (s *Store) fault(operation string) error {
	err, ok := s.faults[operation]
	if !ok {
		return nil
	}
	delete(s.faults, operation)
	return err
}

func (s *Store) owner(userID uuid.UUID) domain.Owner {
	return domain.Owner{ID: userID, Username: s.users[userID].Username}
}

func (s *Store) project(m domain.Meme) *domain.Meme {
	m.Owner = s.owner(m.Owner.ID)
	m.Tags = slices.Clone(m.Tags)
	return &m
}

func (s *Store) deleteMemeLocked(memeID uuid.UUID) {
	delete(s.memes, memeID)
	maps.DeleteFunc(s.comments, func(_ uuid.UUID, c domain.Comment) bool { return c.MemeID == memeID })
	maps.DeleteFunc(s.votes, func(k voteKey, _ domain.Vote) bool { return k.memeID == memeID })
	maps.DeleteFunc(s.motd, func(_ string, d domain.MemeOfTheDay) bool { return d.MemeID == memeID })
}

// DeleteUser removes a user together with their memes, comments and votes.
// Counters of other memes are left as they are; ReconcileCounters repairs them.
func (s *Store) DeleteUser(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, userID)
	for id, m := range s.memes {
		if m.Owner.ID == userID {
			s.deleteMemeLocked(id)
		}
	}
	maps.DeleteFunc(s.comments, func(_ uuid.UUID, c domain.Comment) bool { return c.Owner.ID == userID })
	maps.DeleteFunc(s.votes, func(k voteKey, _ domain.Vote) bool { return k.userID == userID })
}

// CorruptCounters overwrites a meme's counters without touching any rows.
func (s *Store) CorruptCounters(memeID uuid.UUID, up, down, comments int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.memes[memeID]
	if !ok {
		return false
	}
	m.Upvotes, m.Downvotes, m.CommentsCount = up, down, comments
	s.memes[memeID] = m
	return true
}

// CountVotes reports live vote rows of t for memeID.
func (s *Store) CountVotes(memeID uuid.UUID, t domain.VoteType) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, v := range s.votes {
		if k.memeID == memeID && v.Type == t {
			n++
		}
	}
	return n
}

// CountComments reports live comment rows for memeID.
func (s *Store) CountComments(memeID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, c := range s.comments {
		if c.MemeID == memeID {
			n++
		}
	}
	return n
}

var _ domain.CounterReconciler = (*Store)(nil)

func (s *Store) ReconcileCounters(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[uuid.UUID]domain.CounterDelta, len(s.memes))
	for k, v := range s.votes {
		want[k.memeID] = want[k.memeID].Add(domain.DeltaFor(v.Type, 1))
	}
	for _, c := range s.comments {
		want[c.MemeID] = want[c.MemeID].Add(domain.CounterDelta{Comments: 1})
	}

	fixed := 0
	for id, m := range s.memes {
		w := want[id]
		if m.Upvotes == w.Upvotes && m.Downvotes == w.Downvotes && m.CommentsCount == w.Comments {
			continue
		}
		m.Upvotes, m.Downvotes, m.CommentsCount = w.Upvotes, w.Downvotes, w.Comments
		s.memes[id] = m
		fixed++
	}
	return fixed, nil
}

func sortByCreation[T any](items []T, created func(T) time.Time, id func(T) uuid.UUID) {
	sort.Slice(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if ci.Equal(cj) {
			return strings.Compare(id(items[i]).String(), id(items[j]).String()) < 0
		}
		return ci.Before(cj)
	})
}

var errNegativeCounter = errors.New("counter would become negative")
