package engagement

import (
	"fmt"

	"github.com/pscheid92/memeboard/internal/domain"
)

// VoteState is where a (user, meme) pair stands before a vote request.
type VoteState int

const (
	StateNone VoteState = iota
	StateUpvoted
	StateDownvoted
)

func (s VoteState) String() string {
	switch s {
	case StateUpvoted:
		return "upvoted"
	case StateDownvoted:
		return "downvoted"
	default:
		return "none"
	}
}

// StateOf maps an existing vote row (nil for none) to its state.
func StateOf(v *domain.Vote) VoteState {
	if v == nil {
		return StateNone
	}
	return stateFor(v.Type)
}

func stateFor(t domain.VoteType) VoteState {
	if t == domain.Upvote {
		return StateUpvoted
	}
	return StateDownvoted
}

type Action string

const (
	ActionCreate Action = "create"
	ActionRemove Action = "remove"
	ActionFlip   Action = "flip"
)

// Transition is the outcome of applying a vote request to a state: which row
// operation to run and how the meme counters move.
type Transition struct {
	From      VoteState
	To        VoteState
	Action    Action
	Requested domain.VoteType
	Delta     domain.CounterDelta
}

// Decide applies toggle semantics. Repeating the current vote removes it,
// the opposite vote flips it, and any vote on StateNone records it.
func Decide(from VoteState, requested domain.VoteType) Transition {
	target := stateFor(requested)
	t := Transition{From: from, Requested: requested}

	switch from {
	case StateNone:
		t.To = target
		t.Action = ActionCreate
		t.Delta = domain.DeltaFor(requested, 1)
	case target:
		t.To = StateNone
		t.Action = ActionRemove
		t.Delta = domain.DeltaFor(requested, -1)
	default:
		previous := domain.Upvote
		if from == StateDownvoted {
			previous = domain.Downvote
		}
		t.To = target
		t.Action = ActionFlip
		t.Delta = domain.DeltaFor(previous, -1).Add(domain.DeltaFor(requested, 1))
	}
	return t
}

// Message is the human-readable confirmation returned to the voter.
func (t Transition) Message() string {
	switch t.Action {
	case ActionRemove:
		return "Vote removed"
	case ActionFlip:
		return fmt.Sprintf("Vote updated to %s", t.Requested)
	default:
		return fmt.Sprintf("Vote recorded as %s", t.Requested)
	}
}
