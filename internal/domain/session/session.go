// Package session implements the ranking session state machine. Transition
// is pure: it never touches a store, so the caller owns the commit.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/spotrank/internal/domain/dedupe"
	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/internal/domain/ranklist"
	"github.com/okian/spotrank/internal/domain/search"
	"github.com/okian/spotrank/internal/domain/tier"
)

// Session is one add or edit interaction over a snapshot of the user's list.
type Session struct {
	ID   string
	User string
	// Base is the canonical list the session started from. It is never
	// modified; edits work on Base without the edited item.
	Base []model.RankedItem
	// EditingOf names the item being re-ranked, empty for additions.
	EditingOf   string
	State       State
	Comparisons int
	StartedAt   time.Time
}

// New starts a session in Viewing over a copy of base.
func New(user string, base []model.RankedItem) Session {
	return Session{
		ID:        uuid.NewString(),
		User:      user,
		Base:      ranklist.Clone(base),
		State:     Viewing{},
		StartedAt: time.Now(),
	}
}

// Phase returns the current phase.
func (s Session) Phase() Phase {
	if s.State == nil {
		return PhaseViewing
	}
	return s.State.Phase()
}

// Active reports whether the session holds unfinished work.
func (s Session) Active() bool {
	return s.Phase() != PhaseViewing
}

// Working is the list the candidate is placed into: Base, minus the edited item.
func (s Session) Working() []model.RankedItem {
	if s.EditingOf == "" {
		return ranklist.Clone(s.Base)
	}
	out, _ := ranklist.Without(s.Base, s.EditingOf)
	return out
}

// Proposed is the list that would be committed: the working list with the
// candidate at its resolved index once the session is Committing.
func (s Session) Proposed() []model.RankedItem {
	work := s.Working()
	if c, ok := s.State.(Committing); ok {
		return ranklist.InsertAt(work, c.Index, c.Item)
	}
	return work
}

// Transition applies ev to s. On error s is returned unchanged.
func Transition(b tier.Bounds, s Session, ev Event) (Session, error) {
	switch st := s.State.(type) {
	case nil, Viewing:
		return fromViewing(s, ev)
	case Adding:
		return fromAdding(s, ev)
	case TierSelection:
		return fromTierSelection(b, s, st, ev)
	case Comparing:
		return fromComparing(s, st, ev)
	case Committing:
		return fromCommitting(s, ev)
	default:
		return s, invalid(s, ev)
	}
}

func fromViewing(s Session, ev Event) (Session, error) {
	switch e := ev.(type) {
	case StartAdd:
		s.EditingOf = ""
		s.Comparisons = 0
		s.State = Adding{}
		return s, nil
	case StartEdit:
		idx := ranklist.IndexOf(s.Base, e.Name)
		if idx < 0 {
			return s, fmt.Errorf("%w: %q", ErrItemNotFound, e.Name)
		}
		item := s.Base[idx]
		notes := item.Notes
		if e.Notes != nil {
			notes = *e.Notes
		}
		s.EditingOf = item.Name
		s.Comparisons = 0
		s.State = TierSelection{
			Candidate: model.Candidate{Name: item.Name, Notes: notes, PhotoURL: item.PhotoURL}.Normalize(),
			EditingOf: item.Name,
		}
		return s, nil
	default:
		return s, invalid(s, ev)
	}
}

func fromAdding(s Session, ev Event) (Session, error) {
	switch e := ev.(type) {
	case SubmitCandidate:
		c, err := Validate(s.Working(), e.Candidate)
		if err != nil {
			return s, err
		}
		s.State = TierSelection{Candidate: c}
		return s, nil
	case Cancel:
		return cancel(s), nil
	default:
		return s, invalid(s, ev)
	}
}

func fromTierSelection(b tier.Bounds, s Session, st TierSelection, ev Event) (Session, error) {
	switch e := ev.(type) {
	case SelectTier:
		if !e.Tier.Valid() {
			return s, fmt.Errorf("%w: %d", tier.ErrUnknownTier, int(e.Tier))
		}
		work := s.Working()
		item := model.RankedItem{
			Name:     st.Candidate.Name,
			Tier:     e.Tier,
			Score:    b.Midpoint(e.Tier),
			Notes:    st.Candidate.Notes,
			PhotoURL: st.Candidate.PhotoURL,
		}
		peers := ranklist.PeerPositions(work, e.Tier)
		if len(peers) == 0 {
			s.State = Committing{Item: item, Index: ranklist.TierStart(work, e.Tier)}
			return s, nil
		}
		s.State = Comparing{Item: item, Peers: peers, Search: search.New(len(peers))}
		return s, nil
	case Cancel:
		return cancel(s), nil
	default:
		return s, invalid(s, ev)
	}
}

func fromComparing(s Session, st Comparing, ev Event) (Session, error) {
	switch ev.(type) {
	case PreferNew:
		st.Search = st.Search.PreferNew()
	case PreferExisting:
		st.Search = st.Search.PreferExisting()
	case Cancel:
		return cancel(s), nil
	default:
		return s, invalid(s, ev)
	}
	s.Comparisons++
	if st.Search.Done() {
		s.State = Committing{Item: st.Item, Index: st.Peers[0] + st.Search.Index()}
		return s, nil
	}
	s.State = st
	return s, nil
}

func fromCommitting(s Session, ev Event) (Session, error) {
	switch e := ev.(type) {
	case Committed:
		s.Base = ranklist.Clone(e.Items)
		s.EditingOf = ""
		s.State = Viewing{}
		return s, nil
	case Cancel:
		return cancel(s), nil
	default:
		return s, invalid(s, ev)
	}
}

func cancel(s Session) Session {
	s.EditingOf = ""
	s.Comparisons = 0
	s.State = Viewing{}
	return s
}

func invalid(s Session, ev Event) error {
	return fmt.Errorf("%w: %T in %s", ErrInvalidTransition, ev, s.Phase())
}

// Validate trims c and checks it against the items it would join.
func Validate(items []model.RankedItem, c model.Candidate) (model.Candidate, error) {
	c = c.Normalize()
	if c.Name == "" {
		return c, ErrEmptyName
	}
	for _, it := range items {
		if dedupe.Same(it.Name, c.Name) {
			return c, fmt.Errorf("%w: %q", ErrDuplicateItem, it.Name)
		}
	}
	return c, nil
}
