package session

import (
	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/internal/domain/search"
	"github.com/okian/spotrank/internal/domain/tier"
)

// Phase names a session state.
type Phase string

// Phases in the order a session passes through them.
const (
	PhaseViewing       Phase = "viewing"
	PhaseAdding        Phase = "adding"
	PhaseTierSelection Phase = "tier_selection"
	PhaseComparing     Phase = "comparing"
	PhaseCommitting    Phase = "committing"
)

// State is one of Viewing, Adding, TierSelection, Comparing or Committing.
type State interface {
	Phase() Phase
}

// Viewing is the idle state: the list is shown and nothing is pending.
type Viewing struct{}

// Adding waits for the user to describe a new item.
type Adding struct{}

// TierSelection waits for the user to pick a tier for Candidate.
type TierSelection struct {
	Candidate model.Candidate
	// EditingOf is the name of the item being re-ranked, empty for additions.
	EditingOf string
}

// Comparing asks the user to compare Item with the tier peer at Search.Probe().
type Comparing struct {
	Item model.RankedItem
	// Peers are the absolute positions of the same-tier items in the working list.
	Peers  []int
	Search search.Search
}

// Committing holds a resolved placement until the store accepts it.
type Committing struct {
	Item  model.RankedItem
	Index int
}

func (Viewing) Phase() Phase       { return PhaseViewing }
func (Adding) Phase() Phase        { return PhaseAdding }
func (TierSelection) Phase() Phase { return PhaseTierSelection }
func (Comparing) Phase() Phase     { return PhaseComparing }
func (Committing) Phase() Phase    { return PhaseCommitting }

// Event drives a Transition.
type Event interface {
	event()
}

// StartAdd opens the add form.
type StartAdd struct{}

// SubmitCandidate proposes a new item.
type SubmitCandidate struct {
	Candidate model.Candidate
}

// StartEdit re-ranks an existing item. A nil Notes keeps the current notes.
type StartEdit struct {
	Name  string
	Notes *string
}

// SelectTier places the candidate in a tier.
type SelectTier struct {
	Tier tier.Tier
}

// PreferNew answers a comparison in favour of the new item.
type PreferNew struct{}

// PreferExisting answers a comparison in favour of the already-ranked item.
type PreferExisting struct{}

// Cancel abandons the session.
type Cancel struct{}

// Committed reports that the store accepted the proposed list. Items is the
// list as adopted after the commit.
type Committed struct {
	Items []model.RankedItem
}

func (StartAdd) event()        {}
func (SubmitCandidate) event() {}
func (StartEdit) event()       {}
func (SelectTier) event()      {}
func (PreferNew) event()       {}
func (PreferExisting) event()  {}
func (Cancel) event()          {}
func (Committed) event()       {}
