package session

import (
	"time"

	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/internal/domain/search"
	"github.com/okian/spotrank/internal/domain/tier"
)

// Prompt describes the pending pairwise comparison.
type Prompt struct {
	Candidate string           `json:"candidate"`
	Opponent  model.RankedItem `json:"opponent"`
	// OpponentRank is the opponent's 1-based rank inside its tier.
	OpponentRank int       `json:"opponent_rank"`
	Tier         tier.Tier `json:"tier"`
	TierSize     int       `json:"tier_size"`
	Step         int       `json:"step"`
	MaxSteps     int       `json:"max_steps"`
}

// Prompt returns the pending comparison when the session is Comparing.
func (s Session) Prompt() (Prompt, bool) {
	st, ok := s.State.(Comparing)
	if !ok || st.Search.Done() {
		return Prompt{}, false
	}
	work := s.Working()
	probe := st.Search.Probe()
	return Prompt{
		Candidate:    st.Item.Name,
		Opponent:     work[st.Peers[probe]],
		OpponentRank: probe + 1,
		Tier:         st.Item.Tier,
		TierSize:     len(st.Peers),
		Step:         st.Search.Steps + 1,
		MaxSteps:     search.MaxComparisons(len(st.Peers)),
	}, true
}

// View is the read model of a session handed to front-ends.
type View struct {
	ID          string            `json:"id"`
	User        string            `json:"user"`
	Phase       Phase             `json:"phase"`
	EditingOf   string            `json:"editing_of,omitempty"`
	Candidate   *model.Candidate  `json:"candidate,omitempty"`
	Item        *model.RankedItem `json:"item,omitempty"`
	Prompt      *Prompt           `json:"prompt,omitempty"`
	Index       *int              `json:"index,omitempty"`
	Comparisons int               `json:"comparisons"`
	StartedAt   time.Time         `json:"started_at"`
}

// View builds the read model for s.
func (s Session) View() View {
	v := View{
		ID:          s.ID,
		User:        s.User,
		Phase:       s.Phase(),
		EditingOf:   s.EditingOf,
		Comparisons: s.Comparisons,
		StartedAt:   s.StartedAt,
	}
	switch st := s.State.(type) {
	case TierSelection:
		c := st.Candidate
		v.Candidate = &c
	case Comparing:
		it := st.Item
		v.Item = &it
		if p, ok := s.Prompt(); ok {
			v.Prompt = &p
		}
	case Committing:
		it := st.Item
		idx := st.Index
		v.Item = &it
		v.Index = &idx
	}
	return v
}
