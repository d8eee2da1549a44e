// Package tui is a terminal client that ranks spots for a single user.
package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/internal/domain/ranklist"
	"github.com/okian/spotrank/internal/domain/session"
	"github.com/okian/spotrank/internal/domain/tier"
	"github.com/okian/spotrank/internal/domain/types"
)

const maxSuggestions = 5

// Client is the part of the ranking service the terminal client drives.
type Client interface {
	Rankings(ctx context.Context, user string) ([]types.Entry, error)
	Reload(ctx context.Context, user string) ([]types.Entry, error)
	Suggestions(ctx context.Context, user, query string, limit int) ([]model.Spot, error)
	BeginAdd(ctx context.Context, user string, c model.Candidate) (types.Step, error)
	BeginEdit(ctx context.Context, user, name string, notes *string) (types.Step, error)
	SelectTier(ctx context.Context, user string, t tier.Tier) (types.Step, error)
	Choose(ctx context.Context, user string, preferNew bool) (types.Step, error)
	Retry(ctx context.Context, user string) (types.Step, error)
	Cancel(ctx context.Context, user string) error
	Delete(ctx context.Context, user, name string) ([]types.Entry, error)
}

// Messages produced by client calls.
type (
	listMsg        struct{ entries []types.Entry }
	stepMsg        struct{ step types.Step }
	cancelledMsg   struct{}
	suggestionsMsg struct{ spots []model.Spot }
	errMsg         struct {
		err  error
		view *session.View
	}
)

// Model is the bubbletea model of the terminal client.
type Model struct {
	ctx    context.Context
	client Client
	user   string

	entries []types.Entry
	cursor  int

	// typing is true while the add form is open. No service session exists
	// until the name is submitted.
	typing      bool
	input       textinput.Model
	suggestions []model.Spot

	view   *session.View
	status string
	err    error
	width  int
}

// New creates a Model for user backed by client.
func New(ctx context.Context, client Client, user string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Spot name..."
	ti.CharLimit = 120
	ti.Cursor.SetMode(cursor.CursorStatic)
	return Model{ctx: ctx, client: client, user: user, input: ti}
}

// Init loads the user's list.
func (m Model) Init() tea.Cmd {
	return m.loadList(false)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case listMsg:
		m.setEntries(msg.entries)
		return m, nil
	case suggestionsMsg:
		m.suggestions = msg.spots
		return m, nil
	case cancelledMsg:
		m.view = nil
		m.status = "cancelled"
		return m, nil
	case stepMsg:
		return m.applyStep(msg.step), nil
	case errMsg:
		m.err = msg.err
		if msg.view != nil && msg.view.ID != "" {
			v := *msg.view
			m.view = &v
		}
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) && (!m.typing || msg.String() == "ctrl+c") {
			return m, tea.Quit
		}
		m.err = nil
		if m.typing {
			return m.updateTyping(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateTyping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		m.typing = false
		m.input.Blur()
		return m, nil
	case key.Matches(msg, keys.Complete):
		if s := m.matches(); len(s) > 0 {
			m.input.SetValue(s[0].Name)
			m.input.CursorEnd()
		}
		return m, nil
	case key.Matches(msg, keys.Submit):
		name := strings.TrimSpace(m.input.Value())
		m.typing = false
		m.input.Blur()
		m.input.SetValue("")
		return m, m.call(func(ctx context.Context) (types.Step, error) {
			return m.client.BeginAdd(ctx, m.user, model.Candidate{Name: name})
		})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	phase := session.PhaseViewing
	if m.view != nil {
		phase = m.view.Phase
	}

	if phase != session.PhaseViewing && key.Matches(msg, keys.Back) {
		return m, m.cancel()
	}

	switch phase {
	case session.PhaseTierSelection:
		for _, b := range []struct {
			binding key.Binding
			tier    tier.Tier
		}{{keys.Good, tier.Good}, {keys.Okay, tier.Okay}, {keys.Bad, tier.Bad}} {
			if key.Matches(msg, b.binding) {
				t := b.tier
				return m, m.call(func(ctx context.Context) (types.Step, error) {
					return m.client.SelectTier(ctx, m.user, t)
				})
			}
		}
	case session.PhaseComparing:
		switch {
		case key.Matches(msg, keys.PreferNew):
			return m, m.choose(true)
		case key.Matches(msg, keys.PreferOld):
			return m, m.choose(false)
		}
	case session.PhaseCommitting:
		if key.Matches(msg, keys.Retry) {
			return m, m.call(func(ctx context.Context) (types.Step, error) {
				return m.client.Retry(ctx, m.user)
			})
		}
	default:
		return m.updateViewing(msg)
	}
	return m, nil
}

func (m Model) updateViewing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Add):
		m.typing = true
		m.status = ""
		focus := m.input.Focus()
		return m, tea.Batch(focus, m.loadSuggestions())
	case key.Matches(msg, keys.Edit):
		if name, ok := m.selected(); ok {
			return m, m.call(func(ctx context.Context) (types.Step, error) {
				return m.client.BeginEdit(ctx, m.user, name, nil)
			})
		}
	case key.Matches(msg, keys.Delete):
		if name, ok := m.selected(); ok {
			user, client := m.user, m.client
			ctx := m.ctx
			return m, func() tea.Msg {
				entries, err := client.Delete(ctx, user, name)
				if err != nil {
					return errMsg{err: err}
				}
				return listMsg{entries: entries}
			}
		}
	case key.Matches(msg, keys.Reload):
		return m, m.loadList(true)
	}
	return m, nil
}

func (m Model) applyStep(step types.Step) Model {
	m.err = nil
	if step.Session.Phase == session.PhaseViewing {
		m.view = nil
		if step.Committed != nil {
			m.status = "ranked " + step.Committed.Name + " #" + strconv.Itoa(step.Rank)
		}
		if step.Rankings != nil {
			m.setEntries(step.Rankings)
			if step.Rank > 0 {
				m.cursor = step.Rank - 1
			}
		}
		return m
	}
	v := step.Session
	m.view = &v
	m.status = ""
	return m
}

func (m *Model) setEntries(entries []types.Entry) {
	m.entries = entries
	if m.cursor >= len(entries) {
		m.cursor = len(entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return "", false
	}
	return m.entries[m.cursor].Name, true
}

// matches returns suggestions containing the typed text.
func (m Model) matches() []model.Spot {
	q := strings.ToLower(strings.TrimSpace(m.input.Value()))
	out := make([]model.Spot, 0, maxSuggestions)
	for _, s := range m.suggestions {
		if q == "" || strings.Contains(strings.ToLower(s.Name), q) {
			out = append(out, s)
			if len(out) == maxSuggestions {
				break
			}
		}
	}
	return out
}

func (m Model) call(fn func(ctx context.Context) (types.Step, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		step, err := fn(ctx)
		if err != nil {
			return errMsg{err: err, view: &step.Session}
		}
		return stepMsg{step: step}
	}
}

func (m Model) choose(preferNew bool) tea.Cmd {
	return m.call(func(ctx context.Context) (types.Step, error) {
		return m.client.Choose(ctx, m.user, preferNew)
	})
}

func (m Model) cancel() tea.Cmd {
	ctx, client, user := m.ctx, m.client, m.user
	return func() tea.Msg {
		if err := client.Cancel(ctx, user); err != nil {
			return errMsg{err: err}
		}
		return cancelledMsg{}
	}
}

func (m Model) loadList(reload bool) tea.Cmd {
	ctx, client, user := m.ctx, m.client, m.user
	return func() tea.Msg {
		var (
			entries []types.Entry
			err     error
		)
		if reload {
			entries, err = client.Reload(ctx, user)
		} else {
			entries, err = client.Rankings(ctx, user)
		}
		if err != nil {
			return errMsg{err: err}
		}
		return listMsg{entries: entries}
	}
}

func (m Model) loadSuggestions() tea.Cmd {
	ctx, client, user := m.ctx, m.client, m.user
	return func() tea.Msg {
		spots, err := client.Suggestions(ctx, user, "", 0)
		if err != nil {
			return errMsg{err: err}
		}
		return suggestionsMsg{spots: spots}
	}
}

// persistenceFailed reports whether the last error left a commit pending.
func (m Model) persistenceFailed() bool {
	return m.err != nil && errors.Is(m.err, ranklist.ErrPersistence)
}
