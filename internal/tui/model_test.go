package tui

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/okian/spotrank/internal/adapters/repository"
	service "github.com/okian/spotrank/internal/app"
	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/internal/domain/session"
	"github.com/okian/spotrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type flakyStore struct {
	*repository.MemoryStore
	down atomic.Bool
}

func (f *flakyStore) ReplaceRankings(ctx context.Context, user string, items []model.RankedItem) ([]model.RankedItem, error) {
	if f.down.Load() {
		return nil, errors.New("disk full")
	}
	return f.MemoryStore.ReplaceRankings(ctx, user, items)
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	left  = tea.KeyMsg{Type: tea.KeyLeft}
)

// send applies msg and then every message its commands produce.
func send(m Model, msg tea.Msg) Model {
	next, cmd := m.Update(msg)
	m = next.(Model)
	return drain(m, cmd)
}

func drain(m Model, cmd tea.Cmd) Model {
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = drain(m, c)
		}
	case tea.QuitMsg:
	case listMsg, stepMsg, errMsg, cancelledMsg, suggestionsMsg:
		m = send(m, msg)
	}
	return m
}

func addSpot(m Model, name string, keys ...tea.KeyMsg) Model {
	m = send(m, runes("a"))
	m = send(m, runes(name))
	m = send(m, enter)
	for _, k := range keys {
		m = send(m, k)
	}
	return m
}

func TestModel(t *testing.T) {
	Convey("Given a terminal client over a running service", t, func() {
		ctx := context.Background()
		store := &flakyStore{MemoryStore: repository.NewMemoryStore(repository.WithSeeds(
			repository.Seed{Name: "Lakeside Park"},
		))}
		svc := service.New(service.WithStore(store), service.WithWorkerCount(1))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		m := New(ctx, svc, "alex")
		m = drain(m, m.Init())

		Convey("Then an empty list invites the user to add", func() {
			So(m.entries, ShouldBeEmpty)
			So(m.View(), ShouldContainSubstring, "Nothing ranked yet")
		})

		Convey("When Library is added as good", func() {
			m = addSpot(m, "Library", runes("g"))

			Convey("Then it is listed at the good midpoint", func() {
				So(m.view, ShouldBeNil)
				So(m.entries, ShouldHaveLength, 1)
				So(m.entries[0].Score, ShouldAlmostEqual, 8.33, 0.02)
				So(m.status, ShouldContainSubstring, "ranked Library #1")
				So(m.View(), ShouldContainSubstring, "Library")
			})

			Convey("When Cafe is added as good", func() {
				m = addSpot(m, "Cafe", runes("g"))

				Convey("Then a comparison is shown", func() {
					So(m.view, ShouldNotBeNil)
					So(m.view.Phase, ShouldEqual, session.PhaseComparing)
					So(m.View(), ShouldContainSubstring, "Which do you prefer?")
				})

				Convey("And Cafe is preferred", func() {
					m = send(m, left)

					Convey("Then Cafe leads the list", func() {
						So(m.view, ShouldBeNil)
						So(m.entries[0].Name, ShouldEqual, "Cafe")
						So(m.entries[0].Score, ShouldAlmostEqual, 10, 0.02)
						So(m.cursor, ShouldEqual, 0)
					})

					Convey("And Cafe is re-ranked as bad", func() {
						m = send(m, runes("e"))
						So(m.view.EditingOf, ShouldEqual, "Cafe")
						So(m.View(), ShouldContainSubstring, "Re-rank")
						m = send(m, runes("b"))

						Convey("Then Library is back on top", func() {
							So(m.entries[0].Name, ShouldEqual, "Library")
							So(m.entries[1].Score, ShouldAlmostEqual, 1.67, 0.02)
						})
					})

					Convey("And the selected item is deleted", func() {
						m = send(m, runes("d"))

						Convey("Then only Library remains", func() {
							So(m.entries, ShouldHaveLength, 1)
							So(m.entries[0].Name, ShouldEqual, "Library")
						})
					})
				})

				Convey("And the session is cancelled", func() {
					m = send(m, esc)

					Convey("Then the list is unchanged", func() {
						So(m.view, ShouldBeNil)
						So(m.status, ShouldEqual, "cancelled")
						So(m.entries, ShouldHaveLength, 1)
					})
				})
			})

			Convey("When the same name is submitted", func() {
				m = addSpot(m, "library")

				Convey("Then the duplicate error is shown", func() {
					So(errors.Is(m.err, session.ErrDuplicateItem), ShouldBeTrue)
					So(m.view, ShouldBeNil)
				})
			})
		})

		Convey("When the add form is open", func() {
			m = send(m, runes("a"))
			m = send(m, runes("lake"))

			Convey("Then catalog suggestions are offered and tab completes", func() {
				So(m.typing, ShouldBeTrue)
				So(m.View(), ShouldContainSubstring, "Lakeside Park")
				m = send(m, tea.KeyMsg{Type: tea.KeyTab})
				So(m.input.Value(), ShouldEqual, "Lakeside Park")
			})

			Convey("Then q is typed rather than quitting", func() {
				m = send(m, runes("q"))
				So(m.input.Value(), ShouldEqual, "lakeq")
			})

			Convey("Then esc closes the form", func() {
				m = send(m, esc)
				So(m.typing, ShouldBeFalse)
			})
		})

		Convey("When the store fails during a commit", func() {
			store.down.Store(true)
			m = addSpot(m, "Library", runes("g"))

			Convey("Then the session waits for a retry", func() {
				So(m.view, ShouldNotBeNil)
				So(m.view.Phase, ShouldEqual, session.PhaseCommitting)
				So(m.persistenceFailed(), ShouldBeTrue)
				So(m.View(), ShouldContainSubstring, "Press r to retry")
			})

			Convey("And retry succeeds once the store recovers", func() {
				store.down.Store(false)
				m = send(m, runes("r"))
				So(m.view, ShouldBeNil)
				So(m.entries, ShouldHaveLength, 1)
			})
		})

		Convey("When q is pressed", func() {
			_, cmd := m.Update(runes("q"))

			Convey("Then the program quits", func() {
				So(cmd, ShouldNotBeNil)
				_, ok := cmd().(tea.QuitMsg)
				So(ok, ShouldBeTrue)
			})
		})
	})
}
