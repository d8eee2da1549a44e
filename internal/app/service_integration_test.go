package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/spotrank/internal/adapters/repository"
	service "github.com/okian/spotrank/internal/app"
	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/internal/domain/ranklist"
	"github.com/okian/spotrank/internal/domain/search"
	"github.com/okian/spotrank/internal/domain/session"
	"github.com/okian/spotrank/internal/domain/tier"
	"github.com/okian/spotrank/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

const scoreTolerance = 0.02

var errStoreDown = errors.New("store unavailable")

// flakyStore fails ReplaceRankings while failing is set.
type flakyStore struct {
	*repository.MemoryStore
	failing atomic.Bool
}

func (f *flakyStore) ReplaceRankings(ctx context.Context, user string, items []model.RankedItem) ([]model.RankedItem, error) {
	if f.failing.Load() {
		return nil, errStoreDown
	}
	return f.MemoryStore.ReplaceRankings(ctx, user, items)
}

func newRunningService(opts ...service.Option) *service.Service {
	opts = append([]service.Option{service.WithWorkerCount(2), service.WithQueueSize(64)}, opts...)
	svc := service.New(opts...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

// addSpot ranks name into t, answering every comparison with preferNew.
func addSpot(ctx context.Context, svc *service.Service, user, name string, t tier.Tier, preferNew bool) service.Step {
	_, err := svc.BeginAdd(ctx, user, model.Candidate{Name: name})
	So(err, ShouldBeNil)
	step, err := svc.SelectTier(ctx, user, t)
	So(err, ShouldBeNil)
	for step.Session.Phase == session.PhaseComparing {
		step, err = svc.Choose(ctx, user, preferNew)
		So(err, ShouldBeNil)
	}
	return step
}

func names(entries []types.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestServiceRankingFlow(t *testing.T) {
	Convey("Given a running service with an empty list", t, func() {
		svc := newRunningService()
		defer svc.Stop()
		ctx := context.Background()

		Convey("When Library is added as good", func() {
			step := addSpot(ctx, svc, "alex", "Library", tier.Good, true)

			Convey("Then it is committed at the good midpoint without comparisons", func() {
				So(step.Session.Phase, ShouldEqual, session.PhaseViewing)
				So(step.Session.Comparisons, ShouldEqual, 0)
				So(step.Rank, ShouldEqual, 1)
				So(step.Committed, ShouldNotBeNil)
				So(step.Committed.Score, ShouldAlmostEqual, 8.33, scoreTolerance)
				So(step.Rankings, ShouldHaveLength, 1)
			})

			Convey("And Cafe is added as good and preferred", func() {
				_, err := svc.BeginAdd(ctx, "alex", model.Candidate{Name: "Cafe", Notes: "  oat latte  "})
				So(err, ShouldBeNil)
				step, err := svc.SelectTier(ctx, "alex", tier.Good)
				So(err, ShouldBeNil)

				Convey("Then the user is asked to compare against Library", func() {
					So(step.Session.Phase, ShouldEqual, session.PhaseComparing)
					So(step.Session.Prompt, ShouldNotBeNil)
					So(step.Session.Prompt.Candidate, ShouldEqual, "Cafe")
					So(step.Session.Prompt.Opponent.Name, ShouldEqual, "Library")
				})

				Convey("When Cafe is preferred", func() {
					step, err = svc.Choose(ctx, "alex", true)
					So(err, ShouldBeNil)

					Convey("Then Cafe leads at 10 and Library drops to the bottom of good", func() {
						So(step.Rank, ShouldEqual, 1)
						So(step.Session.Comparisons, ShouldEqual, 1)
						So(names(step.Rankings), ShouldResemble, []string{"Cafe", "Library"})
						So(step.Rankings[0].Score, ShouldAlmostEqual, 10, scoreTolerance)
						So(step.Rankings[1].Score, ShouldAlmostEqual, 6.66, scoreTolerance)
						So(step.Rankings[0].Notes, ShouldEqual, "oat latte")
					})

					Convey("When Cafe is re-ranked as bad", func() {
						step, err := svc.BeginEdit(ctx, "alex", "cafe", nil)
						So(err, ShouldBeNil)
						So(step.Session.EditingOf, ShouldEqual, "Cafe")
						So(step.Session.Phase, ShouldEqual, session.PhaseTierSelection)

						step, err = svc.SelectTier(ctx, "alex", tier.Bad)
						So(err, ShouldBeNil)

						Convey("Then Library regains the midpoint and Cafe sits in bad", func() {
							So(names(step.Rankings), ShouldResemble, []string{"Library", "Cafe"})
							So(step.Rankings[0].Score, ShouldAlmostEqual, 8.33, scoreTolerance)
							So(step.Rankings[1].Score, ShouldAlmostEqual, 1.67, scoreTolerance)
							So(step.Rankings[1].Tier, ShouldEqual, tier.Bad)
							So(step.Rankings[1].Notes, ShouldEqual, "oat latte")
						})
					})

					Convey("When Cafe is deleted and added back the same way", func() {
						entries, err := svc.Delete(ctx, "alex", "Cafe")
						So(err, ShouldBeNil)
						So(names(entries), ShouldResemble, []string{"Library"})
						So(entries[0].Score, ShouldAlmostEqual, 8.33, scoreTolerance)

						again := addSpot(ctx, svc, "alex", "Cafe", tier.Good, true)

						Convey("Then the scores are reproduced", func() {
							So(names(again.Rankings), ShouldResemble, []string{"Cafe", "Library"})
							So(again.Rankings[0].Score, ShouldAlmostEqual, 10, scoreTolerance)
							So(again.Rankings[1].Score, ShouldAlmostEqual, 6.66, scoreTolerance)
						})
					})
				})
			})

			Convey("And the same name is added again", func() {
				_, err := svc.BeginAdd(ctx, "alex", model.Candidate{Name: "  library "})

				Convey("Then it is rejected as a duplicate and no session opens", func() {
					So(errors.Is(err, session.ErrDuplicateItem), ShouldBeTrue)
					_, err = svc.Current(ctx, "alex")
					So(errors.Is(err, service.ErrNoActiveSession), ShouldBeTrue)
				})
			})

			Convey("And a blank name is submitted", func() {
				_, err := svc.BeginAdd(ctx, "alex", model.Candidate{Name: "   "})

				Convey("Then it is rejected", func() {
					So(errors.Is(err, session.ErrEmptyName), ShouldBeTrue)
				})
			})
		})
	})
}

func TestServiceSessionRules(t *testing.T) {
	Convey("Given a running service with Library ranked", t, func() {
		svc := newRunningService()
		defer svc.Stop()
		ctx := context.Background()
		addSpot(ctx, svc, "alex", "Library", tier.Good, true)

		Convey("When a session is open", func() {
			_, err := svc.BeginAdd(ctx, "alex", model.Candidate{Name: "Park"})
			So(err, ShouldBeNil)

			Convey("Then a second session is refused", func() {
				step, err := svc.BeginAdd(ctx, "alex", model.Candidate{Name: "Museum"})
				So(errors.Is(err, service.ErrSessionInProgress), ShouldBeTrue)
				So(step.Session.Candidate.Name, ShouldEqual, "Park")

				_, err = svc.BeginEdit(ctx, "alex", "Library", nil)
				So(errors.Is(err, service.ErrSessionInProgress), ShouldBeTrue)

				_, err = svc.Delete(ctx, "alex", "Library")
				So(errors.Is(err, service.ErrSessionInProgress), ShouldBeTrue)
			})

			Convey("Then other users are unaffected", func() {
				step := addSpot(ctx, svc, "sam", "Museum", tier.Okay, true)
				So(step.Committed.Score, ShouldAlmostEqual, 5.0, scoreTolerance)
			})

			Convey("Then choosing before selecting a tier is an invalid transition", func() {
				_, err := svc.Choose(ctx, "alex", true)
				So(errors.Is(err, session.ErrInvalidTransition), ShouldBeTrue)

				view, err := svc.Current(ctx, "alex")
				So(err, ShouldBeNil)
				So(view.Phase, ShouldEqual, session.PhaseTierSelection)
			})

			Convey("When it is cancelled mid-comparison", func() {
				step, err := svc.SelectTier(ctx, "alex", tier.Good)
				So(err, ShouldBeNil)
				So(step.Session.Phase, ShouldEqual, session.PhaseComparing)
				So(svc.Cancel(ctx, "alex"), ShouldBeNil)

				Convey("Then the list is exactly as before", func() {
					entries, err := svc.Rankings(ctx, "alex")
					So(err, ShouldBeNil)
					So(names(entries), ShouldResemble, []string{"Library"})
					So(entries[0].Score, ShouldAlmostEqual, 8.33, scoreTolerance)
				})

				Convey("Then there is nothing left to cancel", func() {
					So(errors.Is(svc.Cancel(ctx, "alex"), service.ErrNoActiveSession), ShouldBeTrue)
				})
			})
		})

		Convey("When an edit is cancelled", func() {
			_, err := svc.BeginEdit(ctx, "alex", "Library", nil)
			So(err, ShouldBeNil)
			So(svc.Cancel(ctx, "alex"), ShouldBeNil)

			Convey("Then the edited item is still ranked", func() {
				entries, err := svc.Rankings(ctx, "alex")
				So(err, ShouldBeNil)
				So(names(entries), ShouldResemble, []string{"Library"})
			})
		})

		Convey("When editing or deleting an unknown item", func() {
			_, editErr := svc.BeginEdit(ctx, "alex", "Nowhere", nil)
			_, delErr := svc.Delete(ctx, "alex", "Nowhere")

			Convey("Then the item is reported missing", func() {
				So(errors.Is(editErr, session.ErrItemNotFound), ShouldBeTrue)
				So(errors.Is(delErr, session.ErrItemNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestServiceComparisonBound(t *testing.T) {
	Convey("Given seven good items", t, func() {
		svc := newRunningService()
		defer svc.Stop()
		ctx := context.Background()
		for _, n := range []string{"A", "B", "C", "D", "E", "F", "G"} {
			addSpot(ctx, svc, "alex", n, tier.Good, false)
		}

		Convey("When an eighth good item is ranked last", func() {
			step := addSpot(ctx, svc, "alex", "H", tier.Good, false)

			Convey("Then it takes at most ceil(log2(8)) comparisons", func() {
				So(step.Session.Comparisons, ShouldBeLessThanOrEqualTo, search.MaxComparisons(7))
				So(step.Rank, ShouldEqual, 8)
				So(step.Rankings[7].Score, ShouldAlmostEqual, tier.DefaultBounds().HighCut, scoreTolerance)
			})
		})

		Convey("When an eighth good item is always preferred", func() {
			step := addSpot(ctx, svc, "alex", "Z", tier.Good, true)

			Convey("Then it lands first within the bound", func() {
				So(step.Session.Comparisons, ShouldBeLessThanOrEqualTo, search.MaxComparisons(7))
				So(step.Rank, ShouldEqual, 1)
				So(step.Committed.Score, ShouldAlmostEqual, 10, scoreTolerance)
			})
		})
	})
}

func TestServicePersistenceFailure(t *testing.T) {
	Convey("Given a service whose store starts failing", t, func() {
		store := &flakyStore{MemoryStore: repository.NewMemoryStore()}
		svc := newRunningService(service.WithStore(store))
		defer svc.Stop()
		ctx := context.Background()
		addSpot(ctx, svc, "alex", "Library", tier.Good, true)

		store.failing.Store(true)
		_, err := svc.BeginAdd(ctx, "alex", model.Candidate{Name: "Cafe"})
		So(err, ShouldBeNil)
		_, err = svc.SelectTier(ctx, "alex", tier.Good)
		So(err, ShouldBeNil)

		Convey("When the final comparison is answered", func() {
			step, err := svc.Choose(ctx, "alex", true)

			Convey("Then the commit fails and the session waits in committing", func() {
				So(errors.Is(err, ranklist.ErrPersistence), ShouldBeTrue)
				So(errors.Is(err, errStoreDown), ShouldBeTrue)
				So(step.Session.Phase, ShouldEqual, session.PhaseCommitting)
				So(*step.Session.Index, ShouldEqual, 0)
			})

			Convey("Then the canonical list is untouched", func() {
				entries, err := svc.Rankings(ctx, "alex")
				So(err, ShouldBeNil)
				So(names(entries), ShouldResemble, []string{"Library"})
			})

			Convey("When the store recovers and the commit is retried", func() {
				store.failing.Store(false)
				step, err := svc.Retry(ctx, "alex")

				Convey("Then the same placement is committed without new comparisons", func() {
					So(err, ShouldBeNil)
					So(step.Session.Comparisons, ShouldEqual, 1)
					So(names(step.Rankings), ShouldResemble, []string{"Cafe", "Library"})
					So(step.Rankings[0].Score, ShouldAlmostEqual, 10, scoreTolerance)

					stored, err := store.FetchRankings(ctx, "alex")
					So(err, ShouldBeNil)
					So(stored, ShouldHaveLength, 2)
				})
			})

			Convey("When the user gives up", func() {
				So(svc.Cancel(ctx, "alex"), ShouldBeNil)

				Convey("Then a new session can start", func() {
					store.failing.Store(false)
					_, err := svc.BeginAdd(ctx, "alex", model.Candidate{Name: "Park"})
					So(err, ShouldBeNil)
				})
			})
		})

		Convey("When retry is asked outside of committing", func() {
			_, err := svc.Retry(ctx, "alex")

			Convey("Then it is an invalid transition", func() {
				So(errors.Is(err, session.ErrInvalidTransition), ShouldBeTrue)
			})
		})
	})
}

func TestServiceSuggestionsAndFeed(t *testing.T) {
	Convey("Given a seeded catalog", t, func() {
		store := repository.NewMemoryStore(repository.WithSeeds(
			repository.Seed{Name: "Library", Category: "study"},
			repository.Seed{Name: "Lakeside Park", Category: "outdoors"},
			repository.Seed{Name: "Cafe", Category: "coffee"},
		))
		svc := newRunningService(service.WithStore(store), service.WithFeedSize(5))
		ctx := context.Background()
		addSpot(ctx, svc, "alex", "Library", tier.Good, true)

		Convey("When asking for suggestions", func() {
			spots, err := svc.Suggestions(ctx, "alex", "l", 0)
			So(err, ShouldBeNil)

			Convey("Then ranked spots are left out", func() {
				got := make([]string, len(spots))
				for i, sp := range spots {
					got[i] = sp.Name
				}
				So(got, ShouldContain, "Lakeside Park")
				So(got, ShouldNotContain, "Library")
			})
		})

		Convey("When the service stops after more activity", func() {
			addSpot(ctx, svc, "alex", "Cafe", tier.Okay, true)
			_, err := svc.Delete(ctx, "alex", "Cafe")
			So(err, ShouldBeNil)
			svc.Stop()

			Convey("Then the feed holds every activity, newest first", func() {
				feed := svc.Feed(10)
				So(feed, ShouldHaveLength, 3)
				So(feed[0].Kind, ShouldEqual, model.ActivityRemoved)
				So(feed[0].Item.Name, ShouldEqual, "Cafe")
				So(feed[2].Kind, ShouldEqual, model.ActivityAdded)
				So(feed[2].Item.Name, ShouldEqual, "Library")
				So(feed[2].Rank, ShouldEqual, 1)
				So(feed[0].At.After(time.Time{}), ShouldBeTrue)
			})
		})

		Reset(func() { svc.Stop() })
	})
}

func TestServiceReload(t *testing.T) {
	Convey("Given two services sharing one store", t, func() {
		store := repository.NewMemoryStore()
		first := newRunningService(service.WithStore(store))
		second := newRunningService(service.WithStore(store))
		defer first.Stop()
		defer second.Stop()
		ctx := context.Background()

		_, err := second.Rankings(ctx, "alex")
		So(err, ShouldBeNil)
		addSpot(ctx, first, "alex", "Library", tier.Good, true)

		Convey("When the second service reloads", func() {
			entries, err := second.Reload(ctx, "alex")

			Convey("Then it sees the other service's commit", func() {
				So(err, ShouldBeNil)
				So(names(entries), ShouldResemble, []string{"Library"})
			})
		})
	})
}
