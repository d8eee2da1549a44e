package ranklist_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/internal/domain/ranklist"
	"github.com/okian/spotrank/internal/domain/tier"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeStore struct {
	mu       sync.Mutex
	items    map[string][]model.RankedItem
	fail     error
	replaces int
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: map[string][]model.RankedItem{}}
}

func (f *fakeStore) FetchRankings(_ context.Context, user string) ([]model.RankedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.RankedItem(nil), f.items[user]...), nil
}

func (f *fakeStore) ReplaceRankings(_ context.Context, user string, items []model.RankedItem) ([]model.RankedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaces++
	if f.fail != nil {
		return nil, f.fail
	}
	f.items[user] = append([]model.RankedItem(nil), items...)
	return append([]model.RankedItem(nil), items...), nil
}

func TestListLoad(t *testing.T) {
	Convey("Given a store holding stale scores", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		store.items["alex"] = []model.RankedItem{
			{Name: "Cafe", Tier: tier.Good, Score: 1},
			{Name: "Gym", Tier: tier.Bad, Score: 9},
		}
		l := ranklist.New("alex", store)

		Convey("When the list is loaded", func() {
			So(l.Load(ctx), ShouldBeNil)

			Convey("Then scores are recomputed from tier and order", func() {
				items := l.Items()
				So(items, ShouldHaveLength, 2)
				So(items[0].Score, ShouldAlmostEqual, 8.33, 0.02)
				So(items[1].Score, ShouldAlmostEqual, 1.67, 0.02)
			})

			Convey("Then lookups ignore case and padding", func() {
				So(l.Contains(" cafe "), ShouldBeTrue)
				So(l.Contains("Library"), ShouldBeFalse)
				it, ok := l.Find("GYM")
				So(ok, ShouldBeTrue)
				So(it.Name, ShouldEqual, "Gym")
			})
		})
	})
}

func TestListDropsDuplicateRows(t *testing.T) {
	Convey("Given a store returning case variants of one name", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		store.items["alex"] = []model.RankedItem{
			{Name: "Cafe", Tier: tier.Good, Score: 10, Notes: "first"},
			{Name: "Library", Tier: tier.Good, Score: 8},
			{Name: " cafe ", Tier: tier.Okay, Score: 5, Notes: "second"},
		}
		l := ranklist.New("alex", store)

		Convey("When the list is loaded", func() {
			So(l.Load(ctx), ShouldBeNil)

			Convey("Then only the best ranked row survives and scores are spread over the rest", func() {
				items := l.Items()
				So(items, ShouldHaveLength, 2)
				So(items[0].Name, ShouldEqual, "Cafe")
				So(items[0].Notes, ShouldEqual, "first")
				So(items[0].Score, ShouldAlmostEqual, 10, 0.02)
				So(items[1].Name, ShouldEqual, "Library")
				So(items[1].Score, ShouldAlmostEqual, 6.66, 0.02)
				So(l.Len(), ShouldEqual, 2)
				So(l.Contains("CAFE"), ShouldBeTrue)
			})
		})

		Convey("When a store echoes a duplicate after a commit", func() {
			echo := &echoStore{fakeStore: store, extra: model.RankedItem{Name: "LIBRARY", Tier: tier.Bad, Score: 1}}
			l := ranklist.New("alex", echo)
			out, err := l.Commit(ctx, []model.RankedItem{{Name: "Library", Tier: tier.Good}})

			Convey("Then the adopted list drops it too", func() {
				So(err, ShouldBeNil)
				So(out, ShouldHaveLength, 1)
				So(out[0].Tier, ShouldEqual, tier.Good)
			})
		})
	})
}

// echoStore appends extra to every echo.
type echoStore struct {
	*fakeStore
	extra model.RankedItem
}

func (e *echoStore) ReplaceRankings(ctx context.Context, user string, items []model.RankedItem) ([]model.RankedItem, error) {
	out, err := e.fakeStore.ReplaceRankings(ctx, user, items)
	return append(out, e.extra), err
}

func TestListCommit(t *testing.T) {
	Convey("Given an empty list", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		l := ranklist.New("alex", store)
		So(l.Load(ctx), ShouldBeNil)

		Convey("When committing two good items", func() {
			out, err := l.Commit(ctx, []model.RankedItem{
				{Name: "Cafe", Tier: tier.Good},
				{Name: "Library", Tier: tier.Good},
			})

			Convey("Then the list and the store hold the normalized result", func() {
				So(err, ShouldBeNil)
				So(out[0].Score, ShouldEqual, 10)
				So(out[1].Score, ShouldAlmostEqual, 6.67, 0.02)
				So(l.Items(), ShouldResemble, out)
				So(store.items["alex"], ShouldResemble, out)
			})

			Convey("And the store then fails", func() {
				store.fail = errors.New("disk full")
				before := l.Items()

				_, err := l.Commit(ctx, ranklist.InsertAt(before, 2, model.RankedItem{Name: "Gym", Tier: tier.Bad}))

				Convey("Then ErrPersistence wraps the cause and the list is unchanged", func() {
					So(errors.Is(err, ranklist.ErrPersistence), ShouldBeTrue)
					So(err.Error(), ShouldContainSubstring, "disk full")
					So(l.Items(), ShouldResemble, before)
					So(l.Contains("Gym"), ShouldBeFalse)
				})
			})
		})
	})
}

func TestListHelpers(t *testing.T) {
	Convey("Given a grouped list", t, func() {
		items := []model.RankedItem{
			{Name: "A", Tier: tier.Good},
			{Name: "B", Tier: tier.Good},
			{Name: "C", Tier: tier.Bad},
		}

		Convey("Then tier starts point at the first slot of each tier", func() {
			So(ranklist.TierStart(items, tier.Good), ShouldEqual, 0)
			So(ranklist.TierStart(items, tier.Okay), ShouldEqual, 2)
			So(ranklist.TierStart(items, tier.Bad), ShouldEqual, 2)
			So(ranklist.TierStart(nil, tier.Bad), ShouldEqual, 0)
		})

		Convey("Then peer positions list the tier members", func() {
			So(ranklist.PeerPositions(items, tier.Good), ShouldResemble, []int{0, 1})
			So(ranklist.PeerPositions(items, tier.Okay), ShouldBeEmpty)
		})

		Convey("Then Without removes by name and leaves the input alone", func() {
			out, ok := ranklist.Without(items, "b")
			So(ok, ShouldBeTrue)
			So(out, ShouldHaveLength, 2)
			So(out[1].Name, ShouldEqual, "C")
			So(items[1].Name, ShouldEqual, "B")

			_, ok = ranklist.Without(items, "Z")
			So(ok, ShouldBeFalse)
		})

		Convey("Then InsertAt clamps the index", func() {
			x := model.RankedItem{Name: "X"}
			So(ranklist.InsertAt(items, 1, x)[1].Name, ShouldEqual, "X")
			So(ranklist.InsertAt(items, -3, x)[0].Name, ShouldEqual, "X")
			So(ranklist.InsertAt(items, 99, x)[3].Name, ShouldEqual, "X")
			So(items, ShouldHaveLength, 3)
		})
	})
}
