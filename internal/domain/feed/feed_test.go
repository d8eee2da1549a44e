package feed_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/okian/spotrank/internal/domain/feed"
	"github.com/okian/spotrank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func activity(id string, at time.Time) model.Activity {
	return model.Activity{ID: id, User: "alex", Kind: model.ActivityAdded, At: at}
}

func TestFeed(t *testing.T) {
	Convey("Given a feed bounded to three entries", t, func() {
		ctx := context.Background()
		f := feed.New(feed.WithSize(3))
		t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

		Convey("When five activities are recorded in order", func() {
			for i := 0; i < 5; i++ {
				So(f.Record(ctx, activity(fmt.Sprintf("a%d", i), t0.Add(time.Duration(i)*time.Minute))), ShouldBeNil)
			}

			Convey("Then only the newest three remain, newest first", func() {
				recent := f.Recent(0)
				So(recent, ShouldHaveLength, 3)
				So(recent[0].ID, ShouldEqual, "a4")
				So(recent[2].ID, ShouldEqual, "a2")
			})

			Convey("Then limit trims the result", func() {
				So(f.Recent(1), ShouldHaveLength, 1)
				So(f.Recent(10), ShouldHaveLength, 3)
			})
		})

		Convey("When an older activity arrives late", func() {
			So(f.Record(ctx, activity("new", t0.Add(time.Hour))), ShouldBeNil)
			So(f.Record(ctx, activity("old", t0)), ShouldBeNil)

			Convey("Then it is placed by timestamp", func() {
				recent := f.Recent(0)
				So(recent[0].ID, ShouldEqual, "new")
				So(recent[1].ID, ShouldEqual, "old")
			})
		})

		Convey("When the same activity is recorded twice", func() {
			So(f.Record(ctx, activity("x", t0)), ShouldBeNil)
			So(f.Record(ctx, activity("x", t0)), ShouldBeNil)

			Convey("Then it appears once", func() {
				So(f.Len(), ShouldEqual, 1)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			So(f.Record(cctx, activity("y", t0)), ShouldNotBeNil)
			So(f.Len(), ShouldEqual, 0)
		})
	})
}
