package tier_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/okian/spotrank/internal/domain/tier"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Given tier names", t, func() {
		for in, want := range map[string]tier.Tier{"good": tier.Good, " OKAY ": tier.Okay, "Bad": tier.Bad} {
			got, err := tier.Parse(in)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, want)
		}

		_, err := tier.Parse("great")
		So(errors.Is(err, tier.ErrUnknownTier), ShouldBeTrue)
	})
}

func TestTierJSON(t *testing.T) {
	Convey("Given a struct carrying a tier", t, func() {
		type wrap struct {
			Tier tier.Tier `json:"tier"`
		}

		b, err := json.Marshal(wrap{Tier: tier.Okay})
		So(err, ShouldBeNil)
		So(string(b), ShouldEqual, `{"tier":"okay"}`)

		var w wrap
		So(json.Unmarshal([]byte(`{"tier":"good"}`), &w), ShouldBeNil)
		So(w.Tier, ShouldEqual, tier.Good)

		So(json.Unmarshal([]byte(`{"tier":"meh"}`), &w), ShouldNotBeNil)
		_, err = json.Marshal(wrap{Tier: tier.Tier(7)})
		So(err, ShouldNotBeNil)
	})
}

func TestDefaultBounds(t *testing.T) {
	Convey("Given the default bounds", t, func() {
		b := tier.DefaultBounds()
		So(b.Validate(), ShouldBeNil)

		Convey("Then sub-ranges are ordered and disjoint", func() {
			badLo, badHi := b.Range(tier.Bad)
			okLo, okHi := b.Range(tier.Okay)
			goodLo, goodHi := b.Range(tier.Good)

			So(badLo, ShouldAlmostEqual, 0.01)
			So(badHi, ShouldBeLessThan, okLo)
			So(okHi, ShouldBeLessThan, goodLo)
			So(goodHi, ShouldEqual, 10)
		})

		Convey("Then midpoints match the provisional scores", func() {
			So(b.Midpoint(tier.Good), ShouldAlmostEqual, 8.33, 0.01)
			So(b.Midpoint(tier.Okay), ShouldAlmostEqual, 5.0, 0.01)
			So(b.Midpoint(tier.Bad), ShouldAlmostEqual, 1.67, 0.01)
		})

		Convey("Then every range maps back to its tier", func() {
			for _, tr := range tier.All {
				lo, hi := b.Range(tr)
				So(b.TierOf(lo), ShouldEqual, tr)
				So(b.TierOf(hi), ShouldEqual, tr)
				So(b.TierOf(b.Midpoint(tr)), ShouldEqual, tr)
			}
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given broken bounds", t, func() {
		cases := []tier.Bounds{
			{LowCut: 5, HighCut: 4, Headroom: 0.01},
			{LowCut: 0, HighCut: 6, Headroom: 0.01},
			{LowCut: 3, HighCut: 11, Headroom: 0.01},
			{LowCut: 3, HighCut: 6, Headroom: -1},
			{LowCut: 3, HighCut: 6, Headroom: 2},
		}
		for _, b := range cases {
			So(errors.Is(b.Validate(), tier.ErrInvalidTierBoundary), ShouldBeTrue)
		}

		Convey("Then a good range with no width is rejected", func() {
			b := tier.Bounds{LowCut: 10.0 / 3, HighCut: 10, Headroom: 0.01}
			err := b.Validate()
			So(errors.Is(err, tier.ErrInvalidTierBoundary), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "good range is empty")
		})

		Convey("Then single-point bad and okay ranges are rejected", func() {
			So(errors.Is(tier.Bounds{LowCut: 2, HighCut: 6, Headroom: 1}.Validate(), tier.ErrInvalidTierBoundary), ShouldBeTrue)
			So(errors.Is(tier.Bounds{LowCut: 3, HighCut: 3.2, Headroom: 0.1}.Validate(), tier.ErrInvalidTierBoundary), ShouldBeTrue)
		})

		Convey("Then non-finite cuts are rejected", func() {
			for _, b := range []tier.Bounds{
				{LowCut: math.NaN(), HighCut: 6, Headroom: 0.01},
				{LowCut: 3, HighCut: math.NaN(), Headroom: 0.01},
				{LowCut: 3, HighCut: 6, Headroom: math.NaN()},
				{LowCut: 3, HighCut: math.Inf(1), Headroom: 0.01},
				{LowCut: math.Inf(-1), HighCut: 6, Headroom: 0.01},
			} {
				So(errors.Is(b.Validate(), tier.ErrInvalidTierBoundary), ShouldBeTrue)
			}
		})
	})
}

func TestGrade(t *testing.T) {
	Convey("Given scores across the axis", t, func() {
		So(tier.Grade(10), ShouldEqual, "S")
		So(tier.Grade(8.33), ShouldEqual, "A")
		So(tier.Grade(7), ShouldEqual, "B")
		So(tier.Grade(6.5), ShouldEqual, "C")
		So(tier.Grade(5), ShouldEqual, "D")
		So(tier.Grade(1.67), ShouldEqual, "F")
	})
}
