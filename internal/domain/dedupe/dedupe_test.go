package dedupe_test

import (
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/spotrank/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestKey(t *testing.T) {
	Convey("Given names that differ only in case and padding", t, func() {
		So(dedupe.Key("  Blue Bottle "), ShouldEqual, "blue bottle")
		So(dedupe.Same("CAFE", " cafe"), ShouldBeTrue)
		So(dedupe.Same("Cafe", "Café"), ShouldBeFalse)
	})
}

func TestNameSet(t *testing.T) {
	Convey("Given a name set seeded with two names", t, func() {
		s := dedupe.NewNameSet("Cafe", "Library", "  ")

		Convey("Then blank names are ignored", func() {
			So(s.Len(), ShouldEqual, 2)
		})

		Convey("When checking another spelling", func() {
			So(s.Has(" CAFE "), ShouldBeTrue)
			So(s.Has("Gym"), ShouldBeFalse)
		})

		Convey("When adding a duplicate spelling", func() {
			added := s.Add("cafe")

			Convey("Then it is rejected and the first spelling is kept", func() {
				So(added, ShouldBeFalse)
				name, ok := s.Canonical("CAFE")
				So(ok, ShouldBeTrue)
				So(name, ShouldEqual, "Cafe")
			})
		})

		Convey("When removing by another spelling", func() {
			So(s.Remove("library"), ShouldBeTrue)
			So(s.Remove("library"), ShouldBeFalse)
			So(s.Len(), ShouldEqual, 1)
		})
	})
}

func TestNameSetConcurrency(t *testing.T) {
	Convey("Given concurrent adders racing on the same names", t, func() {
		s := dedupe.NewNameSet()
		var wg sync.WaitGroup
		var mu sync.Mutex
		added := 0

		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					if s.Add(fmt.Sprintf("Spot %d", i)) {
						mu.Lock()
						added++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then every name is added exactly once", func() {
			So(added, ShouldEqual, 50)
			So(s.Len(), ShouldEqual, 50)
		})
	})
}
