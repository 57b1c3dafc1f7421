package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/tally/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("Then it starts empty", func() {
			So(d.Size(), ShouldEqual, 0)
		})

		Convey("When a message id is recorded twice", func() {
			first := d.SeenAndRecord(ctx, "msg-1")
			second := d.SeenAndRecord(ctx, "msg-1")

			Convey("Then only the second call reports it as seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a recorded id is unrecorded", func() {
			d.SeenAndRecord(ctx, "msg-1")
			d.Unrecord(ctx, "msg-1")
			d.Unrecord(ctx, "never-seen")

			Convey("Then it can be processed again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "msg-1"), ShouldBeFalse)
			})
		})

		Convey("When recording the empty id", func() {
			Convey("Then it is treated like any other id", func() {
				So(d.SeenAndRecord(ctx, ""), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, ""), ShouldBeTrue)
			})
		})
	})

	Convey("Given a deduper bounded to three ids", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, id := range []string{"m1", "m2", "m3"} {
			So(d.SeenAndRecord(ctx, id), ShouldBeFalse)
		}

		Convey("When a fourth id arrives", func() {
			So(d.SeenAndRecord(ctx, "m4"), ShouldBeFalse)

			Convey("Then the oldest id is forgotten and the rest are kept", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "m2"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "m3"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "m4"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "m1"), ShouldBeFalse)
			})
		})

		Convey("When an id is unrecorded before the cache fills", func() {
			d.Unrecord(ctx, "m2")
			So(d.SeenAndRecord(ctx, "m4"), ShouldBeFalse)

			Convey("Then the freed room is reused and nothing live is evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "m1"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "m3"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "m4"), ShouldBeTrue)
			})
		})
	})

	Convey("Given a full deduper whose oldest id was seen again", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))
		So(d.SeenAndRecord(ctx, "m1"), ShouldBeFalse)
		So(d.SeenAndRecord(ctx, "m2"), ShouldBeFalse)
		So(d.SeenAndRecord(ctx, "m1"), ShouldBeTrue)

		Convey("When a new id arrives", func() {
			So(d.SeenAndRecord(ctx, "m3"), ShouldBeFalse)

			Convey("Then the first arrival is still the one forgotten", func() {
				So(d.SeenAndRecord(ctx, "m2"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "m3"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 2)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

		Convey("When many ids are recorded", func() {
			const n = 1000
			for i := 0; i < n; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("msg-%d", i)), ShouldBeFalse)
			}

			Convey("Then none are evicted", func() {
				So(d.Size(), ShouldEqual, n)
				So(d.SeenAndRecord(ctx, "msg-0"), ShouldBeTrue)
				d.Unrecord(ctx, "msg-0")
				So(d.Size(), ShouldEqual, n-1)
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper with concurrent access", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const goroutines, perGoroutine = 10, 100

		Convey("When the same ids are recorded from many goroutines", func() {
			var (
				wg    sync.WaitGroup
				mu    sync.Mutex
				fresh int
			)
			for i := 0; i < goroutines; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < perGoroutine; j++ {
						if !d.SeenAndRecord(context.Background(), fmt.Sprintf("msg-%d", j)) {
							mu.Lock()
							fresh++
							mu.Unlock()
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then every id is recorded exactly once", func() {
				So(fresh, ShouldEqual, perGoroutine)
				So(d.Size(), ShouldEqual, perGoroutine)
			})
		})
	})
}
