package press

import (
	"sync"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type fakeLine struct {
	acks atomic.Int64
}

func (f *fakeLine) ClearInterrupt() { f.acks.Add(1) }

func TestLatch(t *testing.T) {
	Convey("A latch with an installed line", t, func() {
		var l Latch
		line := &fakeLine{}
		l.Install(line)

		Convey("starts with nothing pending", func() {
			So(l.Take(), ShouldBeFalse)
			So(line.acks.Load(), ShouldEqual, int64(0))
		})

		Convey("an edge acknowledges the line and is taken once", func() {
			l.Edge()
			So(line.acks.Load(), ShouldEqual, int64(1))
			So(l.Take(), ShouldBeTrue)
			So(l.Take(), ShouldBeFalse)
		})

		Convey("several edges before a take coalesce into one press", func() {
			for i := 0; i < 5; i++ {
				l.Edge()
			}
			So(line.acks.Load(), ShouldEqual, int64(5))
			So(l.Take(), ShouldBeTrue)
			So(l.Take(), ShouldBeFalse)
		})

		Convey("installing a second line panics", func() {
			So(func() { l.Install(&fakeLine{}) }, ShouldPanic)
		})
	})

	Convey("An empty latch", t, func() {
		var l Latch

		Convey("panics on an edge", func() {
			So(func() { l.Edge() }, ShouldPanic)
		})

		Convey("panics on a nil line", func() {
			So(func() { l.Install(nil) }, ShouldPanic)
		})

		Convey("still reports nothing pending", func() {
			So(l.Take(), ShouldBeFalse)
		})
	})
}

func TestLatchConcurrentEdges(t *testing.T) {
	Convey("Edges racing with takes", t, func() {
		var l Latch
		line := &fakeLine{}
		l.Install(line)

		const edges = 2000
		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < edges/4; i++ {
					l.Edge()
				}
			}()
		}

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		var taken int64
		unacked := false
	loop:
		for {
			select {
			case <-done:
				break loop
			default:
			}
			if l.Take() {
				taken++
				// Every observed press must already be acknowledged.
				if line.acks.Load() < taken {
					unacked = true
				}
			}
		}
		if l.Take() {
			taken++
		}

		So(unacked, ShouldBeFalse)
		So(line.acks.Load(), ShouldEqual, int64(edges))
		So(taken, ShouldBeBetweenOrEqual, int64(1), int64(edges))
		So(l.Take(), ShouldBeFalse)
	})
}
