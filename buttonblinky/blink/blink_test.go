package blink

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/harveysanders/buttonblinky/buttonblinky/press"
	. "github.com/smartystreets/goconvey/convey"
)

type recordingLED struct {
	levels []string
}

func (l *recordingLED) High() { l.levels = append(l.levels, "high") }
func (l *recordingLED) Low()  { l.levels = append(l.levels, "low") }

type nopLine struct{}

func (nopLine) ClearInterrupt() {}

type recordingNotifier struct {
	delays []uint32
}

func (n *recordingNotifier) DelayChanged(delay uint32) { n.delays = append(n.delays, delay) }

// rig wires a controller to an in-memory LED, latch, sleeper and log.
type rig struct {
	led      *recordingLED
	latch    *press.Latch
	notifier *recordingNotifier
	logs     *bytes.Buffer
	sleeps   []time.Duration
	// onSleep runs inside every sleep, standing in for interrupts that
	// fire while the loop is waiting.
	onSleep func()
	ctrl    *Controller
}

func newRig() *rig {
	r := &rig{
		led:      &recordingLED{},
		latch:    &press.Latch{},
		notifier: &recordingNotifier{},
		logs:     &bytes.Buffer{},
	}
	r.latch.Install(nopLine{})
	ctrl, err := New(Config{
		LED:     r.led,
		Presses: r.latch,
		Logger:  slog.New(slog.NewTextHandler(r.logs, nil)),
		Sleep: func(d time.Duration) {
			r.sleeps = append(r.sleeps, d)
			if r.onSleep != nil {
				r.onSleep()
			}
		},
		Notifiers: []Notifier{r.notifier},
	})
	if err != nil {
		panic(err)
	}
	r.ctrl = ctrl
	return r
}

func (r *rig) cycle() {
	r.ctrl.Poll()
	r.ctrl.Blink()
}

func TestNextDelay(t *testing.T) {
	Convey("The press cycle", t, func() {
		Convey("steps down by 50ms", func() {
			So(NextDelay(400), ShouldEqual, uint32(350))
			So(NextDelay(100), ShouldEqual, uint32(50))
		})

		Convey("wraps to the maximum at the bottom", func() {
			So(NextDelay(50), ShouldEqual, uint32(400))
		})

		Convey("repeats every eight presses", func() {
			d := MaxDelay
			for n := 0; n < 40; n++ {
				So(d, ShouldEqual, MaxDelay-DelayStep*uint32(n%8))
				So(d, ShouldBeBetweenOrEqual, MinDelay, MaxDelay)
				d = NextDelay(d)
			}
		})
	})
}

func TestNew(t *testing.T) {
	Convey("New", t, func() {
		Convey("rejects a missing LED", func() {
			_, err := New(Config{Presses: &press.Latch{}})
			So(err, ShouldNotBeNil)
		})

		Convey("rejects a missing press source", func() {
			_, err := New(Config{LED: &recordingLED{}})
			So(err, ShouldNotBeNil)
		})

		Convey("starts at the maximum delay with the LED low", func() {
			led := &recordingLED{}
			c, err := New(Config{LED: led, Presses: &press.Latch{}})
			So(err, ShouldBeNil)
			So(c.Delay(), ShouldEqual, MaxDelay)
			So(led.levels, ShouldResemble, []string{"low"})
		})
	})
}

func TestController(t *testing.T) {
	Convey("Given a fresh controller", t, func() {
		r := newRig()

		Convey("polling with nothing pending changes nothing", func() {
			So(r.ctrl.Poll(), ShouldBeFalse)
			So(r.ctrl.Poll(), ShouldBeFalse)
			So(r.ctrl.Delay(), ShouldEqual, MaxDelay)
			So(r.logs.Len(), ShouldEqual, 0)
			So(r.notifier.delays, ShouldBeEmpty)
		})

		Convey("a blink cycle waits, drives high, waits, drives low", func() {
			r.ctrl.Blink()
			So(r.sleeps, ShouldResemble, []time.Duration{400 * time.Millisecond, 400 * time.Millisecond})
			So(r.led.levels, ShouldResemble, []string{"low", "high", "low"})
		})

		Convey("a press steps the delay to 350ms and reports it", func() {
			r.latch.Edge()
			r.cycle()

			So(r.ctrl.Delay(), ShouldEqual, uint32(350))
			So(r.logs.String(), ShouldContainSubstring, "Button pressed with a delay of: 350")
			So(r.notifier.delays, ShouldResemble, []uint32{350})
			So(r.sleeps, ShouldResemble, []time.Duration{350 * time.Millisecond, 350 * time.Millisecond})

			Convey("and keeps blinking at 350ms until the next press", func() {
				r.cycle()
				r.cycle()
				So(r.sleeps[2:], ShouldResemble, []time.Duration{
					350 * time.Millisecond, 350 * time.Millisecond,
					350 * time.Millisecond, 350 * time.Millisecond,
				})
				So(strings.Count(r.logs.String(), "Button pressed"), ShouldEqual, 1)
			})
		})

		Convey("eight presses come back around to 400ms", func() {
			var seen []uint32
			for i := 0; i < 8; i++ {
				r.latch.Edge()
				r.cycle()
				seen = append(seen, r.ctrl.Delay())
			}
			So(seen, ShouldResemble, []uint32{350, 300, 250, 200, 150, 100, 50, 400})
			So(r.notifier.delays, ShouldResemble, seen)
		})

		Convey("edges during one blink collapse into a single step", func() {
			r.onSleep = func() {
				r.latch.Edge()
				r.latch.Edge()
				r.latch.Edge()
			}
			r.cycle()
			So(r.ctrl.Delay(), ShouldEqual, MaxDelay)

			r.onSleep = nil
			r.cycle()
			So(r.ctrl.Delay(), ShouldEqual, uint32(350))

			r.cycle()
			So(r.ctrl.Delay(), ShouldEqual, uint32(350))
			So(r.notifier.delays, ShouldResemble, []uint32{350})
		})

		Convey("without presses it blinks at 400ms and never logs", func() {
			for i := 0; i < 10; i++ {
				r.cycle()
			}
			for _, d := range r.sleeps {
				So(d, ShouldEqual, 400*time.Millisecond)
			}
			So(len(r.sleeps), ShouldEqual, 20)
			So(r.logs.Len(), ShouldEqual, 0)
		})
	})

	Convey("At the minimum delay a press wraps to the maximum", t, func() {
		r := newRig()
		for r.ctrl.Delay() != MinDelay {
			r.latch.Edge()
			r.ctrl.Poll()
		}
		r.latch.Edge()
		So(r.ctrl.Poll(), ShouldBeTrue)
		So(r.ctrl.Delay(), ShouldEqual, MaxDelay)
		So(r.logs.String(), ShouldContainSubstring, "Button pressed with a delay of: 400")
	})
}
