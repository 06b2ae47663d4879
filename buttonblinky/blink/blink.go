// Package blink drives an LED whose blink period steps down every time the
// button is pressed and wraps back to the slowest rate once it bottoms out.
package blink

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"time"
)

// Blink delay bounds in milliseconds. The LED is held high and then low
// for the delay each cycle.
const (
	MaxDelay  uint32 = 400
	MinDelay  uint32 = 50
	DelayStep uint32 = 50
)

// NextDelay returns the delay that follows d in the press cycle
// 400, 350, ... 100, 50, 400.
func NextDelay(d uint32) uint32 {
	if d <= MinDelay {
		return MaxDelay
	}
	return d - DelayStep
}

// LED is the output line the controller blinks.
// machine.Pin satisfies it.
type LED interface {
	High()
	Low()
}

// Presses reports whether the button was pressed since it was last asked.
type Presses interface {
	Take() bool
}

// Notifier is told about every new delay after a press is observed.
// DelayChanged runs on the main loop and must not block.
type Notifier interface {
	DelayChanged(delay uint32)
}

// Config holds what a Controller drives and reports to.
type Config struct {
	LED     LED
	Presses Presses
	// Logger receives the press diagnostics. Nil discards them.
	Logger *slog.Logger
	// Sleep blocks for the given duration. Defaults to time.Sleep.
	Sleep func(time.Duration)
	// Notifiers are additional sinks for delay changes (display, telemetry).
	Notifiers []Notifier
}

// Controller is the main control loop. All of its state is owned by the
// goroutine calling Run; only the Presses source is shared with interrupt
// context.
type Controller struct {
	led       LED
	presses   Presses
	logger    *slog.Logger
	sleep     func(time.Duration)
	notifiers []Notifier
	delay     uint32
}

// New returns a controller at MaxDelay with the LED driven low.
func New(cfg Config) (*Controller, error) {
	if cfg.LED == nil {
		return nil, errors.New("blink: nil LED")
	}
	if cfg.Presses == nil {
		return nil, errors.New("blink: nil press source")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(127),
		}))
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	c := &Controller{
		led:       cfg.LED,
		presses:   cfg.Presses,
		logger:    logger,
		sleep:     sleep,
		notifiers: cfg.Notifiers,
		delay:     MaxDelay,
	}
	c.led.Low()
	return c, nil
}

// Delay returns the current blink delay in milliseconds.
func (c *Controller) Delay() uint32 { return c.delay }

// Poll consumes a pending press, if any, and advances the delay by one
// step. It reports whether the delay changed.
func (c *Controller) Poll() bool {
	if !c.presses.Take() {
		return false
	}
	c.delay = NextDelay(c.delay)
	c.logger.Info("Button pressed with a delay of: " + strconv.FormatUint(uint64(c.delay), 10))
	for _, n := range c.notifiers {
		n.DelayChanged(c.delay)
	}
	return true
}

// Blink runs one full cycle at the current delay: wait, LED high, wait,
// LED low.
func (c *Controller) Blink() {
	d := time.Duration(c.delay) * time.Millisecond
	c.sleep(d)
	c.led.High()
	c.sleep(d)
	c.led.Low()
}

// Run polls and blinks forever.
func (c *Controller) Run() {
	for {
		c.Poll()
		c.Blink()
	}
}
