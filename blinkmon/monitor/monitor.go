// Package monitor follows a buttonblinky board over its USB serial console
// and keeps track of the blink delay as the button is pressed.
package monitor

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"
)

// Monitor reads firmware output and feeds it to a Tracker.
type Monitor struct {
	cfg    *Config
	logger *slog.Logger

	mu      sync.Mutex
	tracker *Tracker
}

// New creates a new monitor.
func New(cfg *Config, logger *slog.Logger) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return &Monitor{
		cfg:     cfg,
		logger:  logger,
		tracker: NewTracker(),
	}, nil
}

// Stats returns what the monitor has seen so far.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tracker.Stats()
}

// maxLineLen is the longest firmware line kept. Longer lines are dropped.
const maxLineLen = 4096

// Run opens the serial port and watches it. It blocks until the given
// context is canceled or the port fails.
func (m *Monitor) Run(ctx context.Context) error {
	port, err := serial.Open(m.cfg.Device, &serial.Mode{
		BaudRate: m.cfg.Baud,
	})
	if err != nil {
		return errors.Wrap(err, "failed to open serial port")
	}
	defer port.Close()

	timeout := serial.NoTimeout
	if m.cfg.ReadTimeout > 0 {
		timeout = time.Duration(m.cfg.ReadTimeout)
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		return errors.Wrap(err, "failed to set read timeout")
	}

	lines := make(chan string, 16)

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		<-ctx.Done()
		m.logger.Debug("closing serial port")
		// Closing unblocks a pending read.
		if err := port.Close(); err != nil {
			return errors.Wrap(err, "failed to close serial port")
		}
		return ctx.Err()
	})
	errg.Go(func() error {
		if err := m.readLines(ctx, port, lines); err != nil {
			return err
		}
		return errors.New("serial port closed")
	})
	errg.Go(func() error {
		return m.consume(ctx, lines)
	})

	return errg.Wait()
}

// Watch consumes firmware output from r line by line until r is exhausted
// or ctx is canceled.
func (m *Monitor) Watch(ctx context.Context, r io.Reader) error {
	lines := make(chan string, 16)

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		return m.readLines(ctx, r, lines)
	})
	errg.Go(func() error {
		return m.consume(ctx, lines)
	})
	return errg.Wait()
}

// readLines splits r into lines and sends them on lines, which it closes
// when done. A read that returns no data and no error is a read timeout and
// is retried. A trailing line without a newline is sent at EOF.
func (m *Monitor) readLines(ctx context.Context, r io.Reader, lines chan<- string) error {
	defer close(lines)

	var (
		buf     [256]byte
		pending []byte
		skip    bool
	)
	send := func(line []byte) error {
		select {
		case lines <- strings.TrimRight(string(line), "\r"):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := r.Read(buf[:])
		for _, b := range buf[:n] {
			if b != '\n' {
				if len(pending) < maxLineLen {
					pending = append(pending, b)
				} else {
					skip = true
				}
				continue
			}
			if skip {
				m.logger.Debug("dropped overlong line", "max", maxLineLen)
			} else if err := send(pending); err != nil {
				return err
			}
			pending, skip = pending[:0], false
		}

		switch {
		case err == io.EOF:
			if len(pending) > 0 && !skip {
				return send(pending)
			}
			return nil
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return errors.Wrap(err, "failed to read firmware output")
		}
	}
}

// consume runs every line through the parser until lines is closed.
func (m *Monitor) consume(ctx context.Context, lines <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if m.cfg.Echo {
				m.logger.Debug("firmware", "line", line)
			}
			if ev, ok := ParseLine(line); ok {
				m.handle(ev)
			}
		}
	}
}

func (m *Monitor) handle(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch ev.Kind {
	case BootEvent:
		m.tracker.Boot(ev.Delay)
		m.logger.Info(
			"board booted",
			"delay_ms", ev.Delay,
			"boots", m.tracker.Stats().Boots)

	case PressEvent:
		o := m.tracker.Observe(ev.Delay)
		if o.Missed() > 0 {
			m.logger.Warn(
				"press reports missing",
				"from_ms", o.Previous,
				"to_ms", o.Delay,
				"missed", o.Missed())
		}
		m.logger.Info(
			"delay changed",
			"delay_ms", o.Delay,
			"wrapped", o.Wrapped,
			"presses", m.tracker.Stats().Presses)
	}
}
