// Package lcd provides a channel-based messaging system for HD44780 LCD displays.
//
// Example usage:
//
//	lcdMessages := make(chan lcd.Message, 4)
//	handler := lcd.NewHandler(device, lcdMessages, logger)
//	go handler.Run()
//
//	// Send messages non-blocking
//	lcd.Send(lcdMessages, "Blink delay", "350 ms")
package lcd

import (
	"errors"
	"io"
	"log/slog"
	"strconv"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/hd44780i2c"
)

// DefaultAddrs are the usual I2C addresses of PCF8574 LCD backpacks.
var DefaultAddrs = []uint8{0x27, 0x3F}

// Display is the subset of an HD44780 driver the handler draws with.
type Display interface {
	ClearDisplay()
	SetCursor(x, y uint8)
	Print(data []byte)
}

var _ Display = (*hd44780i2c.Device)(nil)

// Open probes bus for an LCD backpack on each of addrs (DefaultAddrs when
// empty) and configures the first one that answers as a 16x2 display.
func Open(bus drivers.I2C, addrs ...uint8) (*hd44780i2c.Device, error) {
	if len(addrs) == 0 {
		addrs = DefaultAddrs
	}
	var probe [1]byte
	for _, a := range addrs {
		// A PCF8574 read is side-effect free, so it doubles as a presence check.
		if err := bus.Tx(uint16(a), nil, probe[:]); err != nil {
			continue
		}
		dev := hd44780i2c.New(bus, a)
		err := dev.Configure(hd44780i2c.Config{
			Width:  16,
			Height: 2,
		})
		if err != nil {
			return nil, errors.New("configure lcd at 0x" + strconv.FormatUint(uint64(a), 16) + ":" + err.Error())
		}
		return &dev, nil
	}
	return nil, errors.New("LCD not found on addresses: " + hexList(addrs))
}

func hexList(addrs []uint8) string {
	var b []byte
	for i, a := range addrs {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, "0x"...)
		b = strconv.AppendUint(b, uint64(a), 16)
	}
	return string(b)
}

// Message represents a two-line LCD message.
type Message struct {
	Line1 []byte
	Line2 []byte
}

// Handler processes LCD messages from a channel.
type Handler struct {
	device   Display
	messages <-chan Message
	logger   *slog.Logger
	rows     int
	columns  int
}

// NewHandler creates a new 16x2 LCD message handler.
func NewHandler(device Display, messages <-chan Message, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(127),
		}))
	}
	return &Handler{
		device:   device,
		messages: messages,
		logger:   logger,
		rows:     2,
		columns:  16,
	}
}

// Run processes messages from the channel and updates the LCD.
// Run should be called in a separate goroutine. It returns once the
// channel is closed.
func (h *Handler) Run() {
	for msg := range h.messages {
		h.logger.Debug("lcd:display", slog.String("line1", string(msg.Line1)))
		h.display(msg)
	}
}

// display prints msg to the LCD, truncating each line to the display width.
func (h *Handler) display(msg Message) {
	h.device.ClearDisplay()
	h.device.SetCursor(0, 0)
	h.device.Print(h.truncate(msg.Line1))

	h.device.SetCursor(0, 1)
	h.device.Print(h.truncate(msg.Line2))
}

// truncate reslices line in place, no allocation.
func (h *Handler) truncate(line []byte) []byte {
	if len(line) > h.columns {
		return line[:h.columns]
	}
	return line
}

// Send queues a message without blocking. It reports false when the
// channel is full and the message was dropped.
func Send(messages chan<- Message, line1, line2 string) bool {
	select {
	case messages <- Message{Line1: []byte(line1), Line2: []byte(line2)}:
		return true
	default:
		return false
	}
}

// DelayNotifier shows every new blink delay on the LCD.
type DelayNotifier struct {
	Messages chan<- Message
}

// DelayChanged implements blink.Notifier.
func (n DelayNotifier) DelayChanged(delay uint32) {
	Send(n.Messages, "Blink delay", strconv.FormatUint(uint64(delay), 10)+" ms")
}
