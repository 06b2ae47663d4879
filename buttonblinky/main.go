//go:build tinygo

// Command buttonblinky blinks an LED and shortens its blink period every
// time the button is pressed, wrapping back to the slowest rate after the
// fastest one.
//
//	tinygo flash -target=pico -monitor ./buttonblinky
package main

import (
	"log/slog"
	"machine"
	"strconv"
	"time"

	"github.com/harveysanders/buttonblinky/buttonblinky/blink"
	"github.com/harveysanders/buttonblinky/buttonblinky/lcd"
	"github.com/harveysanders/buttonblinky/buttonblinky/press"
)

// presses is shared between the button interrupt and the blink loop.
var presses press.Latch

func main() {
	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Idle high, a press pulls the line low.
	buttonPin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	// The line has to be in the latch before its interrupt can fire.
	presses.Install(buttonLine{pin: buttonPin})
	err := buttonPin.SetInterrupt(machine.PinFalling, func(machine.Pin) {
		presses.Edge()
	})
	if err != nil {
		printErrForever(logger, "configure button interrupt", slog.Any("reason", err))
	}

	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})

	var notifiers []blink.Notifier
	lcdMessages := setupLCD(logger)
	if lcdMessages != nil {
		notifiers = append(notifiers, lcd.DelayNotifier{Messages: lcdMessages})
	}
	notifiers = append(notifiers, setupTelemetry(logger, lcdMessages)...)

	ctrl, err := blink.New(blink.Config{
		LED:       ledPin,
		Presses:   &presses,
		Logger:    logger,
		Notifiers: notifiers,
	})
	if err != nil {
		printErrForever(logger, "configure blink loop", slog.Any("reason", err))
	}

	lcd.Send(lcdMessages, "Blink delay", strconv.FormatUint(uint64(ctrl.Delay()), 10)+" ms")
	logger.Info("blinking", slog.Uint64("delay", uint64(ctrl.Delay())))
	ctrl.Run()
}

// printErrForever prints a message to serial @ 1hz. It
// blocks forever.
func printErrForever(logger *slog.Logger, msg string, args ...any) {
	for {
		logger.Error(msg, args...)
		time.Sleep(time.Second)
	}
}
