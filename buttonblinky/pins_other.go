//go:build tinygo && !(rp2040 || rp2350)

package main

import (
	"log/slog"
	"machine"

	"github.com/harveysanders/buttonblinky/buttonblinky/lcd"
)

// Boards with an onboard button and LED.
const (
	buttonPin = machine.BUTTON
	ledPin    = machine.LED
)

type buttonLine struct {
	pin machine.Pin
}

// ClearInterrupt is a no-op: on these targets the machine package
// acknowledges the edge before it dispatches to the pin callback.
func (buttonLine) ClearInterrupt() {}

// setupLCD returns nil; no display is wired on these boards.
func setupLCD(*slog.Logger) chan lcd.Message { return nil }
