//go:build tinygo && !(pico_w || pico2_w)

package main

import (
	"log/slog"

	"github.com/harveysanders/buttonblinky/buttonblinky/blink"
	"github.com/harveysanders/buttonblinky/buttonblinky/lcd"
)

// setupTelemetry is a no-op on boards without a wireless chip.
func setupTelemetry(*slog.Logger, chan<- lcd.Message) []blink.Notifier { return nil }
