//go:build rp2040 || rp2350

package main

import (
	"device/rp"
	"log/slog"
	"machine"
	"runtime/volatile"
	"unsafe"

	"github.com/harveysanders/buttonblinky/buttonblinky/lcd"
)

// Pico / Pico 2 wiring: push button from GP14 to GND, LED with resistor
// on GP15, optional 16x2 LCD backpack on I2C0.
const (
	buttonPin = machine.GP14
	ledPin    = machine.GP15

	lcdSDA = machine.GP4
	lcdSCL = machine.GP5
)

// buttonLine is the button pin as seen from interrupt context.
type buttonLine struct {
	pin machine.Pin
}

// ClearInterrupt clears the pin's latched falling-edge status. The raw
// edge bits live in IO_BANK0's INTR registers, eight pins per register,
// four bits per pin, write-1-to-clear.
func (b buttonLine) ClearInterrupt() {
	intr := (*volatile.Register32)(unsafe.Add(unsafe.Pointer(&rp.IO_BANK0.INTR0), 4*uintptr(b.pin>>3)))
	intr.Set(uint32(machine.PinFalling) << (4 * (uint32(b.pin) % 8)))
}

// setupLCD looks for an HD44780 backpack on I2C0 and starts a handler for
// it. It returns nil when no display is attached.
func setupLCD(logger *slog.Logger) chan lcd.Message {
	err := machine.I2C0.Configure(machine.I2CConfig{
		SDA: lcdSDA,
		SCL: lcdSCL,
	})
	if err != nil {
		logger.Warn("lcd:configure I2C", slog.Any("reason", err))
		return nil
	}
	dev, err := lcd.Open(machine.I2C0)
	if err != nil {
		logger.Warn("lcd:open", slog.Any("reason", err))
		return nil
	}
	messages := make(chan lcd.Message, 4)
	go lcd.NewHandler(dev, messages, logger).Run()
	return messages
}
