//go:build pico_w || pico2_w

package main

import (
	"log/slog"
	"machine"
	"net/netip"
	"time"

	"github.com/harveysanders/buttonblinky/buttonblinky/blink"
	"github.com/harveysanders/buttonblinky/buttonblinky/lcd"
	"github.com/harveysanders/buttonblinky/buttonblinky/mqtt"
	"github.com/harveysanders/buttonblinky/buttonblinky/picow"
)

// Set with -ldflags, e.g.
//
//	-ldflags="-X main.wifiSSID=home -X main.wifiPass=secret -X main.mqttAddr=broker.lan:1883"
var (
	wifiSSID string
	wifiPass string
	mqttAddr = "10.0.0.9:1883"
	mqttUser string
	mqttPass string
)

// setupTelemetry joins WiFi in the background and publishes every delay
// change to the MQTT broker. The blink loop starts right away; reports
// queued before the broker is reachable are dropped once the queue fills.
func setupTelemetry(logger *slog.Logger, lcdMessages chan<- lcd.Message) []blink.Notifier {
	// Buffered channel of 10 reports. Presses are rare compared to the
	// publish rate, so this only fills while the network is down.
	reports := make(chan mqtt.DelayReport, 10)

	go func() {
		seed, err := machine.GetRNG()
		if err != nil {
			logger.Warn("wifi:rng", slog.Any("reason", err))
		}
		stack, err := picow.Connect(picow.Config{
			SSID:        wifiSSID,
			Password:    wifiPass,
			Hostname:    "buttonblinky",
			MaxTCPPorts: 1,
			Logger:      logger,
			RandSeed:    int64(seed),
		})
		if err != nil {
			logger.Error("wifi:connect", slog.Any("reason", err))
			return
		}
		go stack.Serve()

		if _, err := stack.SetupWithDHCP(netip.Addr{}); err != nil {
			logger.Error("wifi:dhcp", slog.Any("reason", err))
			return
		}
		logger.Info("wifi:ready", slog.String("addr", stack.Addr().String()))
		stack.SetOnboardLED(true)

		c := mqtt.Client{
			ID:                "buttonblinky",
			Logger:            logger,
			Timeout:           5 * time.Second,
			TCPBufSize:        2030, // MTU - ethhdr - iphdr - tcphdr
			HeartbeatInterval: 30 * time.Second,
			Username:          mqttUser,
			Password:          mqttPass,
		}
		err = c.ConnectAndPublish(stack, mqttAddr, reports, lcdMessages)
		if err != nil {
			logger.Error("mqtt:connect", slog.Any("reason", err))
		}
		stack.SetOnboardLED(false)
	}()

	return []blink.Notifier{mqtt.NewReporter(reports)}
}
