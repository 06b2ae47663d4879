// Command blinkmon watches a buttonblinky board's serial console and logs
// every blink delay change.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/harveysanders/buttonblinky/blinkmon/monitor"
	"github.com/spf13/pflag"
)

var (
	config  = "blinkmon.toml"
	device  = ""
	verbose = false
)

func init() {
	pflag.StringVarP(&config, "config", "c", config, "configuration file")
	pflag.StringVarP(&device, "device", "d", device, "serial device, overrides the configuration file")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose output")
}

func main() {
	pflag.Parse()

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}
	if device != "" {
		cfg.Device = device
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	m, err := monitor.New(cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}

	err = m.Run(ctx)

	stats := m.Stats()
	slog.Info("done",
		"delay_ms", stats.Delay,
		"presses", stats.Presses,
		"missed", stats.Missed,
		"boots", stats.Boots)

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("monitor failed: %w", err)
	}
	return nil
}

// readConfig reads the configuration file. A missing file is fine when the
// device is given on the command line.
func readConfig() (*monitor.Config, error) {
	f, err := os.Open(config)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && device != "" {
			cfg := monitor.DefaultConfig()
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	return monitor.ParseConfig(f)
}
