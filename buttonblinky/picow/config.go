package picow

import (
	"errors"
	"log/slog"
	"time"
)

// Config configures the device and the lneto stack.
type Config struct {
	// SSID names the network to join.
	SSID string
	// Password is the WPA2 passphrase. Empty joins an open network.
	Password string
	// Hostname is used for DHCP requests.
	Hostname string
	// MaxTCPPorts is the number of TCP ports to open for the stack.
	MaxTCPPorts int
	// Logger for stack operations.
	Logger *slog.Logger
	// RandSeed is mixed into the seed of the stack's PRNG, which picks
	// local ports and packet identifiers.
	RandSeed int64
	// JoinRetries bounds WiFi join attempts. Zero retries forever.
	JoinRetries int
}

func (cfg *Config) validate() error {
	if cfg.Hostname == "" {
		return errors.New("empty hostname")
	}
	if cfg.SSID == "" {
		return errors.New("empty ssid")
	}
	return nil
}

// seed returns the stack PRNG seed. Boards that finish joining equally fast
// still differ when RandSeed comes from a hardware RNG.
func (cfg *Config) seed(elapsed time.Duration) int64 {
	return elapsed.Nanoseconds() ^ cfg.RandSeed
}
