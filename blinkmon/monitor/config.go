package monitor

import (
	"encoding"
	"io"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Config is the configuration for the blink monitor.
type Config struct {
	// Device is the path to the board's USB serial device.
	// This is usually /dev/ttyACM0 for a Pico.
	Device string `toml:"device"`
	// Baud is the baud rate for the serial connection.
	Baud int `toml:"baud"`
	// ReadTimeout bounds each read from the serial port, e.g. "2s". Zero
	// blocks until the firmware prints something.
	ReadTimeout Duration `toml:"read_timeout"`
	// Echo logs every line the firmware prints at debug level.
	Echo bool `toml:"echo"`
}

// Duration is a time.Duration read from a TOML string such as "500ms".
type Duration time.Duration

var (
	_ encoding.TextUnmarshaler = (*Duration)(nil)
	_ encoding.TextMarshaler   = (*Duration)(nil)
)

func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// DefaultConfig returns the settings used for anything a config file
// leaves out.
func DefaultConfig() Config {
	return Config{
		Device: "/dev/ttyACM0",
		Baud:   115200,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Device == "" {
		return errors.New("no serial device configured")
	}
	if c.Baud <= 0 {
		return errors.Errorf("invalid baud rate %d", c.Baud)
	}
	if c.ReadTimeout < 0 {
		return errors.Errorf("invalid read timeout %s", time.Duration(c.ReadTimeout))
	}
	return nil
}

// ParseConfig parses a configuration from a reader. Fields left out take
// their DefaultConfig value.
func ParseConfig(r io.Reader) (*Config, error) {
	var config Config
	if err := toml.NewDecoder(r).Decode(&config); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}

	def := DefaultConfig()
	if config.Device == "" {
		config.Device = def.Device
	}
	if config.Baud == 0 {
		config.Baud = def.Baud
	}
	return &config, nil
}
