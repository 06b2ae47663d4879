package mqtt

import (
	"log/slog"
	"time"

	mqtt "github.com/soypat/natiu-mqtt"
)

// Client publishes delay reports to an MQTT broker over the Pico W network
// stack.
type Client struct {
	ID         string
	Timeout    time.Duration // Deadline for each exchange with the broker.
	TCPBufSize int
	Logger     *slog.Logger
	// HeartbeatInterval is how often an idle connection is checked for a
	// due ping. It is capped at half the broker keep-alive.
	HeartbeatInterval time.Duration
	// Username and Password are sent on connect when Username is set.
	Username string
	Password string
}

// connectVars returns the CONNECT variables for c.
func (c *Client) connectVars() mqtt.VariablesConnect {
	var v mqtt.VariablesConnect
	v.SetDefaultMQTT([]byte(c.ID))
	v.KeepAlive = keepAliveSeconds
	if c.Username != "" {
		v.Username = []byte(c.Username)
		if c.Password != "" {
			v.Password = []byte(c.Password)
		}
	}
	return v
}
