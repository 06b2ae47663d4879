// Package mqtt publishes blink delay changes to an MQTT broker.
package mqtt

import (
	"errors"
	"time"
)

// Topic is where delay reports are published.
const Topic = "buttonblinky/delay"

// DelayReport is the JSON payload published for every observed press.
type DelayReport struct {
	DelayMS   uint32        // New blink delay in milliseconds.
	Presses   uint32        // Presses observed since boot.
	SinceBoot time.Duration // Nanoseconds since boot.
}

// Reporter turns delay changes into reports for the publisher.
// It is driven from the blink loop and never blocks it: when the publisher
// falls behind, reports are dropped and counted.
type Reporter struct {
	reports chan<- DelayReport
	start   time.Time
	presses uint32
	dropped uint32
}

// NewReporter returns a Reporter that queues reports on reports.
func NewReporter(reports chan<- DelayReport) *Reporter {
	return &Reporter{
		reports: reports,
		start:   time.Now(),
	}
}

// DelayChanged implements blink.Notifier.
func (r *Reporter) DelayChanged(delay uint32) {
	r.presses++
	select {
	case r.reports <- DelayReport{
		DelayMS:   delay,
		Presses:   r.presses,
		SinceBoot: time.Since(r.start),
	}:
	default:
		r.dropped++
	}
}

// Dropped returns how many reports were discarded because the queue was full.
func (r *Reporter) Dropped() uint32 { return r.dropped }

// splitHostPort splits a host:port string into separate host and port components.
// Returns an error if the format is invalid.
func splitHostPort(addr string) (host, port string, err error) {
	// Find the last colon to support IPv6 addresses
	colonIdx := -1
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			colonIdx = i
			break
		}
	}

	if colonIdx == -1 {
		return "", "", errors.New("missing port in address")
	}

	host = addr[:colonIdx]
	port = addr[colonIdx+1:]

	if host == "" {
		return "", "", errors.New("empty host")
	}
	if port == "" {
		return "", "", errors.New("empty port")
	}

	return host, port, nil
}

// parsePort converts a port string to uint16.
// Returns 0 if the string is not a number in range.
func parsePort(portStr string) uint16 {
	var port uint32
	for i := 0; i < len(portStr); i++ {
		if portStr[i] < '0' || portStr[i] > '9' {
			return 0
		}
		port = port*10 + uint32(portStr[i]-'0')
		if port > 0xffff {
			return 0
		}
	}
	return uint16(port)
}
