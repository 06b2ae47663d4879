package mqtt

import "time"

// keepAliveSeconds is the keep-alive announced to the broker on connect. The
// broker drops a session that stays silent for one and a half times as long.
const keepAliveSeconds = 60

// heartbeatAction is what the publisher does when its heartbeat fires.
type heartbeatAction uint8

const (
	// stayIdle means the connection carried traffic recently enough.
	stayIdle heartbeatAction = iota
	// sendPing means a PINGREQ is needed to keep the session open.
	sendPing
	// reconnect means the last PINGREQ was never answered.
	reconnect
)

// keepAlive decides when the publisher has to ping the broker.
type keepAlive struct {
	interval time.Duration
}

// newKeepAlive returns a keepAlive whose heartbeat runs every requested
// interval, capped at half the broker keep-alive so that a publish right
// before a skipped ping still leaves room for the next one.
func newKeepAlive(requested time.Duration, keepAliveSecs uint16) keepAlive {
	limit := time.Duration(keepAliveSecs) * time.Second / 2
	switch {
	case limit <= 0 && requested <= 0:
		requested = 30 * time.Second
	case limit <= 0:
	case requested <= 0, requested > limit:
		requested = limit
	}
	return keepAlive{interval: requested}
}

// next returns the heartbeat action given when the client last wrote to the
// broker and whether a PINGRESP is still outstanding.
func (k keepAlive) next(now, lastTx time.Time, awaitingPingresp bool) heartbeatAction {
	switch {
	case awaitingPingresp && now.Sub(lastTx) >= k.interval:
		return reconnect
	case lastTx.IsZero(), now.Sub(lastTx) >= k.interval:
		return sendPing
	default:
		return stayIdle
	}
}
