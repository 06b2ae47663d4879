package monitor

import (
	"strconv"
	"strings"

	"github.com/harveysanders/buttonblinky/buttonblinky/blink"
)

const (
	pressPrefix = "Button pressed with a delay of: "
	bootMarker  = "msg=blinking "
)

// EventKind is the kind of firmware log line.
type EventKind uint8

const (
	// PressEvent is a delay change after a button press.
	PressEvent EventKind = iota + 1
	// BootEvent is the firmware announcing its starting delay.
	BootEvent
)

func (k EventKind) String() string {
	switch k {
	case PressEvent:
		return "press"
	case BootEvent:
		return "boot"
	default:
		return "EventKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Event is a firmware log line the monitor cares about.
type Event struct {
	Kind  EventKind
	Delay uint32
}

// ParseLine extracts an Event from one line of firmware output. Both the
// slog text form (msg="Button pressed with a delay of: 350") and the bare
// message are accepted. Delays that cannot occur in the press cycle are
// rejected.
func ParseLine(line string) (Event, bool) {
	if i := strings.Index(line, pressPrefix); i >= 0 {
		delay, ok := leadingDelay(line[i+len(pressPrefix):])
		if !ok {
			return Event{}, false
		}
		return Event{Kind: PressEvent, Delay: delay}, true
	}

	if i := strings.Index(line, bootMarker); i >= 0 {
		rest := line[i+len(bootMarker):]
		j := strings.Index(rest, "delay=")
		if j < 0 {
			return Event{}, false
		}
		delay, ok := leadingDelay(rest[j+len("delay="):])
		if !ok {
			return Event{}, false
		}
		return Event{Kind: BootEvent, Delay: delay}, true
	}

	return Event{}, false
}

// leadingDelay parses the digits at the start of s as a blink delay.
func leadingDelay(s string) (uint32, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.ParseUint(s[:end], 10, 32)
	if err != nil {
		return 0, false
	}
	delay := uint32(v)
	if !validDelay(delay) {
		return 0, false
	}
	return delay, true
}

func validDelay(d uint32) bool {
	return d >= blink.MinDelay && d <= blink.MaxDelay && (blink.MaxDelay-d)%blink.DelayStep == 0
}
