package monitor

import "github.com/harveysanders/buttonblinky/buttonblinky/blink"

// cycleLen is the number of distinct delays in the press cycle.
const cycleLen = int((blink.MaxDelay-blink.MinDelay)/blink.DelayStep) + 1

// Observation describes how a reported delay relates to the previous one.
type Observation struct {
	Previous uint32
	Delay    uint32
	// Steps is the number of presses needed to get from Previous to Delay.
	// It is 1 unless press reports were lost on the wire.
	Steps int
	// Wrapped is set when the cycle passed from the fastest delay back to
	// the slowest one.
	Wrapped bool
}

// Missed returns the number of presses implied by the cycle that were never
// reported.
func (o Observation) Missed() int { return o.Steps - 1 }

// Stats summarizes everything a Tracker has seen.
type Stats struct {
	Delay   uint32
	Presses int
	Missed  int
	Boots   int
}

// Tracker follows the firmware's delay through the press cycle.
//
// Stats.Delay is zero until the first boot or press report, since the
// monitor may attach to a board that has been running for a while.
type Tracker struct {
	stats Stats
}

// NewTracker returns a tracker that does not know the board's delay yet.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Known reports whether the tracker has seen a boot or press report.
func (t *Tracker) Known() bool { return t.stats.Delay != 0 }

// Observe records a reported press delay. The first report on a tracker
// that does not know the delay counts as a single press.
func (t *Tracker) Observe(delay uint32) Observation {
	o := Observation{Previous: t.stats.Delay, Delay: delay}
	if !t.Known() {
		o.Steps = 1
		t.stats.Delay = delay
		t.stats.Presses++
		return o
	}

	cur := t.stats.Delay
	for o.Steps < cycleLen {
		next := blink.NextDelay(cur)
		o.Steps++
		if next > cur {
			o.Wrapped = true
		}
		cur = next
		if cur == delay {
			break
		}
	}

	t.stats.Delay = delay
	t.stats.Presses += o.Steps
	t.stats.Missed += o.Missed()
	return o
}

// Boot records a firmware restart, which resets the delay.
func (t *Tracker) Boot(delay uint32) {
	t.stats.Boots++
	t.stats.Delay = delay
}

// Stats returns a snapshot of the tracker's counters.
func (t *Tracker) Stats() Stats { return t.stats }
