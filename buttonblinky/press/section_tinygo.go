//go:build tinygo

package press

import "runtime/interrupt"

// section masks interrupts on the executing core for its duration.
type section struct{}

func (*section) enter() interrupt.State { return interrupt.Disable() }

func (*section) exit(st interrupt.State) { interrupt.Restore(st) }
