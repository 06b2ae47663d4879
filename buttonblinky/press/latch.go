// Package press latches button edges raised in interrupt context so the
// main loop can consume them.
//
// The latch owns the only state shared between the interrupt handler and
// the main loop: the installed button line and a pending-press flag. Both
// are only touched inside a critical section. On TinyGo the section masks
// interrupts; elsewhere it is a mutex.
package press

// Line is the hardware side of a button input line.
type Line interface {
	// ClearInterrupt acknowledges the line's interrupt-pending condition
	// so the interrupt does not fire again for the same edge.
	ClearInterrupt()
}

// Latch records whether a press happened since the last Take.
// The zero value is ready to use; a Line must be installed before Edge is
// ever called.
type Latch struct {
	cs      section
	line    Line
	pending bool
}

// Install hands the button line over to the latch. It must be called
// exactly once, before the pin's interrupt is enabled.
func (l *Latch) Install(line Line) {
	if line == nil {
		panic("press: install nil line")
	}
	st := l.cs.enter()
	if l.line != nil {
		l.cs.exit(st)
		panic("press: line already installed")
	}
	l.line = line
	l.cs.exit(st)
}

// Edge is the interrupt handler. It acknowledges the edge on the installed
// line and marks a press as pending. It does not allocate or block.
func (l *Latch) Edge() {
	st := l.cs.enter()
	if l.line == nil {
		l.cs.exit(st)
		panic("press: edge before line installed")
	}
	l.line.ClearInterrupt()
	l.pending = true
	l.cs.exit(st)
}

// Take reports whether a press is pending and clears it.
// Any number of edges since the previous Take count as one press.
func (l *Latch) Take() bool {
	st := l.cs.enter()
	pressed := l.pending
	l.pending = false
	l.cs.exit(st)
	return pressed
}
