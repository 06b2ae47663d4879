//go:build !tinygo

package press

import "sync"

// section stands in for interrupt masking when the "interrupt" is just
// another goroutine.
type section struct {
	mu sync.Mutex
}

type sectionState struct{}

func (s *section) enter() sectionState {
	s.mu.Lock()
	return sectionState{}
}

func (s *section) exit(sectionState) { s.mu.Unlock() }
