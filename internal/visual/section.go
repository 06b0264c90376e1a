// Package visual holds the data models behind the decorative panels. Each
// panel reads one analyser frame per tick and runs inside a Section, which
// contains its failures.
package visual

import (
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"
)

// Frame is the per-tick input shared by all panels.
type Frame struct {
	Now     time.Time
	Index   uint64
	Playing bool
	// Spectrum is nil when nothing is playing or the analyser is not built.
	Spectrum []byte
	// Level is the mean of Spectrum scaled to [0, 1].
	Level float64
	Peak  byte
}

// Live reports whether the frame carries analyser data.
func (f Frame) Live() bool { return f.Playing && f.Spectrum != nil }

// Panel is one visual consumer.
type Panel interface {
	Name() string
	Update(f Frame) error
	// Reset returns the panel to its initial state.
	Reset()
}

// Section isolates a panel: errors and panics stop that panel only, until
// Retry.
type Section struct {
	panel  Panel
	logger *log.Logger

	mu  sync.Mutex
	err error
}

// NewSection wraps p.
func NewSection(p Panel, logger *log.Logger) *Section {
	return &Section{panel: p, logger: logger}
}

// Name returns the panel name.
func (s *Section) Name() string { return s.panel.Name() }

// Panel returns the wrapped panel.
func (s *Section) Panel() Panel { return s.panel }

// Update forwards f to the panel unless the section has failed.
func (s *Section) Update(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return
	}
	if err := s.safeUpdate(f); err != nil {
		s.err = err
		s.logger.Printf("[visual] error in section %s: %v", s.panel.Name(), err)
	}
}

func (s *Section) safeUpdate(f Frame) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()

	return s.panel.Update(f)
}

// Err returns the failure that stopped the section, if any.
func (s *Section) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

// Retry clears the failure and resets the panel.
func (s *Section) Retry() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = nil
	s.panel.Reset()
}
