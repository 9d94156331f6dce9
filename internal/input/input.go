// Package input defines where qualifying-input events come from. The
// tracker treats every event as evidence of user activity; sources carry no
// information about which key was pressed.
package input

import (
	"sync"
	"time"
)

// Event is a single qualifying-input observation.
type Event struct {
	Timestamp time.Time
}

// Source delivers qualifying-input events to a handler. StartCapture must
// be balanced by StopCapture; after StopCapture returns the handler is no
// longer invoked.
type Source interface {
	StartCapture(handler func(Event)) error
	StopCapture()
}

// ChanSource is a Source fed programmatically through Emit. It backs the
// agent's stdin fallback and tests.
type ChanSource struct {
	mu      sync.Mutex
	handler func(Event)
}

// NewChanSource creates an unstarted ChanSource.
func NewChanSource() *ChanSource {
	return &ChanSource{}
}

func (s *ChanSource) StartCapture(handler func(Event)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
	return nil
}

func (s *ChanSource) StopCapture() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = nil
}

// Emit forwards an event to the registered handler. Events emitted while
// capture is stopped are dropped.
func (s *ChanSource) Emit(ev Event) {
	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()
	if handler != nil {
		handler(ev)
	}
}
