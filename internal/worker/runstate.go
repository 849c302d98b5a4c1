package worker

import (
	"errors"
	"sync"
)

// ErrCancelled is returned from Checkpoint once a run has been cancelled.
var ErrCancelled = errors.New("run cancelled")

// RunState coordinates pause, resume and cancel between the UI goroutine
// and the run goroutine. The run goroutine calls Checkpoint between every
// pair of screen actions; the UI calls the other methods at any time.
type RunState struct {
	mu        sync.Mutex
	cond      *sync.Cond
	paused    bool
	cancelled bool
}

// NewRunState returns a fresh state for one run.
func NewRunState() *RunState {
	s := &RunState{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Pause suspends the run at its next checkpoint.
func (s *RunState) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
}

// Resume releases a paused run.
func (s *RunState) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Cancel stops the run at its next checkpoint. A paused run is released so
// it can observe the cancellation.
func (s *RunState) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.paused = false
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Cancelled reports whether Cancel was called.
func (s *RunState) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// Paused reports whether the run is currently paused.
func (s *RunState) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused && !s.cancelled
}

// Checkpoint blocks while paused and returns ErrCancelled once cancelled.
// Cancellation wins over pause.
func (s *RunState) Checkpoint() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.paused && !s.cancelled {
		s.cond.Wait()
	}
	if s.cancelled {
		return ErrCancelled
	}
	return nil
}
