package speech

import "sync"

// signal is the cancellation signal. Every set bumps a generation counter,
// so a stop is never lost even if the worker clears the flag right after.
type signal struct {
	mu    sync.Mutex
	isSet bool
	gen   uint64
	ch    chan struct{} // closed while set
}

func newSignal() *signal {
	return &signal{ch: make(chan struct{})}
}

// set raises the signal and returns the new generation.
func (s *signal) set() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if !s.isSet {
		s.isSet = true
		close(s.ch)
	}
	return s.gen
}

// clear lowers the signal. The generation is kept.
func (s *signal) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isSet {
		s.isSet = false
		s.ch = make(chan struct{})
	}
}

func (s *signal) raised() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isSet
}

func (s *signal) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// done returns a channel that is closed once the signal is set.
func (s *signal) done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ch
}
