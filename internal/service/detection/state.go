package detection

import "sync"

// State is the observable presence flag. Every write carries the generation
// of the session that produced it; writes from an older generation are dropped.
type State struct {
	mu         sync.Mutex
	generation uint64
	presence   bool
	listeners  []func(bool)
}

// OnChange registers fn to be called after every presence change.
func (s *State) OnChange(fn func(bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Reset starts a new generation with presence false and returns it.
func (s *State) Reset() uint64 {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	changed := s.presence
	s.presence = false
	listeners := s.listeners
	s.mu.Unlock()

	if changed {
		notify(listeners, false)
	}
	return gen
}

// Set stores presence if gen is still current. It reports whether the write was applied.
func (s *State) Set(gen uint64, presence bool) bool {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return false
	}
	changed := s.presence != presence
	s.presence = presence
	listeners := s.listeners
	s.mu.Unlock()

	if changed {
		notify(listeners, presence)
	}
	return true
}

// Presence returns the current flag.
func (s *State) Presence() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presence
}

// Generation returns the current generation.
func (s *State) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func notify(listeners []func(bool), presence bool) {
	for _, fn := range listeners {
		fn(presence)
	}
}
