package emotion

import "sync"

// State is the session's emotion snapshot. It has no behaviour beyond
// storage and wholesale replacement.
type State struct {
	mu       sync.RWMutex
	vector   Vector
	current  Category
	previous Category
}

func NewState() *State {
	v := Initial()
	d := Dominant(v)
	return &State{vector: v, current: d, previous: d}
}

// Replace swaps in a new vector. The old dominant emotion becomes previous.
func (s *State) Replace(v Vector) (previous, current Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previous = s.current
	s.vector = v
	s.current = Dominant(v)
	return s.previous, s.current
}

func (s *State) Vector() Vector {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vector
}

func (s *State) Current() Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *State) Previous() Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.previous
}
