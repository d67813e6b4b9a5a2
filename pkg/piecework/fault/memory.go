package fault

import "sync"

// DefaultMemoryCapacity is the ring size used when none is given.
const DefaultMemoryCapacity = 256

// MemoryStore keeps the most recent faults in a fixed-size ring.
type MemoryStore struct {
	mu     sync.RWMutex
	ring   []Fault
	next   int
	size   int
	closed bool
}

// NewMemoryStore creates a ring holding up to capacity faults.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{ring: make([]Fault, capacity)}
}

// Record implements Store. The oldest fault is overwritten when full.
func (s *MemoryStore) Record(f Fault) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	s.ring[s.next] = f
	s.next = (s.next + 1) % len(s.ring)
	if s.size < len(s.ring) {
		s.size++
	}
	return nil
}

// List implements Store.
func (s *MemoryStore) List(limit int) ([]Fault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	n := s.size
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Fault, 0, n)
	for i := 1; i <= n; i++ {
		idx := (s.next - i + len(s.ring)) % len(s.ring)
		out = append(out, s.ring[idx])
	}
	return out, nil
}

// Count implements Store.
func (s *MemoryStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}
	return s.size, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.ring = nil
	s.size = 0
	return nil
}
