package answers

import "sync"

// Store maps problem ids to answers. Presence of a key is what counts as
// answered, so clearing deletes the key rather than blanking it.
type Store struct {
	mu      sync.RWMutex
	items   map[string]Answer
	version uint64
}

func NewStore() *Store {
	return &Store{items: make(map[string]Answer)}
}

// Set upserts the answer verbatim. An empty value is not an answer and
// removes the key instead.
func (s *Store) Set(problemID string, a Answer) {
	if a.Value == "" {
		s.Clear(problemID)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.items[problemID]; ok && cur == a {
		return
	}
	s.items[problemID] = a
	s.version++
}

func (s *Store) Clear(problemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[problemID]; !ok {
		return
	}
	delete(s.items, problemID)
	s.version++
}

func (s *Store) Get(problemID string) (Answer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.items[problemID]
	return a, ok
}

func (s *Store) Has(problemID string) bool {
	_, ok := s.Get(problemID)
	return ok
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Version increases on every effective mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns a copy that later mutations do not affect.
func (s *Store) Snapshot() map[string]Answer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Answer, len(s.items))
	for k, v := range s.items {
		out[k] = v
	}
	return out
}

// SnapshotVersion returns the snapshot together with the version it
// was taken at.
func (s *Store) SnapshotVersion() (map[string]Answer, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Answer, len(s.items))
	for k, v := range s.items {
		out[k] = v
	}
	return out, s.version
}

// Restore replaces the contents with m, skipping empty values.
func (s *Store) Restore(m map[string]Answer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]Answer, len(m))
	for k, v := range m {
		if v.Value == "" {
			continue
		}
		s.items[k] = v
	}
	s.version++
}
