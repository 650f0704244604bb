package autosave

import (
	"context"
	"sync"
)

// MemStore keeps drafts for the lifetime of the process. It backs tests
// and the "mem://" store.
type MemStore struct {
	mu     sync.Mutex
	drafts map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{drafts: map[string][]byte{}}
}

func (m *MemStore) Save(_ context.Context, s Snapshot) error {
	b, err := encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[s.Key.String()] = b
	return nil
}

func (m *MemStore) Load(_ context.Context, key Key) (Snapshot, error) {
	m.mu.Lock()
	b, ok := m.drafts[key.String()]
	m.mu.Unlock()
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return decode(key, b)
}

func (m *MemStore) Discard(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, key.String())
	return nil
}

func (m *MemStore) Close() error { return nil }

// nopStore is used when autosave is turned off.
type nopStore struct{}

func (nopStore) Save(context.Context, Snapshot) error { return nil }

func (nopStore) Load(context.Context, Key) (Snapshot, error) { return Snapshot{}, ErrNotFound }

func (nopStore) Discard(context.Context, Key) error { return nil }

func (nopStore) Close() error { return nil }
