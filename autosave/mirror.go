package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/programme-lv/arena/answers"
	"github.com/programme-lv/arena/logger"
)

// Source reports the current answers and their version.
type Source func() (map[string]answers.Answer, uint64)

// Mirror copies the answer store to a Store every interval, skipping
// rounds in which nothing changed.
type Mirror struct {
	store    Store
	key      Key
	source   Source
	interval time.Duration

	mu      sync.Mutex
	saved   uint64
	stop    chan struct{}
	done    chan struct{}
	running bool
	// set by Discard; later flushes are dropped
	discarded bool
}

func NewMirror(store Store, key Key, source Source, interval time.Duration) *Mirror {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Mirror{store: store, key: key, source: source, interval: interval}
}

// Recover returns the saved draft for the mirrored key, if any.
func (m *Mirror) Recover(ctx context.Context) (Snapshot, error) {
	return m.store.Load(ctx, m.key)
}

// Start runs the periodic save until Stop or Discard. The logger is
// taken from ctx; ctx cancellation does not end the loop.
func (m *Mirror) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	_, m.saved = m.source()
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	m.running = true

	bg := context.WithoutCancel(ctx)
	go func(stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)
		t := time.NewTicker(m.interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				if err := m.Flush(bg); err != nil {
					logger.FromContext(bg).Warn("autosave failed", "key", m.key.String(), "error", err)
				}
			}
		}
	}(m.stop, m.done)
}

// Flush saves the current answers if they changed since the last save.
func (m *Mirror) Flush(ctx context.Context) error {
	snap, version := m.source()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.discarded || version == m.saved {
		return nil
	}
	err := m.store.Save(ctx, Snapshot{
		Key:     m.key,
		Answers: snap,
		Version: version,
		SavedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	m.saved = version
	return nil
}

func (m *Mirror) halt() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stop)
	done := m.done
	m.mu.Unlock()
	<-done
}

// Stop ends the loop and writes a last draft.
func (m *Mirror) Stop(ctx context.Context) error {
	m.halt()
	return m.Flush(ctx)
}

// Discard ends the loop and deletes the draft. Called once the attempt
// is submitted.
func (m *Mirror) Discard(ctx context.Context) error {
	m.halt()
	m.mu.Lock()
	m.discarded = true
	m.mu.Unlock()
	return m.store.Discard(ctx, m.key)
}
