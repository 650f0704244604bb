// Package autosave keeps drafts of an in-progress attempt so a crashed
// or closed arena can pick up where the user left off. Drafts are
// advisory: the server never sees them and they are discarded once the
// attempt is submitted.
package autosave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gosimple/slug"
	"github.com/programme-lv/arena/answers"
)

var ErrNotFound = errors.New("no saved draft")

// Key identifies one attempt. Live and virtual attempts of the same
// contest are kept apart.
type Key struct {
	UserID    string
	ContestID string
	Virtual   bool
}

// String is the storage key, e.g. "weekly-7-1b2e09a4/3f2c...-7d01c2e5/live".
// Each slug carries a hash of the raw id, since slugs of distinct ids
// can collide ("Weekly_1" and "weekly-1").
func (k Key) String() string {
	mode := "live"
	if k.Virtual {
		mode = "virtual"
	}
	return fmt.Sprintf("%s/%s/%s", segment(k.ContestID), segment(k.UserID), mode)
}

func segment(id string) string {
	return fmt.Sprintf("%s-%08x", slug.Make(id), uint32(xxhash.Sum64String(id)))
}

type Snapshot struct {
	Key     Key
	Answers map[string]answers.Answer
	// Version is the answer store version the draft was taken at.
	Version uint64
	SavedAt time.Time
}

type Store interface {
	Save(ctx context.Context, s Snapshot) error
	// Load returns ErrNotFound when nothing was saved for key.
	Load(ctx context.Context, key Key) (Snapshot, error)
	Discard(ctx context.Context, key Key) error
	Close() error
}

type payload struct {
	Answers map[string]answers.Answer `json:"answers"`
	Version uint64                    `json:"version"`
	SavedAt time.Time                 `json:"savedAt"`
}

func encode(s Snapshot) ([]byte, error) {
	b, err := json.Marshal(payload{Answers: s.Answers, Version: s.Version, SavedAt: s.SavedAt})
	if err != nil {
		return nil, fmt.Errorf("failed to encode draft: %w", err)
	}
	return b, nil
}

func decode(key Key, b []byte) (Snapshot, error) {
	var p payload
	if err := json.Unmarshal(b, &p); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode draft %s: %w", key, err)
	}
	if p.Answers == nil {
		p.Answers = map[string]answers.Answer{}
	}
	return Snapshot{Key: key, Answers: p.Answers, Version: p.Version, SavedAt: p.SavedAt}, nil
}
