package autosave

import (
	"context"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/programme-lv/arena/s3bucket"
)

// ObjectStore is the part of s3bucket.S3Bucket the draft store needs.
type ObjectStore interface {
	Upload(ctx context.Context, content []byte, key string, mediaType string) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// S3Store keeps zstd compressed drafts in a bucket so they follow the
// user across machines.
type S3Store struct {
	objects ObjectStore
	prefix  string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func NewS3Store(objects ObjectStore, prefix string) (*S3Store, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &S3Store{objects: objects, prefix: prefix, encoder: encoder, decoder: decoder}, nil
}

func (s *S3Store) key(k Key) string {
	return s.prefix + k.String() + ".json.zst"
}

func (s *S3Store) Save(ctx context.Context, snap Snapshot) error {
	b, err := encode(snap)
	if err != nil {
		return err
	}
	compressed := s.encoder.EncodeAll(b, make([]byte, 0, len(b)))
	if _, err := s.objects.Upload(ctx, compressed, s.key(snap.Key), "application/zstd"); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

func (s *S3Store) Load(ctx context.Context, key Key) (Snapshot, error) {
	compressed, err := s.objects.Download(ctx, s.key(key))
	if errors.Is(err, s3bucket.ErrNoSuchKey) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load draft: %w", err)
	}
	b, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to decompress draft: %w", err)
	}
	return decode(key, b)
}

func (s *S3Store) Discard(ctx context.Context, key Key) error {
	return s.objects.Delete(ctx, s.key(key))
}

func (s *S3Store) Close() error {
	s.encoder.Close()
	s.decoder.Close()
	return nil
}
