package autosave

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/programme-lv/arena/s3bucket"
	"github.com/redis/go-redis/v9"
)

type OpenOptions struct {
	// S3Region is required for s3:// locations.
	S3Region string
	// RedisTTL bounds how long an untouched draft lives in redis.
	RedisTTL time.Duration
}

// Open picks a store from a location:
//
//	off | ""                  autosave disabled
//	mem://                    in-process only
//	sqlite:///path/drafts.db  local file
//	redis://host:6379/0       redis
//	s3://bucket/prefix        S3, zstd compressed
func Open(ctx context.Context, location string, opts OpenOptions) (Store, error) {
	switch {
	case location == "" || location == "off":
		return nopStore{}, nil
	case location == "mem://":
		return NewMemStore(), nil
	case strings.HasPrefix(location, "sqlite://"):
		path := strings.TrimPrefix(location, "sqlite://")
		if path == "" {
			return nil, fmt.Errorf("sqlite location %q has no path", location)
		}
		return NewSqliteStore(path)
	case strings.HasPrefix(location, "redis://"), strings.HasPrefix(location, "rediss://"):
		redisOpts, err := redis.ParseURL(location)
		if err != nil {
			return nil, fmt.Errorf("invalid redis location: %w", err)
		}
		ttl := opts.RedisTTL
		if ttl == 0 {
			ttl = 7 * 24 * time.Hour
		}
		return NewRedisStore(ctx, redisOpts, ttl)
	case strings.HasPrefix(location, "s3://"):
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(location, "s3://"), "/")
		if bucket == "" {
			return nil, fmt.Errorf("s3 location %q has no bucket", location)
		}
		if opts.S3Region == "" {
			return nil, fmt.Errorf("s3 location %q needs a region", location)
		}
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		b, err := s3bucket.NewS3Bucket(ctx, opts.S3Region, bucket)
		if err != nil {
			return nil, err
		}
		return NewS3Store(b, prefix)
	}
	return nil, fmt.Errorf("unsupported autosave location %q", location)
}
