package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key does not exist in a bucket.
var ErrNotFound = errors.New("store: key not found")

// Well-known buckets used by the service.
const (
	BucketState = "state"
	BucketCache = "cache"
	BucketChats = "chats"
)

// UpdateFunc receives the current value for a key (nil, found=false when the
// key does not exist) and returns the value to write back.
type UpdateFunc func(current []byte, found bool) ([]byte, error)

// Store is a keyed blob store with atomic per-key read-modify-write.
// Implementations are safe for concurrent use. Any failure of the underlying
// backend is returned as-is; callers decide whether to degrade or fail the
// turn.
type Store interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, value []byte) error
	Delete(ctx context.Context, bucket, key string) error
	Update(ctx context.Context, bucket, key string, fn UpdateFunc) error
}
