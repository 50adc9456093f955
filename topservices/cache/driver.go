package cache

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// Driver is a string key/value store with per key expiration.
// A duration of zero or less stores the value without expiration.
type Driver interface {
	Delete(ctx context.Context, key string) error
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, duration time.Duration) error
}
