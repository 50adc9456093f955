package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

func NewDriverMemory() (Driver, error) {
	return &driverMemory{
		store: gocache.New(gocache.NoExpiration, time.Minute),
	}, nil
}

type driverMemory struct {
	store *gocache.Cache
}

func (driver *driverMemory) Delete(ctx context.Context, key string) error {
	driver.store.Delete(key)

	return nil
}

func (driver *driverMemory) Get(ctx context.Context, key string) (string, error) {
	item, found := driver.store.Get(key)
	if !found {
		return "", ErrNotFound
	}

	value, ok := item.(string)
	if !ok {
		return "", ErrNotFound
	}

	return value, nil
}

func (driver *driverMemory) Set(ctx context.Context, key string, value string, duration time.Duration) error {
	if duration <= 0 {
		duration = gocache.NoExpiration
	}

	driver.store.Set(key, value, duration)

	return nil
}
