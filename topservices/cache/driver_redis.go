package cache

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	redis "github.com/redis/go-redis/v9"
)

// DriverRedisConfig points at any server speaking the redis protocol.
// Port defaults to 6379.
type DriverRedisConfig struct {
	Host   string `validate:"required"`
	Number int    `validate:"gte=0"`
	Pass   string
	Port   int `validate:"gte=0,lte=65535"`
	User   string
}

var validate = validator.New()

func NewDriverRedis(config DriverRedisConfig) (Driver, error) {
	if err := validate.Struct(config); err != nil {
		return nil, err
	}

	if config.Port == 0 {
		config.Port = 6379
	}

	return &driverRedis{
		client: redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
			Username: config.User,
			Password: config.Pass,
			DB:       config.Number,
		}),
	}, nil
}

type driverRedis struct {
	client *redis.Client
}

func (driver *driverRedis) Get(ctx context.Context, key string) (string, error) {
	result, err := driver.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}

	return result, err
}

func (driver *driverRedis) Set(ctx context.Context, key string, value string, duration time.Duration) error {
	// redis treats zero as keep forever, negative values are rejected
	return driver.client.Set(ctx, key, value, max(duration, 0)).Err()
}

func (driver *driverRedis) Delete(ctx context.Context, key string) error {
	return driver.client.Del(ctx, key).Err()
}
