package database

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/topnuomi/top/topservices/cache"
)

type ServiceConfigFunc func(service *Service) error

// WithConnection uses an already opened handle instead of calling
// Driver.Open.
func WithConnection(db *sql.DB) ServiceConfigFunc {
	return func(service *Service) error {
		service.standardLibraryDB = db
		return nil
	}
}

func WithPostConnectFunc(callback func(db *sql.DB) error) ServiceConfigFunc {
	return func(service *Service) error {
		service.postConnectFuncs = append(service.postConnectFuncs, callback)
		return nil
	}
}

func WithPreRunFunc(preRunFunc func(ctx context.Context, statement string, args []any) error) ServiceConfigFunc {
	return func(service *Service) error {
		service.preRunFuncs = append(service.preRunFuncs, preRunFunc)
		return nil
	}
}

func WithPostRunFunc(postRunFunc func(ctx context.Context) error) ServiceConfigFunc {
	return func(service *Service) error {
		service.postRunFuncs = append(service.postRunFuncs, postRunFunc)
		return nil
	}
}

func WithLogger(logger *slog.Logger) ServiceConfigFunc {
	return func(service *Service) error {
		service.preRunFuncs = append(service.preRunFuncs, func(ctx context.Context, statement string, args []any) error {
			logger.InfoContext(ctx, "Database Run",
				"driver", service.driver.Name(),
				"statement", statement,
				"args", args,
			)

			return nil
		})
		return nil
	}
}

// WithPrefix sets the table prefix added by Table unless overridden.
func WithPrefix(prefix string) ServiceConfigFunc {
	return func(service *Service) error {
		service.prefix = prefix
		return nil
	}
}

// WithSchemaCache stores introspected primary keys in driver for ttl.
func WithSchemaCache(driver cache.Driver, ttl time.Duration) ServiceConfigFunc {
	return func(service *Service) error {
		service.schema = cache.NewRepository[string, string](driver, "top-schema")
		service.schemaTTL = ttl
		return nil
	}
}

// WithMetrics counts and times every statement. Registering twice on the
// same registerer reuses the existing collectors.
func WithMetrics(registerer prometheus.Registerer) ServiceConfigFunc {
	return func(service *Service) error {
		m, err := newMetrics(registerer)
		if err != nil {
			return err
		}
		service.metrics = m
		return nil
	}
}
