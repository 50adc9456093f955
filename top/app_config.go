package top

import (
	"log/slog"
	"net/http"

	"github.com/lunagic/poseidon/poseidon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/topnuomi/top/topservices/database"
)

type AppConfigFunc func(app *App) error

func WithLogger(logger *slog.Logger) AppConfigFunc {
	return func(app *App) error {
		app.logger = logger

		return nil
	}
}

// WithHandler mounts handler ahead of the dispatcher, which serves "/".
func WithHandler(path string, handler http.Handler) AppConfigFunc {
	return func(app *App) error {
		app.handlers[path] = handler
		return nil
	}
}

func WithMiddlewares(middlewares poseidon.Middlewares) AppConfigFunc {
	return func(app *App) error {
		app.middlewares = middlewares

		return nil
	}
}

func WithResolver(resolver Resolver) AppConfigFunc {
	return func(app *App) error {
		app.resolver = resolver

		return nil
	}
}

// WithController registers a controller factory. The factory is called once
// per dispatched request.
func WithController(module string, name string, factory func() any) AppConfigFunc {
	return func(app *App) error {
		app.controllers = append(app.controllers, controllerRegistration{
			module:  module,
			name:    name,
			factory: factory,
		})

		return nil
	}
}

// WithDecoratorFactory makes a decorator available to the "decorator"
// configuration list under name.
func WithDecoratorFactory(name string, factory DecoratorFactory) AppConfigFunc {
	return func(app *App) error {
		app.decoratorFactories[name] = factory

		return nil
	}
}

// WithDatabase connects the service when the app is built and exposes it to
// controllers through the request registry as "Database".
func WithDatabase(databaseService *database.Service) AppConfigFunc {
	return func(app *App) error {
		app.database = databaseService

		return nil
	}
}

// WithMetrics serves registry on /metrics.
func WithMetrics(registry *prometheus.Registry) AppConfigFunc {
	return func(app *App) error {
		app.metrics = registry

		return nil
	}
}
