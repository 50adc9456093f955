package top

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/lunagic/poseidon/poseidon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/topnuomi/top/topservices/database"
)

func NewApp(
	ctx context.Context,
	config AppConfig,
	configFuncs ...AppConfigFunc,
) (
	*App,
	error,
) {
	// Build the app with the defaults
	app := &App{
		config:             config,
		handlers:           map[string]http.Handler{},
		logger:             slog.Default(),
		resolver:           config.Resolver(),
		decoratorFactories: map[string]DecoratorFactory{},
		controllers:        []controllerRegistration{},
	}

	// Process all config functions provided by the user
	for _, configFunc := range configFuncs {
		if err := configFunc(app); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	decorators := DecoratorChain{}
	for _, name := range config.Decorators {
		factory, found := app.decoratorFactories[name]
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDecorator, name)
		}

		decorators = append(decorators, factory())
	}

	app.router = NewRouter(decorators...)
	for _, controller := range app.controllers {
		if err := app.router.Register(controller.module, controller.name, controller.factory); err != nil {
			return nil, err
		}
	}

	if app.database != nil {
		if err := app.database.Connect(ctx); err != nil {
			return nil, err
		}
	}

	if config.App.Metrics && app.metrics == nil {
		app.metrics = prometheus.NewRegistry()
	}

	return app, nil
}

type App struct {
	config             AppConfig
	logger             *slog.Logger
	router             *Router
	resolver           Resolver
	decoratorFactories map[string]DecoratorFactory
	controllers        []controllerRegistration
	database           *database.Service
	metrics            *prometheus.Registry
	handlers           map[string]http.Handler
	middlewares        poseidon.Middlewares
}

type controllerRegistration struct {
	module  string
	name    string
	factory func() any
}

func (app *App) Config() AppConfig {
	return app.config
}

func (app *App) Logger() *slog.Logger {
	return app.logger
}

func (app *App) Router() *Router {
	return app.router
}

// Database is the service given with WithDatabase, nil otherwise.
func (app *App) Database() *database.Service {
	return app.database
}

// Serve the application over HTTP until ctx is done
func (app *App) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", app.config.ListenAddr())
	if err != nil {
		return err
	}

	app.logger.Info(
		"Server Listen on HTTP",
		"addr", fmt.Sprintf("http://%s", strings.ReplaceAll(listener.Addr().String(), "[::]", "0.0.0.0")),
	)

	server := &http.Server{
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
