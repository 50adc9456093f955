package top

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Context is the per request state shared by the decorators and the
// controller.
type Context struct {
	ctx      context.Context
	id       string
	started  time.Time
	route    RouteInput
	request  *http.Request
	logger   *slog.Logger
	registry *Registry
	config   AppConfig
	values   map[string]any
}

func NewContext(ctx context.Context, request *http.Request, logger *slog.Logger, config AppConfig) *Context {
	if ctx == nil {
		ctx = context.Background()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Context{
		ctx:      ctx,
		request:  request,
		logger:   logger,
		registry: NewRegistry(),
		config:   config,
		values:   map[string]any{},
	}
}

func (c *Context) Context() context.Context {
	return c.ctx
}

// ID is the request id stamped by the init decorator.
func (c *Context) ID() string {
	return c.id
}

func (c *Context) Started() time.Time {
	return c.started
}

func (c *Context) Route() RouteInput {
	return c.route
}

func (c *Context) Request() *http.Request {
	return c.request
}

func (c *Context) Logger() *slog.Logger {
	return c.logger
}

func (c *Context) Registry() *Registry {
	return c.registry
}

func (c *Context) Config() AppConfig {
	return c.config
}

func (c *Context) Set(key string, value any) {
	c.values[key] = value
}

func (c *Context) Get(key string) (any, bool) {
	value, found := c.values[key]
	return value, found
}
