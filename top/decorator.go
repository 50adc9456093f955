package top

import (
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/topnuomi/top/toptools"
)

// Decorator wraps an action. Before runs ahead of the action in chain
// order, After runs once it returned, in reverse chain order, and may
// replace the result.
type Decorator interface {
	Before(c *Context) error
	After(c *Context, result any) (any, error)
}

type DecoratorFactory func() Decorator

// DecoratorChain is an ordered list of decorators.
type DecoratorChain []Decorator

func (chain DecoratorChain) Before(c *Context) error {
	for _, decorator := range chain {
		if err := decorator.Before(c); err != nil {
			return err
		}
	}

	return nil
}

func (chain DecoratorChain) After(c *Context, result any) (any, error) {
	for _, decorator := range toptools.Reverse(chain) {
		var err error
		result, err = decorator.After(c, result)
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// systemDecorators run ahead of every user decorator.
func systemDecorators() DecoratorChain {
	return DecoratorChain{
		InitDecorator{},
		ReturnDecorator{},
		StringDecorator{},
	}
}

// InitDecorator stamps the request id and start time and logs the finished
// dispatch.
type InitDecorator struct{}

func (InitDecorator) Before(c *Context) error {
	c.id = uuid.NewString()
	c.started = time.Now()

	return nil
}

func (InitDecorator) After(c *Context, result any) (any, error) {
	if response, ok := result.(*Response); ok && response != nil {
		if response.Headers == nil {
			response.Headers = http.Header{}
		}
		response.Headers.Set("X-Request-Id", c.id)
	}

	c.logger.Info("Request Dispatched",
		"id", c.id,
		"controller", c.route.ClassName,
		"action", c.route.Action,
		"duration", time.Since(c.started),
	)

	return result, nil
}

// ReturnDecorator turns any result that is not yet a Response into JSON.
// A nil result, nil *Response included, becomes an empty text response.
type ReturnDecorator struct{}

func (ReturnDecorator) Before(c *Context) error {
	return nil
}

func (ReturnDecorator) After(c *Context, result any) (any, error) {
	switch typed := result.(type) {
	case nil:
		return TextResponse(http.StatusOK, ""), nil
	case *Response:
		if typed == nil {
			return TextResponse(http.StatusOK, ""), nil
		}

		return typed, nil
	case Response:
		return &typed, nil
	}

	return JSONResponse(http.StatusOK, result), nil
}

// StringDecorator turns scalar results into text responses.
type StringDecorator struct{}

func (StringDecorator) Before(c *Context) error {
	return nil
}

func (StringDecorator) After(c *Context, result any) (any, error) {
	if result == nil {
		return nil, nil
	}

	value := reflect.ValueOf(result)
	switch value.Kind() {
	case reflect.String:
		return TextResponse(http.StatusOK, value.String()), nil
	case reflect.Bool:
		return TextResponse(http.StatusOK, strconv.FormatBool(value.Bool())), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return TextResponse(http.StatusOK, strconv.FormatInt(value.Int(), 10)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TextResponse(http.StatusOK, strconv.FormatUint(value.Uint(), 10)), nil
	case reflect.Float32, reflect.Float64:
		return TextResponse(http.StatusOK, strconv.FormatFloat(value.Float(), 'f', -1, value.Type().Bits())), nil
	}

	return result, nil
}
