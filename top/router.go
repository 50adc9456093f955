package top

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cast"
)

type controllerEntry struct {
	className string
	factory   func() any
	kind      reflect.Type
}

type argumentKind int

const (
	argumentPositional argumentKind = iota
	argumentContext
	argumentTopContext
)

// Route is a validated RouteInput, ready to dispatch.
type Route struct {
	RouteInput
	controller controllerEntry
	method     reflect.Method
	arguments  []reflect.Value
	kinds      []argumentKind
}

// Router validates request targets against the registered controllers and
// runs actions through the decorator chain.
type Router struct {
	modules    map[string]map[string]controllerEntry
	decorators DecoratorChain
}

func NewRouter(decorators ...Decorator) *Router {
	return &Router{
		modules:    map[string]map[string]controllerEntry{},
		decorators: decorators,
	}
}

// Register adds a controller under module. Its exported methods become
// actions: the action "list" calls List.
func (router *Router) Register(module string, name string, factory func() any) error {
	instance := factory()
	if instance == nil {
		return fmt.Errorf("controller %s.%s: factory returned nil", module, name)
	}

	if router.modules[module] == nil {
		router.modules[module] = map[string]controllerEntry{}
	}

	router.modules[module][strings.ToLower(name)] = controllerEntry{
		className: className(module, name),
		factory:   factory,
		kind:      reflect.TypeOf(instance),
	}

	return nil
}

// Resolve checks the module, controller, action and parameters of input.
// Nothing is instantiated or run.
func (router *Router) Resolve(input RouteInput) (*Route, error) {
	controllers, found := router.modules[input.Module]
	if !found {
		return nil, &RouteError{Kind: ErrModuleNotFound, Name: input.Module}
	}

	controller, found := controllers[strings.ToLower(input.Controller)]
	if !found {
		return nil, &RouteError{Kind: ErrControllerNotFound, Name: className(input.Module, input.Controller)}
	}

	input.ClassName = controller.className

	method, found := controller.kind.MethodByName(upperFirst(input.Action))
	if !found || method.Name == "Init" || !isAction(method) {
		return nil, &RouteError{Kind: ErrActionNotFound, Name: controller.className + "." + input.Action}
	}

	route := &Route{
		RouteInput: input,
		controller: controller,
		method:     method,
	}

	positional := 0
	for i := 1; i < method.Type.NumIn(); i++ {
		in := method.Type.In(i)

		switch in {
		case reflect.TypeFor[context.Context]():
			route.kinds = append(route.kinds, argumentContext)
			route.arguments = append(route.arguments, reflect.Value{})
			continue
		case reflect.TypeFor[*Context]():
			route.kinds = append(route.kinds, argumentTopContext)
			route.arguments = append(route.arguments, reflect.Value{})
			continue
		}

		value := reflect.New(in).Elem()
		if positional < len(input.Params) {
			converted, err := convertParam(input.Params[positional], in)
			if err != nil {
				return nil, &RouteError{
					Kind: ErrInvalidParams,
					Name: fmt.Sprintf("%s.%s argument %d: %s", controller.className, input.Action, positional+1, err),
				}
			}
			value = converted
		}
		positional++

		route.kinds = append(route.kinds, argumentPositional)
		route.arguments = append(route.arguments, value)
	}

	return route, nil
}

// Dispatch runs the decorators' Before hooks in order, the controller's Init
// hook and action, then the After hooks in reverse order. A non nil Init
// result replaces the action. An error from the action skips the After
// hooks.
func (router *Router) Dispatch(c *Context, route *Route) (any, error) {
	c.route = route.RouteInput
	c.registry.Set("Router", func() any { return route.RouteInput })
	c.registry.Set("Config", func() any { return c.config })

	chain := append(systemDecorators(), router.decorators...)

	if err := chain.Before(c); err != nil {
		return nil, err
	}

	result, err := router.invoke(c, route)
	if err != nil {
		return nil, err
	}

	return chain.After(c, result)
}

// Initializer is implemented by controllers that prepare every action. A
// non nil result is returned instead of running the action.
type Initializer interface {
	Init(c *Context) any
}

func (router *Router) invoke(c *Context, route *Route) (any, error) {
	instance := route.controller.factory()

	if initializer, ok := instance.(Initializer); ok {
		if result := initializer.Init(c); result != nil {
			return result, nil
		}
	}

	in := make([]reflect.Value, 0, len(route.arguments))
	for i, kind := range route.kinds {
		switch kind {
		case argumentContext:
			in = append(in, reflect.ValueOf(c.Context()))
		case argumentTopContext:
			in = append(in, reflect.ValueOf(c))
		default:
			in = append(in, route.arguments[i])
		}
	}

	out := reflect.ValueOf(instance).MethodByName(route.method.Name).Call(in)

	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if route.method.Type.Out(0) == reflect.TypeFor[error]() {
			return nil, asError(out[0])
		}

		return out[0].Interface(), nil
	}

	if err := asError(out[1]); err != nil {
		return nil, err
	}

	return out[0].Interface(), nil
}

func asError(value reflect.Value) error {
	if value.IsNil() {
		return nil
	}

	return value.Interface().(error)
}

// isAction reports whether method returns nothing, a value, a value and an
// error, or an error.
func isAction(method reflect.Method) bool {
	if method.Type.IsVariadic() {
		return false
	}

	switch method.Type.NumOut() {
	case 0, 1:
		return true
	case 2:
		return method.Type.Out(1) == reflect.TypeFor[error]()
	}

	return false
}

func convertParam(raw string, target reflect.Type) (reflect.Value, error) {
	value := reflect.New(target).Elem()

	switch target.Kind() {
	case reflect.String:
		value.SetString(raw)
	case reflect.Bool:
		parsed, err := cast.ToBoolE(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		value.SetBool(parsed)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		parsed, err := cast.ToInt64E(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		if value.OverflowInt(parsed) {
			return reflect.Value{}, fmt.Errorf("%s overflows %s", raw, target)
		}
		value.SetInt(parsed)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		parsed, err := cast.ToUint64E(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		if value.OverflowUint(parsed) {
			return reflect.Value{}, fmt.Errorf("%s overflows %s", raw, target)
		}
		value.SetUint(parsed)
	case reflect.Float32, reflect.Float64:
		parsed, err := cast.ToFloat64E(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		value.SetFloat(parsed)
	default:
		return reflect.Value{}, fmt.Errorf("unsupported parameter type %s", target)
	}

	return value, nil
}
