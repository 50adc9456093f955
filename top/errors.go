package top

import (
	"errors"
	"fmt"
)

var (
	ErrModuleNotFound     = errors.New("module not found")
	ErrControllerNotFound = errors.New("controller not found")
	ErrActionNotFound     = errors.New("action not found")
	ErrInvalidParams      = errors.New("invalid action parameters")
	ErrNotRegistered      = errors.New("not registered")
	ErrWrongType          = errors.New("registered value has a different type")
	ErrUnknownDecorator   = errors.New("unknown decorator")
)

// RouteError is returned when a request target can not be resolved. Kind is
// one of the route sentinels.
type RouteError struct {
	Kind error
	Name string
}

func (err *RouteError) Error() string {
	return fmt.Sprintf("%s: %s", err.Kind, err.Name)
}

func (err *RouteError) Unwrap() error {
	return err.Kind
}

type RegistryError struct {
	Name string
	Err  error
}

func (err *RegistryError) Error() string {
	return fmt.Sprintf("registry %q: %s", err.Name, err.Err)
}

func (err *RegistryError) Unwrap() error {
	return err.Err
}
