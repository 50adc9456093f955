package top

import (
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/topnuomi/top/toptools"
)

// RouteInput is the request target before it is validated by the Router.
type RouteInput struct {
	Module     string
	Controller string
	ClassName  string
	Action     string
	Params     []string
}

// Resolver turns an HTTP request into a RouteInput.
type Resolver interface {
	Resolve(r *http.Request) (RouteInput, error)
}

// PathResolver reads /module/controller/action/param1/param2 paths. Missing
// segments fall back to the defaults.
type PathResolver struct {
	DefaultModule     string
	DefaultController string
	DefaultAction     string
}

func (resolver PathResolver) Resolve(r *http.Request) (RouteInput, error) {
	segments := toptools.Filter(strings.Split(r.URL.Path, "/"), func(segment string) bool {
		return segment != ""
	})

	input := RouteInput{
		Module:     resolver.DefaultModule,
		Controller: resolver.DefaultController,
		Action:     resolver.DefaultAction,
		Params:     []string{},
	}

	if len(segments) > 0 {
		input.Module = segments[0]
	}

	if len(segments) > 1 {
		input.Controller = segments[1]
	}

	if len(segments) > 2 {
		input.Action = segments[2]
	}

	if len(segments) > 3 {
		input.Params = segments[3:]
	}

	input.ClassName = className(input.Module, input.Controller)

	return input, nil
}

func className(module string, controller string) string {
	return module + "." + upperFirst(controller)
}

func upperFirst(value string) string {
	r, size := utf8.DecodeRuneInString(value)
	if r == utf8.RuneError {
		return value
	}

	return string(unicode.ToUpper(r)) + value[size:]
}
