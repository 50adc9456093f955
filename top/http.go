package top

import (
	"errors"
	"net/http"

	"github.com/lunagic/poseidon/poseidon"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type errorBody struct {
	Error string `json:"error"`
}

func (app *App) Handler() http.Handler {
	mux := http.NewServeMux()

	// Add all the handlers
	for path, handler := range app.handlers {
		mux.Handle(path, handler)
	}

	if app.metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(app.metrics, promhttp.HandlerOpts{}))
	}

	if _, found := app.handlers["/"]; !found {
		mux.Handle("/", app.dispatcher())
	}

	return app.middlewares.Apply(mux)
}

func (app *App) dispatcher() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		input, err := app.resolver.Resolve(r)
		if err != nil {
			app.respondError(w, r, err)
			return
		}

		route, err := app.router.Resolve(input)
		if err != nil {
			app.respondError(w, r, err)
			return
		}

		c := NewContext(r.Context(), r, app.logger, app.config)
		if app.database != nil {
			c.Registry().Set("Database", func() any { return app.database })
		}

		result, err := app.router.Dispatch(c, route)
		if err != nil {
			app.respondError(w, r, err)
			return
		}

		response, ok := result.(*Response)
		if !ok || response == nil {
			response = JSONResponse(http.StatusOK, result)
		}

		response.write(w)
	})
}

func (app *App) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var routeError *RouteError
	if errors.As(err, &routeError) {
		poseidon.RespondJSON(w, http.StatusNotFound, errorBody{Error: routeError.Error()})
		return
	}

	app.logger.Error("Request Failed",
		"path", r.URL.Path,
		"error", err,
	)

	poseidon.RespondJSON(w, http.StatusInternalServerError, errorBody{Error: http.StatusText(http.StatusInternalServerError)})
}
