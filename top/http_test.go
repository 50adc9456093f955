package top_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lunagic/poseidon/poseidon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/topnuomi/top/top"
	"github.com/topnuomi/top/topservices/database"
	"github.com/topnuomi/top/toptest"
	"gotest.tools/v3/assert"
)

var (
	mockToken                = uuid.NewString()
	mockUnauthorizedResponse = uuid.NewString()
	mockIndexResponse        = uuid.NewString()
)

func testingAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/admin") && r.Header.Get("Authorization") != mockToken {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(mockUnauthorizedResponse))
			return
		}

		next.ServeHTTP(w, r)
	})
}

type IndexController struct{}

func (IndexController) Index() string {
	return mockIndexResponse
}

type PostController struct{}

func (PostController) Count(c *top.Context) (map[string]int64, error) {
	service, err := top.Lookup[*database.Service](c.Registry(), "Database")
	if err != nil {
		return nil, err
	}

	count, err := service.Table("posts").Count(c.Context())
	if err != nil {
		return nil, err
	}

	return map[string]int64{"count": count}, nil
}

func (PostController) Show(id int) (map[string]int, error) {
	if id <= 0 {
		return nil, errBoom
	}

	return map[string]int{"id": id}, nil
}

type headerDecorator struct{}

func (headerDecorator) Before(c *top.Context) error {
	c.Set("decorated", true)
	return nil
}

func (headerDecorator) After(c *top.Context, result any) (any, error) {
	if decorated, _ := c.Get("decorated"); decorated == true {
		if text, ok := result.(string); ok {
			return strings.ToUpper(text), nil
		}
	}

	return result, nil
}

func buildTestApp(t *testing.T, configFuncs ...top.AppConfigFunc) *top.App {
	t.Helper()

	registry := prometheus.NewRegistry()

	config := top.NewConfig()
	config.App.Metrics = true
	config.DB.Driver = "sqlite"
	config.DB.Path = filepath.Join(t.TempDir(), "http.sqlite")

	databaseService, err := config.Database(database.WithMetrics(registry))
	assert.NilError(t, err)
	t.Cleanup(func() {
		_ = databaseService.Close()
	})

	_, err = databaseService.Exec(t.Context(), "CREATE TABLE posts (id INTEGER PRIMARY KEY, title TEXT)", nil)
	assert.NilError(t, err)

	app, err := top.NewApp(
		t.Context(),
		config,
		append([]top.AppConfigFunc{
			top.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			top.WithDatabase(databaseService),
			top.WithMetrics(registry),
			top.WithMiddlewares(poseidon.Middlewares{testingAuthMiddleware}),
			top.WithController("home", "index", func() any { return IndexController{} }),
			top.WithController("home", "post", func() any { return PostController{} }),
			top.WithController("admin", "post", func() any { return PostController{} }),
		}, configFuncs...)...,
	)
	assert.NilError(t, err)

	return app
}

func TestAppDispatch(t *testing.T) {
	t.Parallel()
	app := buildTestApp(t)

	testCases := map[string]toptest.HTTPTestCase{
		"default route": {
			Request: toptest.HTTPTestCaseRequest{Method: http.MethodGet, Path: "/"},
			Expected: toptest.HTTPTestCaseResponse{
				Status:  http.StatusOK,
				Headers: http.Header{"Content-Type": []string{"text/plain; charset=utf-8"}},
				Body:    mockIndexResponse,
			},
		},
		"explicit route": {
			Request:  toptest.HTTPTestCaseRequest{Method: http.MethodGet, Path: "/home/index/index"},
			Expected: toptest.HTTPTestCaseResponse{Status: http.StatusOK, Body: mockIndexResponse},
		},
		"json with params": {
			Request:  toptest.HTTPTestCaseRequest{Method: http.MethodGet, Path: "/home/post/show/7"},
			Expected: toptest.HTTPTestCaseResponse{Status: http.StatusOK, Body: map[string]int{"id": 7}},
		},
		"database through the registry": {
			Request:  toptest.HTTPTestCaseRequest{Method: http.MethodGet, Path: "/home/post/count"},
			Expected: toptest.HTTPTestCaseResponse{Status: http.StatusOK, Body: map[string]int64{"count": 0}},
		},
		"missing module": {
			Request:  toptest.HTTPTestCaseRequest{Method: http.MethodGet, Path: "/shop"},
			Expected: toptest.HTTPTestCaseResponse{Status: http.StatusNotFound, Body: map[string]string{"error": "module not found: shop"}},
		},
		"missing controller": {
			Request:  toptest.HTTPTestCaseRequest{Method: http.MethodGet, Path: "/home/cart"},
			Expected: toptest.HTTPTestCaseResponse{Status: http.StatusNotFound, Body: map[string]string{"error": "controller not found: home.Cart"}},
		},
		"missing action": {
			Request:  toptest.HTTPTestCaseRequest{Method: http.MethodGet, Path: "/home/post/edit"},
			Expected: toptest.HTTPTestCaseResponse{Status: http.StatusNotFound, Body: map[string]string{"error": "action not found: home.Post.edit"}},
		},
		"action error": {
			Request:  toptest.HTTPTestCaseRequest{Method: http.MethodGet, Path: "/home/post/show/0"},
			Expected: toptest.HTTPTestCaseResponse{Status: http.StatusInternalServerError, Body: map[string]string{"error": "Internal Server Error"}},
		},
		"middleware rejects": {
			Request:  toptest.HTTPTestCaseRequest{Method: http.MethodGet, Path: "/admin/post/show/1"},
			Expected: toptest.HTTPTestCaseResponse{Status: http.StatusUnauthorized, Body: mockUnauthorizedResponse},
		},
		"middleware accepts": {
			Request: toptest.HTTPTestCaseRequest{
				Method:  http.MethodGet,
				Path:    "/admin/post/show/1",
				Headers: http.Header{"Authorization": []string{mockToken}},
			},
			Expected: toptest.HTTPTestCaseResponse{Status: http.StatusOK, Body: map[string]int{"id": 1}},
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			toptest.TestRequest(t, app, testCase)
		})
	}
}

func TestAppRequestID(t *testing.T) {
	t.Parallel()
	app := buildTestApp(t)

	first := toptest.TestRequest(t, app, toptest.HTTPTestCase{
		Request:  toptest.HTTPTestCaseRequest{Method: http.MethodGet, Path: "/"},
		Expected: toptest.HTTPTestCaseResponse{Status: http.StatusOK, Body: mockIndexResponse},
	})
	second := toptest.TestRequest(t, app, toptest.HTTPTestCase{
		Request:  toptest.HTTPTestCaseRequest{Method: http.MethodGet, Path: "/"},
		Expected: toptest.HTTPTestCaseResponse{Status: http.StatusOK, Body: mockIndexResponse},
	})

	firstID, err := uuid.Parse(first.Header().Get("X-Request-Id"))
	assert.NilError(t, err)
	secondID, err := uuid.Parse(second.Header().Get("X-Request-Id"))
	assert.NilError(t, err)
	assert.Assert(t, firstID != secondID)
}

func TestAppMetrics(t *testing.T) {
	t.Parallel()
	app := buildTestApp(t)

	toptest.TestRequest(t, app, toptest.HTTPTestCase{
		Request:  toptest.HTTPTestCaseRequest{Method: http.MethodGet, Path: "/home/post/count"},
		Expected: toptest.HTTPTestCaseResponse{Status: http.StatusOK, Body: map[string]int64{"count": 0}},
	})

	recorder := httptest.NewRecorder()
	app.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, recorder.Code, http.StatusOK)
	assert.Assert(t, strings.Contains(recorder.Body.String(), "top_database_statements_total"))
}

func TestAppDecorators(t *testing.T) {
	t.Parallel()

	{ // Configured decorators wrap every action
		config := top.NewConfig()
		config.Decorators = []string{"shout"}

		app, err := top.NewApp(
			t.Context(),
			config,
			top.WithDecoratorFactory("shout", func() top.Decorator { return headerDecorator{} }),
			top.WithController("home", "index", func() any { return IndexController{} }),
		)
		assert.NilError(t, err)

		toptest.TestRequest(t, app, toptest.HTTPTestCase{
			Request:  toptest.HTTPTestCaseRequest{Method: http.MethodGet, Path: "/"},
			Expected: toptest.HTTPTestCaseResponse{Status: http.StatusOK, Body: strings.ToUpper(mockIndexResponse)},
		})
	}

	{ // Unknown decorator names fail at startup
		config := top.NewConfig()
		config.Decorators = []string{"missing"}

		_, err := top.NewApp(t.Context(), config)
		assert.ErrorIs(t, err, top.ErrUnknownDecorator)
	}
}

func TestAppHandlers(t *testing.T) {
	t.Parallel()

	app, err := top.NewApp(
		t.Context(),
		top.NewConfig(),
		top.WithHandler("/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		})),
	)
	assert.NilError(t, err)

	toptest.TestRequest(t, app, toptest.HTTPTestCase{
		Request:  toptest.HTTPTestCaseRequest{Method: http.MethodGet, Path: "/health"},
		Expected: toptest.HTTPTestCaseResponse{Status: http.StatusOK, Body: "ok"},
	})

	toptest.TestRequest(t, app, toptest.HTTPTestCase{
		Request:  toptest.HTTPTestCaseRequest{Method: http.MethodGet, Path: "/"},
		Expected: toptest.HTTPTestCaseResponse{Status: http.StatusNotFound, Body: map[string]string{"error": "module not found: home"}},
	})
}
