package toptest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/topnuomi/top/top"
	"gotest.tools/v3/assert"
)

type HTTPTestCase struct {
	Request  HTTPTestCaseRequest
	Expected HTTPTestCaseResponse
}

type HTTPTestCaseRequest struct {
	Method   string
	Path     string
	Query    url.Values
	Body     any
	Headers  http.Header
	Modifier func(request *http.Request)
}

func (testCase HTTPTestCaseRequest) BuildRequest(t *testing.T) *http.Request {
	var body io.Reader
	if testCase.Body != nil {
		bodyBytes, err := json.Marshal(testCase.Body)
		assert.NilError(t, err)
		body = bytes.NewBuffer(bodyBytes)
	}

	requestURL := testCase.Path
	if len(testCase.Query) > 0 {
		requestURL += "?" + testCase.Query.Encode()
	}

	request := httptest.NewRequest(
		testCase.Method,
		requestURL,
		body,
	)

	if testCase.Headers != nil {
		request.Header = testCase.Headers
	}

	if testCase.Modifier != nil {
		testCase.Modifier(request)
	}

	return request
}

type HTTPTestCaseResponse struct {
	Status  int
	Headers http.Header
	Body    any
}

// TestRequest runs testCase against the app handler and asserts the status,
// the listed headers and the body. String bodies compare verbatim, anything
// else is compared as JSON. The recorder is returned for further checks.
func TestRequest(t *testing.T, app *top.App, testCase HTTPTestCase) *httptest.ResponseRecorder {
	t.Helper()

	recorder := httptest.NewRecorder()
	app.Handler().ServeHTTP(recorder, testCase.Request.BuildRequest(t))

	assert.Equal(t, testCase.Expected.Status, recorder.Code)

	for key := range testCase.Expected.Headers {
		assert.Equal(t, testCase.Expected.Headers.Get(key), recorder.Header().Get(key), "header %s", key)
	}

	responseBody := strings.TrimSpace(recorder.Body.String())
	expectedBody := ""
	switch typedBody := testCase.Expected.Body.(type) {
	case string:
		expectedBody = typedBody
	default:
		jsonBytes, err := json.Marshal(typedBody)
		assert.NilError(t, err)
		expectedBody = string(jsonBytes)
	}

	assert.Equal(t, expectedBody, responseBody)

	return recorder
}
