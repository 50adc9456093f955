package top

import (
	"net/http"

	"github.com/lunagic/poseidon/poseidon"
)

// Response is the final result of a dispatch, written to the client as text
// or JSON.
type Response struct {
	Status  int
	Headers http.Header
	Text    string
	JSON    any
	isJSON  bool
}

func TextResponse(status int, text string) *Response {
	return &Response{
		Status:  status,
		Headers: http.Header{},
		Text:    text,
	}
}

func JSONResponse(status int, value any) *Response {
	return &Response{
		Status:  status,
		Headers: http.Header{},
		JSON:    value,
		isJSON:  true,
	}
}

func (response *Response) IsJSON() bool {
	return response.isJSON
}

func (response *Response) write(w http.ResponseWriter) {
	for key, values := range response.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}

	status := response.Status
	if status == 0 {
		status = http.StatusOK
	}

	if response.isJSON {
		poseidon.RespondJSON(w, status, response.JSON)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(response.Text))
}
