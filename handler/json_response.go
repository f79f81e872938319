package handler

import (
	"encoding/json"
	"errors"
	"net/http"
)

// JSONResponse is the standard JSON response envelope.
type JSONResponse struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type jsonResponse struct {
	status  int
	headers http.Header
	body    JSONResponse
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	for k, vals := range j.headers {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures JSON response
type JSONOption func(*jsonResponse)

// WithJSONStatus sets custom HTTP status code
func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) {
		r.status = status
	}
}

// WithHeader adds a response header.
func WithHeader(key, value string) JSONOption {
	return func(r *jsonResponse) {
		if r.headers == nil {
			r.headers = make(http.Header)
		}
		r.headers.Add(key, value)
	}
}

// NoStore marks the response as non-cacheable.
// Use it on every response that carries secret material.
func NoStore() JSONOption {
	return func(r *jsonResponse) {
		WithHeader("Cache-Control", "no-store")(r)
		WithHeader("Pragma", "no-cache")(r)
	}
}

// JSON wraps v into the data envelope.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{
		status: http.StatusOK,
		body:   JSONResponse{Data: v},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError creates a JSON error response. HTTPError values keep their status
// and key; any other error becomes a 500 with a generic message so internal
// details never reach the client.
func JSONError(err error, opts ...JSONOption) Response {
	status, detail := errorToDetail(err)
	r := &jsonResponse{
		status: status,
		body:   JSONResponse{Error: detail},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func errorToDetail(err error) (int, *ErrorDetail) {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, &ErrorDetail{Code: httpErr.Key, Message: httpErr.Error()}
	}
	return http.StatusInternalServerError, &ErrorDetail{
		Code:    "internal_error",
		Message: http.StatusText(http.StatusInternalServerError),
	}
}
