// This file implements the Builder Pattern for constructing JSON responses.
// Every payload travels in the same envelope: {"data": ...} on success,
// {"error": {"code", "message"}} on failure, so clients can switch on one
// shape.

package http

import (
	"encoding/json"
	"net/http"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	data       interface{}
	errCode    string
	errMessage string
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Data  interface{} `json:"data,omitempty"`
	Error *errorBody  `json:"error,omitempty"`
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the success payload.
func (b *JSONResponseBuilder) Data(v interface{}) *JSONResponseBuilder {
	b.data = v
	return b
}

// Error sets a typed error payload. The code is a stable machine-readable
// identifier; the message is for humans.
func (b *JSONResponseBuilder) Error(code, message string) *JSONResponseBuilder {
	b.errCode = code
	b.errMessage = message
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)

	env := envelope{Data: b.data}
	if b.errCode != "" {
		env.Error = &errorBody{Code: b.errCode, Message: b.errMessage}
	}
	_ = json.NewEncoder(w).Encode(env)
}

// MethodNotAllowedError builds a 405 response advertising the allowed methods.
func MethodNotAllowedError(allow string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allow).
		Error("method_not_allowed", "Method not allowed; use "+allow)
}
