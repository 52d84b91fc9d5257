// Package http provides HTTP server and handler implementations.
//
// This file implements a small builder for JSON responses and the mapping
// from ledger errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"saldo/internal/core"
)

// retryAfterSeconds is advertised with every 503 caused by a transient storage failure.
const retryAfterSeconds = 2

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value to encode. A nil body writes no content.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(payload, '\n'))
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(ErrorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnauthorizedError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message)
}

func NotFoundError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, "not found")
}

// ValidationErrorResponse creates a 422 carrying field-level detail.
func ValidationErrorResponse(fields map[string]string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusUnprocessableEntity).
		Body(ErrorBody{Error: "validation failed", Fields: fields})
}

// UnavailableError creates a 503 telling the client it may resubmit.
func UnavailableError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusServiceUnavailable, "temporary storage failure, nothing was saved; please retry").
		Header("Retry-After", strconv.Itoa(retryAfterSeconds))
}

func TooManyRequestsError(retryAfter int) *JSONResponseBuilder {
	if retryAfter < 1 {
		retryAfter = 1
	}
	return ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").
		Header("Retry-After", strconv.Itoa(retryAfter))
}

func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal error")
}

// ResponseForError maps a service error onto its HTTP response.
func ResponseForError(err error) *JSONResponseBuilder {
	var (
		ve *core.ValidationError
		de *decodeError
	)
	switch {
	case errors.Is(err, errMissingIdentity), errors.Is(err, errBadIdentity):
		return UnauthorizedError(err.Error())
	case errors.As(err, &de):
		return BadRequestError(de.Error())
	case errors.As(err, &ve):
		return ValidationErrorResponse(ve.Fields)
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError()
	case errors.Is(err, core.ErrTransient):
		return UnavailableError()
	default:
		return InternalServerError()
	}
}
