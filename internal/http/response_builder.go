package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"financeflow/internal/core"
	applog "financeflow/internal/log"
)

// Machine-readable error codes carried in every error body.
const (
	codeNotFound           = "not_found"
	codeConflict           = "conflict"
	codeInvalidArgument    = "invalid_argument"
	codePreconditionFailed = "precondition_failed"
	codeBadRequest         = "bad_request"
	codeInternal           = "internal"
	codeMethodNotAllowed   = "method_not_allowed"
	codeRateLimited        = "rate_limited"
	codeUnavailable        = "unavailable"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	data       any
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

// Data sets the value encoded as the response body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.data = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}

	body, err := json.Marshal(b.data)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response","code":"internal"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(body)
	_, _ = w.Write([]byte("\n"))
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Data(errorBody{Error: message, Code: code})
}

// statusFor maps the domain error taxonomy onto HTTP.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict, codeConflict
	case errors.Is(err, core.ErrInvalidArgument):
		return http.StatusUnprocessableEntity, codeInvalidArgument
	case errors.Is(err, core.ErrPreconditionFailed):
		return http.StatusPreconditionFailed, codePreconditionFailed
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// writeError renders err. Server-side failures are logged and their detail hidden.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		ctx := r.Context()
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx, "Request failed", err, applog.OpRequest,
			applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")))
		msg = "internal error"
	}
	ErrorResponse(status, code, msg).Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Data(v).Write(w)
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
