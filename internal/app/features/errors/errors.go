// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/tccsite/internal/app/store/content"
	"github.com/dalemusser/tccsite/internal/app/store/kv"
	"github.com/dalemusser/tccsite/internal/app/system/migrate"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": msg} with the given status.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, errorBody{Error: msg})
}

// Status maps a domain error to its HTTP status and client message.
func Status(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case stderrors.Is(err, kv.ErrUnavailable):
		return http.StatusServiceUnavailable, "Content store unavailable"
	case stderrors.Is(err, kv.ErrVersionConflict):
		return http.StatusConflict, "Content was modified concurrently; retry the request"
	case stderrors.Is(err, migrate.ErrRunning):
		return http.StatusConflict, "A migration is already running"
	case stderrors.Is(err, content.ErrConflict):
		return http.StatusConflict, err.Error()
	case stderrors.Is(err, content.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case stderrors.Is(err, content.ErrUnknownCollection), stderrors.Is(err, content.ErrNotFound):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// ErrorLogger logs failed requests and writes the JSON error response.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger}
}

// Respond classifies err, logs it at a level matching its status and
// writes the response. Internal errors never reach the client verbatim.
func (e *ErrorLogger) Respond(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status, userMsg := Status(err)
	fields := e.fields(r, err)
	switch {
	case status >= http.StatusInternalServerError:
		e.Log.Error(msg, fields...)
	case status == http.StatusServiceUnavailable, status == http.StatusConflict:
		e.Log.Warn(msg, fields...)
	default:
		e.Log.Debug(msg, fields...)
	}
	WriteError(w, status, userMsg)
}

// LogBadRequest logs a client error and responds 400 with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Debug(msg, e.fields(r, err)...)
	WriteError(w, http.StatusBadRequest, userMsg)
}

// LogServerError logs err and responds 500 with userMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Error(msg, e.fields(r, err)...)
	WriteError(w, http.StatusInternalServerError, userMsg)
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	fields := []zap.Field{
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	return fields
}

// NotFound is the router's JSON 404 handler.
func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, "Not found")
}

// MethodNotAllowed is the router's JSON 405 handler.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
