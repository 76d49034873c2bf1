package httpx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/catalog/internal/shared"
)

const (
	messageInternal    = "An unexpected error occurred."
	messageUnavailable = "The service is temporarily unavailable."
)

// HandlerFunc is an HTTP handler that reports failures by returning them.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ErrorMapper converts failures into the failed response envelope and the
// matching status code. It is the only place where that conversion happens.
type ErrorMapper struct {
	Logger *slog.Logger
	// Development exposes unclassified error detail to the client.
	Development bool
}

// NewErrorMapper constructs an ErrorMapper.
func NewErrorMapper(logger *slog.Logger, development bool) *ErrorMapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorMapper{Logger: logger, Development: development}
}

// Handle adapts fn to http.HandlerFunc, mapping any returned error.
func (m *ErrorMapper) Handle(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			m.Write(w, r, err)
		}
	}
}

// Write maps err to an envelope and writes it.
func (m *ErrorMapper) Write(w http.ResponseWriter, r *http.Request, err error) {
	status, body := m.Map(err)
	attrs := []any{
		slog.Int("status", status),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Any("error", err),
	}
	if status >= http.StatusInternalServerError {
		m.Logger.Error("request failed", attrs...)
	} else {
		m.Logger.Debug("request rejected", attrs...)
	}
	JSON(w, status, body)
}

// Map returns the status code and envelope for err.
func (m *ErrorMapper) Map(err error) (int, shared.Response[any]) {
	var (
		notFound     *shared.NotFoundError
		validation   *shared.ValidationError
		unauthorized *shared.UnauthorizedError
		forbidden    *shared.ForbiddenError
		notAllowed   *shared.MethodNotAllowedError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound, shared.NewFailure(notFound.Message, nil)
	case errors.As(err, &validation):
		return http.StatusBadRequest, shared.NewFailure(shared.DefaultValidationMessage, validation.Messages)
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized, shared.NewFailure(unauthorized.Error(), nil)
	case errors.As(err, &forbidden):
		return http.StatusForbidden, shared.NewFailure(forbidden.Error(), nil)
	case errors.As(err, &notAllowed):
		return http.StatusMethodNotAllowed, shared.NewFailure(notAllowed.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, shared.NewFailure(m.detail(err, messageUnavailable), nil)
	default:
		return http.StatusInternalServerError, shared.NewFailure(m.detail(err, messageInternal), nil)
	}
}

func (m *ErrorMapper) detail(err error, safe string) string {
	if m.Development && err != nil {
		return err.Error()
	}
	return safe
}

// Recoverer turns panics into unclassified failures.
func (m *ErrorMapper) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				m.Logger.Error("panic recovered", slog.Any("panic", rec), slog.String("stack", string(debug.Stack())))
				m.Write(w, r, fmt.Errorf("panic: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// NotFound answers requests for unknown routes.
func (m *ErrorMapper) NotFound(w http.ResponseWriter, r *http.Request) {
	m.Write(w, r, &shared.NotFoundError{Message: "Route " + r.URL.Path + " Not Found."})
}

// MethodNotAllowed answers requests using an unsupported method.
func (m *ErrorMapper) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	m.Write(w, r, &shared.MethodNotAllowedError{Method: r.Method})
}
