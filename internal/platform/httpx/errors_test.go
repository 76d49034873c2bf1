package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/catalog/internal/shared"
)

func TestMapFailureKinds(t *testing.T) {
	m := NewErrorMapper(nil, false)

	cases := []struct {
		name    string
		err     error
		status  int
		message string
		errs    []string
	}{
		{"not found", fmt.Errorf("wrapped: %w", shared.NotFound("Product")), http.StatusNotFound, "Product Not Found.", nil},
		{"validation", shared.NewValidationError("a", "b"), http.StatusBadRequest, shared.DefaultValidationMessage, []string{"a", "b"}},
		{"unauthorized", &shared.UnauthorizedError{Message: "who?"}, http.StatusUnauthorized, "who?", nil},
		{"forbidden", &shared.ForbiddenError{}, http.StatusForbidden, "forbidden", nil},
		{"method", &shared.MethodNotAllowedError{Method: "PATCH"}, http.StatusMethodNotAllowed, "Method PATCH is not allowed.", nil},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), http.StatusServiceUnavailable, messageUnavailable, nil},
		{"unclassified", errors.New("db password is hunter2"), http.StatusInternalServerError, messageInternal, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := m.Map(tc.err)
			assert.Equal(t, tc.status, status)
			assert.False(t, body.Succeeded)
			assert.Equal(t, tc.message, body.Message)
			assert.Equal(t, tc.errs, body.Errors)
		})
	}
}

func TestMapDevelopmentExposesDetail(t *testing.T) {
	status, body := NewErrorMapper(nil, true).Map(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "boom", body.Message)
}

func TestHandleWritesEnvelope(t *testing.T) {
	m := NewErrorMapper(nil, false)
	h := m.Handle(func(http.ResponseWriter, *http.Request) error {
		return shared.NewValidationError("'name' must not be empty.")
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/api/product", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []any{"'name' must not be empty."}, body["errors"])
}

func TestMethodNotAllowedIsLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m := NewErrorMapper(logger, false)

	rec := httptest.NewRecorder()
	m.MethodNotAllowed(rec, httptest.NewRequest(http.MethodPatch, "/api/product", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	var body shared.Response[any]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Succeeded)
	assert.Equal(t, "Method PATCH is not allowed.", body.Message)
	assert.Contains(t, logs.String(), "status=405")
	assert.Contains(t, logs.String(), "path=/api/product")
}

func TestRecovererWritesUnclassifiedFailure(t *testing.T) {
	m := NewErrorMapper(nil, false)
	h := m.Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "kaboom")
}

func TestDecodeJSON(t *testing.T) {
	var target struct {
		Rate float64 `json:"rate"`
	}
	cases := map[string]string{
		"":             "A non-empty request body is required.",
		`{"rate":`:     "The request body is not valid JSON.",
		`{"rate":"x"}`: "The JSON value for 'rate' has an invalid type.",
	}
	for body, want := range cases {
		err := DecodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), &target)
		var validation *shared.ValidationError
		require.True(t, errors.As(err, &validation), body)
		assert.Equal(t, []string{want}, validation.Messages)
	}

	require.NoError(t, DecodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rate":2.5}`)), &target))
	assert.Equal(t, 2.5, target.Rate)
}
