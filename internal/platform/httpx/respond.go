// Package httpx provides the JSON response helpers and the error mapper that
// turns every failure into the response envelope.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/odyssey-erp/catalog/internal/shared"
)

// maxBodyBytes bounds request bodies decoded by DecodeJSON.
const maxBodyBytes = 1 << 20

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK sends data with status 200.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// DecodeJSON decodes the request body into target. Malformed or empty bodies
// are reported as validation failures so they reach the client as 400.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(target); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return shared.NewValidationError("A non-empty request body is required.")
		case errors.As(err, &typeErr):
			return shared.NewValidationError("The JSON value for '" + typeErr.Field + "' has an invalid type.")
		default:
			return shared.NewValidationError("The request body is not valid JSON.")
		}
	}
	return nil
}
