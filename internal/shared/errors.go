package shared

import (
	"errors"
	"strings"
)

// DefaultValidationMessage is the envelope message accompanying validation errors.
const DefaultValidationMessage = "One or more validation failures have occurred."

// ErrNotFound is returned by stores when a record addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// NotFoundError reports a missing entity to the client (HTTP 404).
type NotFoundError struct {
	Message string
}

// NotFound builds the canonical "<Resource> Not Found." failure.
func NotFound(resource string) *NotFoundError {
	return &NotFoundError{Message: resource + " Not Found."}
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// ValidationError carries one or more client-facing messages (HTTP 400).
// Messages are kept verbatim and in the order they were reported.
type ValidationError struct {
	Messages []string
}

// NewValidationError builds a validation failure. With no messages the default
// message is used so the failure is never empty.
func NewValidationError(messages ...string) *ValidationError {
	if len(messages) == 0 {
		messages = []string{DefaultValidationMessage}
	}
	return &ValidationError{Messages: messages}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// UnauthorizedError reports a request without a usable identity (HTTP 401).
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	if e.Message == "" {
		return "unauthorized"
	}
	return e.Message
}

// ForbiddenError reports an identity lacking the required role (HTTP 403).
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	if e.Message == "" {
		return "forbidden"
	}
	return e.Message
}

// MethodNotAllowedError reports a known route used with an unsupported method (HTTP 405).
type MethodNotAllowedError struct {
	Method string
}

func (e *MethodNotAllowedError) Error() string {
	return "Method " + e.Method + " is not allowed."
}
