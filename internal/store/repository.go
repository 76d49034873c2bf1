// Package store defines the generic entity repository and its bindings to the
// entity stores: PostgreSQL for deployments and an in-process map for
// development and tests.
package store

import (
	"context"
	"errors"
	"math"
)

// ErrDuplicate is returned when the store rejects a write because of a unique constraint.
var ErrDuplicate = errors.New("store: duplicate entry")

// Entity is any record addressed by an integer identifier.
type Entity interface {
	EntityID() int64
}

// Repository is the CRUD and paging contract every entity repository offers.
// Absence is reported by GetByID's bool, never as an error.
type Repository[T Entity] interface {
	GetByID(ctx context.Context, id int64) (T, bool, error)
	// GetPage returns records in ascending id order, skipping
	// (pageNumber-1)*pageSize of them. Pages beyond the data are empty.
	GetPage(ctx context.Context, pageNumber, pageSize int) ([]T, error)
	Count(ctx context.Context) (int, error)
	// GetAll scans the whole collection. Only trusted internal callers use it.
	GetAll(ctx context.Context) ([]T, error)
	// Add persists entity and returns it with its generated identifier.
	Add(ctx context.Context, entity T) (T, error)
	// Update replaces every field of the record with entity's id.
	Update(ctx context.Context, entity T) error
	Delete(ctx context.Context, entity T) error
}

// offset reports the records skipped before a page. ok is false when the
// offset does not fit in an int, so the page lies beyond any stored data.
func offset(pageNumber, pageSize int) (skip int, ok bool) {
	if pageNumber < 1 || pageSize < 1 {
		return 0, true
	}
	if pageNumber-1 > math.MaxInt/pageSize {
		return 0, false
	}
	return (pageNumber - 1) * pageSize, true
}
