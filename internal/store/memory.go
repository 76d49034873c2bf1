package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/odyssey-erp/catalog/internal/shared"
)

// MemoryRepository implements Repository with a mutex guarded map. Writes are
// atomic per call, which matches the single-entity units of work of the
// PostgreSQL binding.
type MemoryRepository[T Entity] struct {
	mu     sync.RWMutex
	items  map[int64]T
	nextID int64
	withID func(T, int64) T
}

// NewMemoryRepository returns an empty repository. withID stamps generated
// identifiers onto added entities.
func NewMemoryRepository[T Entity](withID func(T, int64) T) *MemoryRepository[T] {
	return &MemoryRepository[T]{items: make(map[int64]T), nextID: 1, withID: withID}
}

func (r *MemoryRepository[T]) GetByID(ctx context.Context, id int64) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	return item, ok, nil
}

func (r *MemoryRepository[T]) GetPage(ctx context.Context, pageNumber, pageSize int) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pageSize < 1 {
		return []T{}, nil
	}
	start, ok := offset(pageNumber, pageSize)
	if !ok {
		return []T{}, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := r.sortedLocked()
	if start >= len(all) {
		return []T{}, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (r *MemoryRepository[T]) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}

func (r *MemoryRepository[T]) GetAll(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedLocked(), nil
}

func (r *MemoryRepository[T]) Add(ctx context.Context, entity T) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entity = r.withID(entity, r.nextID)
	r.items[r.nextID] = entity
	r.nextID++
	return entity, nil
}

// AddUnless adds entity unless a stored entity conflicts with it, in which
// case it returns ErrDuplicate. The check and the insert share one lock.
func (r *MemoryRepository[T]) AddUnless(ctx context.Context, entity T, conflicts func(T) bool) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if conflicts(item) {
			return zero, ErrDuplicate
		}
	}
	entity = r.withID(entity, r.nextID)
	r.items[r.nextID] = entity
	r.nextID++
	return entity, nil
}

func (r *MemoryRepository[T]) Update(ctx context.Context, entity T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := entity.EntityID()
	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("store: update %d: %w", id, shared.ErrNotFound)
	}
	r.items[id] = entity
	return nil
}

func (r *MemoryRepository[T]) Delete(ctx context.Context, entity T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := entity.EntityID()
	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("store: delete %d: %w", id, shared.ErrNotFound)
	}
	delete(r.items, id)
	return nil
}

// Exists reports whether any stored entity satisfies match.
func (r *MemoryRepository[T]) Exists(ctx context.Context, match func(T) bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items {
		if match(item) {
			return true, nil
		}
	}
	return false, nil
}

// Ping reports the store as available; it exists for health probes.
func (r *MemoryRepository[T]) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *MemoryRepository[T]) sortedLocked() []T {
	out := make([]T, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID() < out[j].EntityID() })
	return out
}
