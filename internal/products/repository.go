package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/odyssey-erp/catalog/internal/platform/db"
	"github.com/odyssey-erp/catalog/internal/shared"
	"github.com/odyssey-erp/catalog/internal/store"
)

// Repository adds product specific queries to the generic repository.
type Repository interface {
	store.Repository[Product]
	// IsBarcodeUnique reports whether no live product has exactly this barcode.
	IsBarcodeUnique(ctx context.Context, barcode string) (bool, error)
}

var productTable = store.Table[Product]{
	Name:    "products",
	Columns: []string{"name", "barcode", "description", "rate"},
	Scan:    scanProduct,
	Values:  productValues,
	WithID:  withID,
}

type pgRepository struct {
	*store.PGRepository[Product]
}

// NewRepository returns the PostgreSQL backed product repository.
func NewRepository(pool db.Pool) Repository {
	return &pgRepository{PGRepository: store.NewPGRepository(pool, productTable)}
}

func (r *pgRepository) IsBarcodeUnique(ctx context.Context, barcode string) (bool, error) {
	var taken bool
	query := "SELECT EXISTS (SELECT 1 FROM " + r.TableName() + " WHERE barcode = $1)"
	if err := r.Pool().QueryRow(ctx, query, barcode).Scan(&taken); err != nil {
		return false, fmt.Errorf("products: barcode lookup: %w", err)
	}
	return !taken, nil
}

// Add reports a duplicate barcode that slipped past the explicit check as a
// validation failure.
func (r *pgRepository) Add(ctx context.Context, p Product) (Product, error) {
	created, err := r.PGRepository.Add(ctx, p)
	if errors.Is(err, store.ErrDuplicate) {
		return Product{}, duplicateBarcode(p.Barcode)
	}
	return created, err
}

type memoryRepository struct {
	*store.MemoryRepository[Product]
}

// NewMemoryRepository returns a process local product repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{MemoryRepository: store.NewMemoryRepository(withID)}
}

func (r *memoryRepository) IsBarcodeUnique(ctx context.Context, barcode string) (bool, error) {
	taken, err := r.Exists(ctx, func(p Product) bool { return p.Barcode == barcode })
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// Add rejects a duplicate barcode under the store lock, so concurrent creates
// cannot both pass the explicit check.
func (r *memoryRepository) Add(ctx context.Context, p Product) (Product, error) {
	created, err := r.AddUnless(ctx, p, func(existing Product) bool { return existing.Barcode == p.Barcode })
	if errors.Is(err, store.ErrDuplicate) {
		return Product{}, duplicateBarcode(p.Barcode)
	}
	return created, err
}

func duplicateBarcode(barcode string) *shared.ValidationError {
	return shared.NewValidationError("Barcode '" + barcode + "' already exists.")
}
