package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/catalog/internal/shared"
)

// Service implements the product use cases. It keeps no state between calls.
type Service struct {
	repo        Repository
	validate    *validator.Validate
	maxPageSize int
}

// NewService constructs a Service. maxPageSize bounds list requests.
func NewService(repo Repository, maxPageSize int) *Service {
	return &Service{repo: repo, validate: newValidator(), maxPageSize: maxPageSize}
}

// List returns one page of products.
func (s *Service) List(ctx context.Context, pageNumber, pageSize int) (shared.PagedResponse[ProductSummary], error) {
	page := shared.NewPage(pageNumber, pageSize, s.maxPageSize)
	items, err := s.repo.GetPage(ctx, page.Number, page.Size)
	if err != nil {
		return shared.PagedResponse[ProductSummary]{}, fmt.Errorf("products: list: %w", err)
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return shared.PagedResponse[ProductSummary]{}, fmt.Errorf("products: count: %w", err)
	}
	return shared.NewPagedResponse(toSummaries(items), page, total), nil
}

// Get returns the product with id.
func (s *Service) Get(ctx context.Context, id int64) (shared.Response[ProductResponse], error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return shared.Response[ProductResponse]{}, err
	}
	return shared.NewResponse(toResponse(product)), nil
}

// Create validates req, enforces barcode uniqueness and stores a new product.
func (s *Service) Create(ctx context.Context, req CreateProductRequest) (shared.Response[int64], error) {
	if err := s.validateStruct(req); err != nil {
		return shared.Response[int64]{}, err
	}
	unique, err := s.repo.IsBarcodeUnique(ctx, req.Barcode)
	if err != nil {
		return shared.Response[int64]{}, fmt.Errorf("products: create: %w", err)
	}
	if !unique {
		return shared.Response[int64]{}, duplicateBarcode(req.Barcode)
	}
	created, err := s.repo.Add(ctx, req.toProduct())
	if err != nil {
		return shared.Response[int64]{}, wrap("create", err)
	}
	return shared.NewResponse(created.ID), nil
}

// Update overwrites name, description and rate of the product with id.
func (s *Service) Update(ctx context.Context, id int64, req UpdateProductRequest) (shared.Response[int64], error) {
	if err := s.validateStruct(req); err != nil {
		return shared.Response[int64]{}, err
	}
	if req.ID != id {
		return shared.Response[int64]{}, shared.NewValidationError("The route id does not match the body id.")
	}
	product, err := s.load(ctx, id)
	if err != nil {
		return shared.Response[int64]{}, err
	}
	product.Name = req.Name
	product.Description = req.Description
	product.Rate = req.Rate
	if err := s.repo.Update(ctx, product); err != nil {
		return shared.Response[int64]{}, wrap("update", err)
	}
	return shared.NewResponse(product.ID), nil
}

// Delete removes the product with id.
func (s *Service) Delete(ctx context.Context, id int64) (shared.Response[int64], error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return shared.Response[int64]{}, err
	}
	if err := s.repo.Delete(ctx, product); err != nil {
		return shared.Response[int64]{}, wrap("delete", err)
	}
	return shared.NewResponse(product.ID), nil
}

func (s *Service) load(ctx context.Context, id int64) (Product, error) {
	product, ok, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Product{}, fmt.Errorf("products: get %d: %w", id, err)
	}
	if !ok {
		return Product{}, shared.NotFound(ResourceName)
	}
	return product, nil
}

// wrap keeps typed failures intact. A record removed between load and write
// surfaces as not found.
func wrap(op string, err error) error {
	var validation *shared.ValidationError
	switch {
	case errors.As(err, &validation):
		return err
	case errors.Is(err, shared.ErrNotFound):
		return shared.NotFound(ResourceName)
	default:
		return fmt.Errorf("products: %s: %w", op, err)
	}
}
