package products

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/catalog/internal/platform/httpx"
	"github.com/odyssey-erp/catalog/internal/shared"
)

// Handler exposes the product API.
type Handler struct {
	service *Service
	errors  *httpx.ErrorMapper
}

// NewHandler constructs a Handler.
func NewHandler(service *Service, errors *httpx.ErrorMapper) *Handler {
	return &Handler{service: service, errors: errors}
}

// MountRoutes registers product routes. Authorization is applied by the caller.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.errors.Handle(h.list))
	r.Post("/", h.errors.Handle(h.create))
	r.Get("/{id}", h.errors.Handle(h.get))
	r.Put("/{id}", h.errors.Handle(h.update))
	r.Delete("/{id}", h.errors.Handle(h.delete))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) error {
	page, err := shared.ParsePage(r.URL.Query(), h.service.maxPageSize)
	if err != nil {
		return err
	}
	resp, err := h.service.List(r.Context(), page.Number, page.Size)
	if err != nil {
		return err
	}
	httpx.OK(w, resp)
	return nil
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) error {
	id, err := productID(r)
	if err != nil {
		return err
	}
	resp, err := h.service.Get(r.Context(), id)
	if err != nil {
		return err
	}
	httpx.OK(w, resp)
	return nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) error {
	var req CreateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		return err
	}
	resp, err := h.service.Create(r.Context(), req)
	if err != nil {
		return err
	}
	httpx.OK(w, resp)
	return nil
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) error {
	id, err := productID(r)
	if err != nil {
		return err
	}
	var req UpdateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		return err
	}
	resp, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		return err
	}
	httpx.OK(w, resp)
	return nil
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) error {
	id, err := productID(r)
	if err != nil {
		return err
	}
	resp, err := h.service.Delete(r.Context(), id)
	if err != nil {
		return err
	}
	httpx.OK(w, resp)
	return nil
}

func productID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, shared.NewValidationError("The value '" + raw + "' is not a valid id.")
	}
	return id, nil
}
