package products

// CreateProductRequest is the body of POST /api/product.
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Barcode     string  `json:"barcode" validate:"required,max=64"`
	Description string  `json:"description" validate:"max=1024"`
	Rate        float64 `json:"rate" validate:"gte=0"`
}

// UpdateProductRequest is the body of PUT /api/product/{id}. Barcode is not
// mutable.
type UpdateProductRequest struct {
	ID          int64   `json:"id" validate:"required,gt=0"`
	Name        string  `json:"name" validate:"required,max=255"`
	Description string  `json:"description" validate:"max=1024"`
	Rate        float64 `json:"rate" validate:"gte=0"`
}

// ProductResponse is the payload for a single product.
type ProductResponse struct {
	Name        string  `json:"name"`
	Barcode     string  `json:"barcode"`
	Description string  `json:"description"`
	Rate        float64 `json:"rate"`
}

// ProductSummary is one row of a product page.
type ProductSummary struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Barcode     string  `json:"barcode"`
	Description string  `json:"description"`
	Rate        float64 `json:"rate"`
}

func toResponse(p Product) ProductResponse {
	return ProductResponse{Name: p.Name, Barcode: p.Barcode, Description: p.Description, Rate: p.Rate}
}

func toSummaries(items []Product) []ProductSummary {
	out := make([]ProductSummary, 0, len(items))
	for _, p := range items {
		out = append(out, ProductSummary{ID: p.ID, Name: p.Name, Barcode: p.Barcode, Description: p.Description, Rate: p.Rate})
	}
	return out
}

func (r CreateProductRequest) toProduct() Product {
	return Product{Name: r.Name, Barcode: r.Barcode, Description: r.Description, Rate: r.Rate}
}
