package products

import "github.com/jackc/pgx/v5"

// ResourceName is used in client-facing messages about products.
const ResourceName = "Product"

// Product is a catalog entry. Barcode is unique across live products.
type Product struct {
	ID          int64
	Name        string
	Barcode     string
	Description string
	Rate        float64
}

// EntityID implements store.Entity.
func (p Product) EntityID() int64 {
	return p.ID
}

func withID(p Product, id int64) Product {
	p.ID = id
	return p
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Barcode, &p.Description, &p.Rate)
	return p, err
}

func productValues(p Product) []any {
	return []any{p.Name, p.Barcode, p.Description, p.Rate}
}
