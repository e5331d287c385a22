package catalog

import "context"

type Product struct {
	ID          int     `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Price       float64 `json:"price" yaml:"price"`
	Quantity    int     `json:"quantity" yaml:"quantity"`
}

// Store is the product repository. A missing product is reported through the
// found flag; errors mean the backend itself failed.
//
// Ids are caller supplied and never checked for uniqueness. Get, Update and
// Delete act on the first product, in insertion order, that carries the id.
type Store interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int) (Product, bool, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, id int, p Product) (bool, error)
	Delete(ctx context.Context, id int) (bool, error)
	Count(ctx context.Context) (int, error)
	// Seed inserts products in order, all or none, when the store is empty.
	// It reports how many were inserted.
	Seed(ctx context.Context, products []Product) (int, error)
	Ping(ctx context.Context) error
}

// overwrite copies every mutable field of src onto dst. The id is kept.
func overwrite(dst *Product, src Product) {
	dst.Name = src.Name
	dst.Description = src.Description
	dst.Price = src.Price
	dst.Quantity = src.Quantity
}
