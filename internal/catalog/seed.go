package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultSeed is the catalog every fresh deployment starts with.
func DefaultSeed() []Product {
	return []Product{
		{ID: 1, Name: "Fortixion Hyunyan v0 Phone", Description: "Flagship Model", Price: 99, Quantity: 10},
		{ID: 2, Name: "ASUS ROG Gaming Laptop", Description: "Flagship Premium Model", Price: 999, Quantity: 5},
	}
}

type seedFile struct {
	Products []Product `yaml:"products"`
}

// LoadSeedFile reads a YAML fixture of the form
//
//	products:
//	  - {id: 1, name: Phone, description: Flagship, price: 99, quantity: 10}
func LoadSeedFile(path string) ([]Product, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if len(f.Products) == 0 {
		return nil, fmt.Errorf("seed file %s has no products", path)
	}
	return f.Products, nil
}

// SeedIfEmpty inserts products in order when the store holds nothing yet and
// reports how many were inserted. A failure inserts nothing, so the next start
// seeds again.
func SeedIfEmpty(ctx context.Context, s Store, products []Product) (int, error) {
	n, err := s.Seed(ctx, products)
	if err != nil {
		return 0, fmt.Errorf("seed products: %w", err)
	}
	return n, nil
}
