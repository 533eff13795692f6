package product

import (
	"fmt"
	"os"
	"path/filepath"
)

// Registry holds all loaded products indexed by product ID.
type Registry struct {
	products map[string]*Product
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{products: make(map[string]*Product)}
}

// LoadProducts loads every product found under the given directory. Each
// immediate subdirectory containing a product.xml is loaded as one
// product.
func LoadProducts(dir string) (*Registry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access products directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("products path %q is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read products directory %q: %w", dir, err)
	}

	registry := NewRegistry()
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		productDir := filepath.Join(dir, entry.Name())
		if _, err := os.Stat(filepath.Join(productDir, "product.xml")); err != nil {
			continue
		}

		p, err := Load(productDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load product from %q: %w", productDir, err)
		}
		if err := registry.Add(p); err != nil {
			return nil, fmt.Errorf("failed to add product from %q: %w", productDir, err)
		}
	}

	if registry.Count() == 0 {
		return nil, fmt.Errorf("no products found in %q", dir)
	}
	return registry, nil
}

// Add registers a product. Returns an error if a product with the same ID
// already exists.
func (r *Registry) Add(p *Product) error {
	if p == nil {
		return fmt.Errorf("cannot add nil product")
	}
	if _, exists := r.products[p.ID()]; exists {
		return fmt.Errorf("product with ID %q already exists", p.ID())
	}
	r.products[p.ID()] = p
	return nil
}

// Get retrieves a product by ID. Returns nil if it does not exist.
func (r *Registry) Get(id string) *Product {
	return r.products[id]
}

// Has checks whether a product with the given ID is registered.
func (r *Registry) Has(id string) bool {
	_, exists := r.products[id]
	return exists
}

// IDs returns all registered product IDs.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.products))
	for id := range r.products {
		ids = append(ids, id)
	}
	return ids
}

// All returns all registered products.
func (r *Registry) All() []*Product {
	products := make([]*Product, 0, len(r.products))
	for _, p := range r.products {
		products = append(products, p)
	}
	return products
}

// Count returns the number of registered products.
func (r *Registry) Count() int {
	return len(r.products)
}
