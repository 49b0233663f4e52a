package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// Product is one immutable catalog entry. The matcher never mutates
// products; the catalog is shared read-only across all conversations.
type Product struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Available   bool   `json:"available"`
}

// Catalog holds the loaded product list and supports reload from the
// source file. Reads see a consistent snapshot.
type Catalog struct {
	mu       sync.RWMutex
	path     string
	products []Product
	logger   *slog.Logger
}

// Load reads the product file at path. When the file does not exist a
// sample catalog is written there first, matching first-run behavior.
func Load(path string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{path: path, logger: logger}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the product file, replacing the current snapshot.
func (c *Catalog) Reload() error {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		if err := c.writeSample(); err != nil {
			return err
		}
		data, err = os.ReadFile(c.path)
		if err != nil {
			return fmt.Errorf("read products: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("read products: %w", err)
	}

	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return fmt.Errorf("parse products: %w", err)
	}

	c.mu.Lock()
	c.products = products
	c.mu.Unlock()
	c.logger.Info("catalog_loaded", "path", c.path, "products", len(products))
	return nil
}

// Products returns the current snapshot in catalog insertion order.
func (c *Catalog) Products() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Static wraps a fixed product list, for tests and embedded use.
func Static(products []Product) *Catalog {
	return &Catalog{products: products, logger: slog.Default()}
}

func (c *Catalog) writeSample() error {
	data, err := json.MarshalIndent(sampleProducts, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("write sample products: %w", err)
	}
	c.logger.Info("catalog_sample_created", "path", c.path)
	return nil
}

var sampleProducts = []Product{
	{
		ID:          1,
		Name:        "Gaming Laptop",
		Price:       "1500",
		Currency:    "USD",
		Description: "High-performance gaming laptop with RTX 4070, 16GB RAM, perfect for gaming and work",
		Category:    "electronics",
		Available:   true,
	},
	{
		ID:          2,
		Name:        "Wireless Headphones",
		Price:       "200",
		Currency:    "USD",
		Description: "Premium noise-canceling wireless headphones with 30h battery life",
		Category:    "electronics",
		Available:   true,
	},
	{
		ID:          3,
		Name:        "Programming Course",
		Price:       "99",
		Currency:    "USD",
		Description: "Complete Python programming course for beginners to advanced level",
		Category:    "courses",
		Available:   true,
	},
}
