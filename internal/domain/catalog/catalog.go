package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/furniture-market/internal/infrastructure/store"
)

// All is the filter value that matches every category or condition
const MatchAll = "all"

const DefaultPerPage = 12

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidCatalog  = errors.New("invalid catalog")
)

//go:embed seed.yaml
var seed []byte

type Dimensions struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
	Depth  float64 `yaml:"depth" json:"depth"`
}

// Product is a read-only catalog entry
type Product struct {
	ID            string     `yaml:"id" json:"id" validate:"required"`
	Name          string     `yaml:"name" json:"name" validate:"required"`
	Price         float64    `yaml:"price" json:"price" validate:"gte=0"`
	Image         string     `yaml:"image" json:"image"`
	Images        []string   `yaml:"images,omitempty" json:"images,omitempty"`
	Category      string     `yaml:"category" json:"category" validate:"required"`
	Condition     string     `yaml:"condition" json:"condition" validate:"required"`
	Dimensions    Dimensions `yaml:"dimensions" json:"dimensions"`
	Seller        string     `yaml:"seller" json:"seller"`
	SellerID      string     `yaml:"sellerId,omitempty" json:"sellerId,omitempty"`
	Description   string     `yaml:"description" json:"description"`
	AcceptsBarter bool       `yaml:"acceptsBarter" json:"acceptsBarter"`
	Material      string     `yaml:"material,omitempty" json:"material,omitempty"`
	Color         string     `yaml:"color,omitempty" json:"color,omitempty"`
	Weight        string     `yaml:"weight,omitempty" json:"weight,omitempty"`
}

// Catalog is an immutable product list
type Catalog struct {
	products []Product
}

// Default returns the built-in seed catalog
func Default() *Catalog {
	c, err := Parse(seed)
	if err != nil {
		panic(fmt.Sprintf("catalog: bad seed data: %v", err))
	}
	return c
}

// LoadFile reads a YAML product list
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML product list. Ids must be unique.
func Parse(data []byte) (*Catalog, error) {
	var products []Product
	if err := yaml.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	seen := make(map[string]bool, len(products))
	for i := range products {
		if err := store.Validate(&products[i]); err != nil {
			return nil, fmt.Errorf("%w: product %d: %v", ErrInvalidCatalog, i, err)
		}
		if seen[products[i].ID] {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidCatalog, products[i].ID)
		}
		seen[products[i].ID] = true
	}
	return &Catalog{products: products}, nil
}

// All returns every product in catalog order
func (c *Catalog) All() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Find looks a product up by id
func (c *Catalog) Find(id string) (Product, error) {
	for _, p := range c.products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrProductNotFound
}

// Query narrows the catalog. Empty fields and "all" match everything.
type Query struct {
	Search    string
	Category  string
	Condition string
}

// Filter returns the products matching q in catalog order
func (c *Catalog) Filter(q Query) []Product {
	return FilterProducts(c.products, q)
}

// FilterProducts keeps the items matching q, preserving their order
func FilterProducts(items []Product, q Query) []Product {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := []Product{}
	for _, p := range items {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if !matches(q.Category, p.Category) || !matches(q.Condition, p.Condition) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matches(want, got string) bool {
	return want == "" || want == MatchAll || want == got
}

// Categories lists the distinct categories in catalog order
func (c *Catalog) Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range c.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out
}

type Page struct {
	Items      []Product
	Page       int
	TotalPages int
	Total      int
}

// Paginate cuts one 1-based page out of items. Pages past the end are
// empty; page numbers below 1 are treated as 1.
func Paginate(items []Product, page, perPage int) Page {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page < 1 {
		page = 1
	}

	total := len(items)
	totalPages := (total + perPage - 1) / perPage
	start := (page - 1) * perPage
	end := min(start+perPage, total)

	p := Page{Page: page, TotalPages: totalPages, Total: total, Items: []Product{}}
	if start < total {
		p.Items = items[start:end]
	}
	return p
}
