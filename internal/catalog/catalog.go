// Package catalog serves the static product catalog compiled into the binary.
//
// The catalog never changes during a process lifetime, so lookups are plain
// scans and map reads with no caching or invalidation. Returned slices are
// copies; callers may sort or filter them freely.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/roach88/techshop/internal/domain"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog is a read-only product and category index.
type Catalog struct {
	categories []domain.Category
	products   []domain.Product
	reviews    []domain.Review
	byID       map[string]int
}

type catalogFile struct {
	Categories []categoryRecord `yaml:"categories"`
	Products   []productRecord  `yaml:"products"`
	Reviews    []reviewRecord   `yaml:"reviews"`
}

type categoryRecord struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Slug     string `yaml:"slug"`
	ParentID string `yaml:"parent_id"`
}

type productRecord struct {
	ID          string              `yaml:"id"`
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Price       string              `yaml:"price"`
	ImageURL    string              `yaml:"image_url"`
	CategoryID  string              `yaml:"category_id"`
	Stock       int                 `yaml:"stock"`
	Features    []string            `yaml:"features"`
	Attributes  map[string][]string `yaml:"attributes"`
	SKU         string              `yaml:"sku"`
	Brand       string              `yaml:"brand"`
	DateAdded   string              `yaml:"date_added"`
}

type reviewRecord struct {
	ID        string `yaml:"id"`
	ProductID string `yaml:"product_id"`
	UserName  string `yaml:"user_name"`
	Rating    int    `yaml:"rating"`
	Comment   string `yaml:"comment"`
	Date      string `yaml:"date"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog embedded in the binary.
// Panics if the embedded data is invalid, which is a build defect.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(catalogYAML)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded data invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Load parses a catalog document. Unknown fields are rejected.
func Load(data []byte) (*Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{byID: make(map[string]int, len(file.Products))}

	names := make(map[string]string, len(file.Categories))
	for _, rec := range file.Categories {
		if rec.ID == "" || rec.Slug == "" {
			return nil, fmt.Errorf("category %q: id and slug are required", rec.Name)
		}
		names[rec.ID] = rec.Name
		c.categories = append(c.categories, domain.Category(rec))
	}
	for _, cat := range c.categories {
		if cat.ParentID != "" {
			if _, ok := names[cat.ParentID]; !ok {
				return nil, fmt.Errorf("category %s: unknown parent %s", cat.ID, cat.ParentID)
			}
		}
	}

	for _, rec := range file.Products {
		p, err := rec.toProduct(names)
		if err != nil {
			return nil, err
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("product %s: duplicate id", p.ID)
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}

	for _, rec := range file.Reviews {
		date, err := time.Parse(time.RFC3339, rec.Date)
		if err != nil {
			return nil, fmt.Errorf("review %s: invalid date: %w", rec.ID, err)
		}
		if _, ok := c.byID[rec.ProductID]; !ok {
			return nil, fmt.Errorf("review %s: unknown product %s", rec.ID, rec.ProductID)
		}
		c.reviews = append(c.reviews, domain.Review{
			ID:        rec.ID,
			ProductID: rec.ProductID,
			UserName:  rec.UserName,
			Rating:    rec.Rating,
			Comment:   rec.Comment,
			Date:      date,
		})
	}

	return c, nil
}

func (rec productRecord) toProduct(categoryNames map[string]string) (domain.Product, error) {
	if rec.ID == "" {
		return domain.Product{}, fmt.Errorf("product %q: id is required", rec.Name)
	}
	price, err := decimal.NewFromString(rec.Price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %s: invalid price %q: %w", rec.ID, rec.Price, err)
	}
	if price.IsNegative() {
		return domain.Product{}, fmt.Errorf("product %s: negative price", rec.ID)
	}
	if rec.Stock < 0 {
		return domain.Product{}, fmt.Errorf("product %s: negative stock", rec.ID)
	}
	categoryName, ok := categoryNames[rec.CategoryID]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %s: unknown category %s", rec.ID, rec.CategoryID)
	}
	added, err := time.Parse(time.RFC3339, rec.DateAdded)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %s: invalid date_added: %w", rec.ID, err)
	}
	return domain.Product{
		ID:           rec.ID,
		Name:         rec.Name,
		Description:  rec.Description,
		Price:        price,
		ImageURL:     rec.ImageURL,
		CategoryID:   rec.CategoryID,
		CategoryName: categoryName,
		Stock:        rec.Stock,
		Features:     rec.Features,
		Attributes:   rec.Attributes,
		Brand:        rec.Brand,
		SKU:          rec.SKU,
		DateAdded:    added,
	}, nil
}

// All returns every product in catalog order.
func (c *Catalog) All() []domain.Product {
	return append([]domain.Product(nil), c.products...)
}

// ByID looks up a product.
func (c *Catalog) ByID(id string) (domain.Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, false
	}
	return c.products[i], true
}

// ByCategory returns the products filed directly under categoryID.
func (c *Catalog) ByCategory(categoryID string) []domain.Product {
	var out []domain.Product
	for _, p := range c.products {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out
}

// Categories returns every category in catalog order.
func (c *Catalog) Categories() []domain.Category {
	return append([]domain.Category(nil), c.categories...)
}

// CategoryBySlug looks up a category by its URL slug.
func (c *Catalog) CategoryBySlug(slug string) (domain.Category, bool) {
	for _, cat := range c.categories {
		if cat.Slug == slug {
			return cat, true
		}
	}
	return domain.Category{}, false
}

// SeedReviews returns the reviews shipped with the catalog.
func (c *Catalog) SeedReviews() []domain.Review {
	return append([]domain.Review(nil), c.reviews...)
}
