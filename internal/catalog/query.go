package catalog

import (
	"slices"
	"sort"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/techshop/internal/domain"
)

// Sort selects the product ordering of a query.
type Sort string

const (
	SortPopularity Sort = "popularity"
	SortPriceAsc   Sort = "price-asc"
	SortPriceDesc  Sort = "price-desc"
	SortNewest     Sort = "newest"
	SortNameAsc    Sort = "name-asc"
	SortNameDesc   Sort = "name-desc"
)

// Sorts lists the accepted sort options.
var Sorts = []Sort{SortPopularity, SortPriceAsc, SortPriceDesc, SortNewest, SortNameAsc, SortNameDesc}

// ColorAttributes are the attribute names treated as product colour.
var ColorAttributes = []string{"Цвет", "color"}

// Query filters and orders catalog products. Zero values disable a filter.
type Query struct {
	CategoryID string
	Text       string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Brands     []string
	Colors     []string
	Sort       Sort

	// Language drives name collation for the name sorts.
	Language language.Tag
}

// Facets summarises a product set for the filter sidebar.
type Facets struct {
	Brands   []string        `json:"brands"`
	Colors   []string        `json:"colors"`
	MinPrice decimal.Decimal `json:"minPrice"`
	MaxPrice decimal.Decimal `json:"maxPrice"`
}

// Search runs q over the catalog.
func (c *Catalog) Search(q Query) []domain.Product {
	src := c.products
	if q.CategoryID != "" {
		src = c.ByCategory(q.CategoryID)
	}

	needle := Fold(strings.TrimSpace(q.Text))
	var out []domain.Product
	for _, p := range src {
		if needle != "" && !matchesText(p, needle) {
			continue
		}
		if q.MinPrice != nil && p.Price.LessThan(*q.MinPrice) {
			continue
		}
		if q.MaxPrice != nil && p.Price.GreaterThan(*q.MaxPrice) {
			continue
		}
		if len(q.Brands) > 0 && !slices.Contains(q.Brands, p.Brand) {
			continue
		}
		if len(q.Colors) > 0 && !hasAnyColor(p, q.Colors) {
			continue
		}
		out = append(out, p)
	}

	SortProducts(out, q.Sort, q.Language)
	return out
}

// SortProducts orders products in place. Popularity keeps catalog order.
func SortProducts(products []domain.Product, by Sort, lang language.Tag) {
	switch by {
	case SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.LessThan(products[j].Price)
		})
	case SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.GreaterThan(products[j].Price)
		})
	case SortNewest:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].DateAdded.After(products[j].DateAdded)
		})
	case SortNameAsc, SortNameDesc:
		col := collate.New(lang)
		desc := by == SortNameDesc
		sort.SliceStable(products, func(i, j int) bool {
			cmp := col.CompareString(products[i].Name, products[j].Name)
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
}

// ValidSort reports whether s is an accepted sort option.
func ValidSort(s Sort) bool {
	return slices.Contains(Sorts, s)
}

// FacetsOf collects brands, colours and the price span of products.
func FacetsOf(products []domain.Product) Facets {
	var f Facets
	brands := map[string]bool{}
	colors := map[string]bool{}
	for i, p := range products {
		if p.Brand != "" && !brands[p.Brand] {
			brands[p.Brand] = true
			f.Brands = append(f.Brands, p.Brand)
		}
		for _, c := range colorsOf(p) {
			if !colors[c] {
				colors[c] = true
				f.Colors = append(f.Colors, c)
			}
		}
		if i == 0 || p.Price.LessThan(f.MinPrice) {
			f.MinPrice = p.Price
		}
		if i == 0 || p.Price.GreaterThan(f.MaxPrice) {
			f.MaxPrice = p.Price
		}
	}
	sort.Strings(f.Brands)
	sort.Strings(f.Colors)
	return f
}

// Fold lower-cases s and strips combining marks so "Café" matches "cafe".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

func matchesText(p domain.Product, needle string) bool {
	for _, field := range []string{p.Name, p.Description, p.CategoryName, p.Brand} {
		if field != "" && strings.Contains(Fold(field), needle) {
			return true
		}
	}
	return false
}

func colorsOf(p domain.Product) []string {
	var out []string
	for _, name := range ColorAttributes {
		out = append(out, p.Attributes[name]...)
	}
	return out
}

func hasAnyColor(p domain.Product, wanted []string) bool {
	for _, c := range colorsOf(p) {
		if slices.Contains(wanted, c) {
			return true
		}
	}
	return false
}
