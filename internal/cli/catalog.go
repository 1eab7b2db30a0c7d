package cli

import (
	"context"
	"fmt"
	"io"
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/techshop/internal/catalog"
	"github.com/roach88/techshop/internal/domain"
)

// CatalogListOptions holds flags for catalog list.
type CatalogListOptions struct {
	*RootOptions
	Category string
	Text     string
	Min      string
	Max      string
	Brands   []string
	Colors   []string
	Sort     string
}

// ProductList is the JSON payload of catalog list.
type ProductList struct {
	Products []domain.Product `json:"products"`
	Facets   catalog.Facets   `json:"facets"`
}

// ProductDetail is the JSON payload of catalog show.
type ProductDetail struct {
	Product     domain.Product `json:"product"`
	Rating      string         `json:"rating"`
	ReviewCount int            `json:"reviewCount"`
	Saved       bool           `json:"saved"`
}

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse products and categories",
	}
	cmd.AddCommand(newCatalogListCommand(rootOpts))
	cmd.AddCommand(&cobra.Command{
		Use:   "show <product-id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE:  withShop(rootOpts, showProduct),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE:  withShop(rootOpts, listCategories),
	})
	return cmd
}

func newCatalogListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search and filter products",
		Long: `List catalog products.

Filters combine: every given filter must match. Text search ignores case and
diacritics and looks at the name, description, category and brand.

Examples:
  techshop catalog list --category smartphones --sort price-asc
  techshop catalog list --q headphones --max 250
  techshop catalog list --brand Nova --brand TechFit`,
		Args: cobra.NoArgs,
		RunE: withShop(rootOpts, func(ctx context.Context, s *session, args []string) error {
			return listProducts(s, opts)
		}),
	}

	cmd.Flags().StringVar(&opts.Category, "category", "", "category slug")
	cmd.Flags().StringVar(&opts.Text, "q", "", "search text")
	cmd.Flags().StringVar(&opts.Min, "min", "", "minimum price")
	cmd.Flags().StringVar(&opts.Max, "max", "", "maximum price")
	cmd.Flags().StringArrayVar(&opts.Brands, "brand", nil, "brand (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Colors, "color", nil, "colour (repeatable)")
	cmd.Flags().StringVar(&opts.Sort, "sort", string(catalog.SortPopularity), "sort order")

	return cmd
}

func listProducts(s *session, opts *CatalogListOptions) error {
	q := catalog.Query{
		Text:     opts.Text,
		Brands:   opts.Brands,
		Colors:   opts.Colors,
		Sort:     catalog.Sort(opts.Sort),
		Language: s.shop.T.Lang().Tag(),
	}
	if !catalog.ValidSort(q.Sort) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid sort %q: must be one of %v", opts.Sort, catalog.Sorts))
	}
	if opts.Category != "" {
		cat, ok := s.shop.Catalog.CategoryBySlug(opts.Category)
		if !ok {
			return NewExitError(ExitCommandError, fmt.Sprintf("unknown category %q", opts.Category))
		}
		q.CategoryID = cat.ID
	}
	var err error
	if q.MinPrice, err = parsePrice("min", opts.Min); err != nil {
		return err
	}
	if q.MaxPrice, err = parsePrice("max", opts.Max); err != nil {
		return err
	}

	products := s.shop.Catalog.Search(q)
	s.logger.Debug("catalog search", "query", opts.Text, "results", len(products))

	data := ProductList{Products: products, Facets: catalog.FacetsOf(products)}
	if data.Products == nil {
		data.Products = []domain.Product{}
	}
	return s.out.Render(data, func(w io.Writer) error {
		if len(products) == 0 {
			_, err := fmt.Fprintln(w, s.shop.T.T("catalog.none", nil))
			return err
		}
		tw := newTable(w)
		fmt.Fprintln(tw, "ID\tNAME\tBRAND\tPRICE\tSTOCK")
		for _, p := range products {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Brand, p.Price.StringFixed(2), p.Stock)
		}
		return tw.Flush()
	})
}

func parsePrice(flag, value string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil || d.IsNegative() {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid --%s %q: must be a non-negative amount", flag, value))
	}
	return &d, nil
}

func showProduct(ctx context.Context, s *session, args []string) error {
	p, err := s.shop.Product(args[0])
	if err != nil {
		return err
	}
	avg, count := s.shop.Reviews.Average(p.ID)
	data := ProductDetail{
		Product:     p,
		Rating:      avg.StringFixed(1),
		ReviewCount: count,
		Saved:       s.shop.Wishlist.Contains(p.ID),
	}

	t := s.shop.T
	return s.out.Render(data, func(w io.Writer) error {
		ew := &errWriter{w: w}
		ew.printf("%s  %s\n", p.ID, p.Name)
		ew.printf("%s\n", p.Description)
		ew.printf("%s | %s | %s\n", p.Brand, p.CategoryName, p.SKU)
		ew.printf("%s\n", p.Price.StringFixed(2))
		if p.Stock > 0 {
			ew.printf("%s\n", t.T("catalog.in_stock", map[string]any{"stock": p.Stock}))
		} else {
			ew.printf("%s\n", t.T("catalog.out_of_stock", nil))
		}
		for _, f := range p.Features {
			ew.printf("  * %s\n", f)
		}
		for name, vals := range sortedAttributes(p) {
			ew.printf("  %s: %s\n", name, strings.Join(vals, ", "))
		}
		if count > 0 {
			ew.printf("%s\n", t.T("review.average", map[string]any{
				"rating": data.Rating, "count": count, "noun": t.Noun("review", count),
			}))
		} else {
			ew.printf("%s\n", t.T("review.none", nil))
		}
		if data.Saved {
			ew.printf("♥ %s\n", t.T("wishlist.title", nil))
		}
		return ew.err
	})
}

func listCategories(ctx context.Context, s *session, args []string) error {
	cats := s.shop.Catalog.Categories()
	return s.out.Render(cats, func(w io.Writer) error {
		tw := newTable(w)
		fmt.Fprintln(tw, "ID\tSLUG\tNAME\tPARENT")
		for _, c := range cats {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Slug, c.Name, c.ParentID)
		}
		return tw.Flush()
	})
}

// sortedAttributes yields the product attributes by name.
func sortedAttributes(p domain.Product) iter.Seq2[string, []string] {
	return func(yield func(string, []string) bool) {
		for _, name := range slices.Sorted(maps.Keys(p.Attributes)) {
			if !yield(name, p.Attributes[name]) {
				return
			}
		}
	}
}
