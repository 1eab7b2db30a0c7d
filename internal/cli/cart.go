package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/techshop/internal/cart"
	"github.com/roach88/techshop/internal/domain"
	"github.com/roach88/techshop/internal/shop"
)

// CartLineView is one cart line in JSON output.
type CartLineView struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Stock     int             `json:"stock"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartView is the JSON payload of the cart commands.
type CartView struct {
	Lines     []CartLineView  `json:"lines"`
	ItemCount int             `json:"itemCount"`
	Total     decimal.Decimal `json:"total"`
}

// CartAddResult is the JSON payload of cart add.
type CartAddResult struct {
	Line    CartLineView `json:"line"`
	Clamped bool         `json:"clamped"`
	Cart    CartView     `json:"cart"`
}

// NewCartCommand creates the cart command group.
func NewCartCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the shopping cart",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: withShop(rootOpts, func(ctx context.Context, s *session, args []string) error {
			return renderCart(s)
		}),
	})

	var quantity int
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Long: `Add a product to the cart, merging with an existing line.

The line quantity never exceeds the product stock; a request above it is
reduced and reported.`,
		Args: cobra.ExactArgs(1),
		RunE: withShop(rootOpts, func(ctx context.Context, s *session, args []string) error {
			return addToCart(ctx, s, args[0], quantity)
		}),
	}
	add.Flags().IntVarP(&quantity, "quantity", "n", 1, "quantity to add")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Change the quantity of a cart line (0 removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: withShop(rootOpts, func(ctx context.Context, s *session, args []string) error {
			q, err := strconv.Atoi(args[1])
			if err != nil {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid quantity %q", args[1]))
			}
			if _, err := s.shop.Product(args[0]); err != nil {
				return err
			}
			if err := s.shop.Cart.SetQuantity(ctx, args[0], q); err != nil {
				return err
			}
			return s.say(cartView(s.shop.Cart), "cart.updated", nil)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: withShop(rootOpts, func(ctx context.Context, s *session, args []string) error {
			if err := s.shop.Cart.Remove(ctx, args[0]); err != nil {
				return err
			}
			return s.say(cartView(s.shop.Cart), "cart.removed", nil)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: withShop(rootOpts, func(ctx context.Context, s *session, args []string) error {
			if err := s.shop.Cart.Clear(ctx); err != nil {
				return err
			}
			return s.say(cartView(s.shop.Cart), "cart.cleared", nil)
		}),
	})

	return cmd
}

func addToCart(ctx context.Context, s *session, productID string, quantity int) error {
	before, _ := s.shop.Cart.Line(productID)
	line, err := s.shop.AddToCart(ctx, productID, quantity)
	if errors.Is(err, cart.ErrOutOfStock) {
		p, _ := s.shop.Product(productID)
		return &ExitError{
			Code:    ExitFailure,
			Kind:    shop.KindOutOfStock,
			Message: s.shop.T.T("cart.out_of_stock", map[string]any{"name": p.Name}),
			Err:     err,
		}
	}
	if err != nil {
		return err
	}

	clamped := line.Quantity < before.Quantity+quantity
	s.logger.Info("added to cart", "product_id", productID, "quantity", line.Quantity, "clamped", clamped)

	data := CartAddResult{Line: lineView(line), Clamped: clamped, Cart: cartView(s.shop.Cart)}
	t := s.shop.T
	return s.out.Render(data, func(w io.Writer) error {
		ew := &errWriter{w: w}
		ew.printf("%s\n", t.T("cart.added", map[string]any{"name": line.Name}))
		if clamped {
			ew.printf("%s\n", t.T("cart.clamped", map[string]any{"name": line.Name, "stock": line.Stock}))
		}
		ew.printf("%s\n", cartSummary(s))
		return ew.err
	})
}

func renderCart(s *session) error {
	view := cartView(s.shop.Cart)
	t := s.shop.T
	return s.out.Render(view, func(w io.Writer) error {
		if len(view.Lines) == 0 {
			_, err := fmt.Fprintln(w, t.T("cart.empty", nil))
			return err
		}
		tw := newTable(w)
		fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tSUBTOTAL")
		for _, l := range view.Lines {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", l.ProductID, l.Name, l.Quantity, l.Price.StringFixed(2), l.Subtotal.StringFixed(2))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w, cartSummary(s))
		return err
	})
}

func cartSummary(s *session) string {
	n := s.shop.Cart.ItemCount()
	return s.shop.T.T("cart.summary", map[string]any{
		"count": n,
		"noun":  s.shop.T.Noun("item", n),
		"total": s.shop.Cart.TotalPrice().StringFixed(2),
	})
}

func cartView(c *cart.Cart) CartView {
	lines := c.Lines()
	view := CartView{
		Lines:     make([]CartLineView, 0, len(lines)),
		ItemCount: c.ItemCount(),
		Total:     cart.Total(lines),
	}
	for _, l := range lines {
		view.Lines = append(view.Lines, lineView(l))
	}
	return view
}

func lineView(l domain.CartLine) CartLineView {
	return CartLineView{
		ProductID: l.ID,
		Name:      l.Name,
		Price:     l.Price,
		Quantity:  l.Quantity,
		Stock:     l.Stock,
		Subtotal:  l.Subtotal(),
	}
}
