package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/techshop/internal/domain"
)

// WishlistView is the JSON payload of the wishlist commands.
type WishlistView struct {
	Products []domain.Product `json:"products"`
	Count    int              `json:"count"`
}

// NewWishlistCommand creates the wishlist command group.
func NewWishlistCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Show and change saved products",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the wishlist",
		Args:  cobra.NoArgs,
		RunE: withShop(rootOpts, func(ctx context.Context, s *session, args []string) error {
			view := wishlistView(s)
			return s.out.Render(view, func(w io.Writer) error {
				if view.Count == 0 {
					_, err := fmt.Fprintln(w, s.shop.T.T("wishlist.empty", nil))
					return err
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "ID\tNAME\tPRICE")
				for _, p := range view.Products {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, p.Price.StringFixed(2))
				}
				return tw.Flush()
			})
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <product-id>",
		Short: "Save a product",
		Args:  cobra.ExactArgs(1),
		RunE: withShop(rootOpts, func(ctx context.Context, s *session, args []string) error {
			p, err := s.shop.AddToWishlist(ctx, args[0])
			if err != nil {
				return err
			}
			return s.say(wishlistView(s), "wishlist.added", map[string]any{"name": p.Name})
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a saved product",
		Args:  cobra.ExactArgs(1),
		RunE: withShop(rootOpts, func(ctx context.Context, s *session, args []string) error {
			if err := s.shop.Wishlist.Remove(ctx, args[0]); err != nil {
				return err
			}
			return s.say(wishlistView(s), "wishlist.removed", nil)
		}),
	})

	return cmd
}

func wishlistView(s *session) WishlistView {
	items := s.shop.Wishlist.Items()
	if items == nil {
		items = []domain.Product{}
	}
	return WishlistView{Products: items, Count: s.shop.Wishlist.Count()}
}
