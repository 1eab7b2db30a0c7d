package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/techshop/internal/domain"
	"github.com/roach88/techshop/internal/order"
	"github.com/roach88/techshop/internal/shop"
)

// ExportResult is the JSON payload of orders export -o.
type ExportResult struct {
	File   string `json:"file"`
	Orders int    `json:"orders"`
	Rows   int    `json:"rows"`
}

// NewOrdersCommand creates the orders command group.
func NewOrdersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Order history of the signed-in shopper",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your orders, newest first",
		Args:  cobra.NoArgs,
		RunE:  withShop(rootOpts, listOrders),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <order-id>",
		Short: "Show the receipt of an order",
		Args:  cobra.ExactArgs(1),
		RunE: withShop(rootOpts, func(ctx context.Context, s *session, args []string) error {
			o, ok := s.shop.Orders.Get(args[0])
			if !ok {
				return &ExitError{
					Code:    ExitFailure,
					Kind:    CodeNotFound,
					Message: s.shop.T.T("orders.not_found", map[string]any{"id": args[0]}),
				}
			}
			return s.out.Render(o, func(w io.Writer) error {
				return shop.WriteReceipt(w, s.shop.T, o)
			})
		}),
	})

	var file string
	var all bool
	export := &cobra.Command{
		Use:   "export",
		Short: "Export orders as CSV, one row per item",
		Long: `Export orders as CSV with one row per order item.

Without --all only the signed-in shopper's orders are exported. Without -o
the CSV is written to stdout.`,
		Args: cobra.NoArgs,
		RunE: withShop(rootOpts, func(ctx context.Context, s *session, args []string) error {
			orders := s.shop.Orders.ListForCurrentUser()
			if all {
				orders = s.shop.Orders.All()
			}
			return exportOrders(s, orders, file)
		}),
	}
	export.Flags().StringVarP(&file, "output", "o", "", "output file (default stdout)")
	export.Flags().BoolVar(&all, "all", false, "export every stored order")
	cmd.AddCommand(export)

	return cmd
}

func listOrders(ctx context.Context, s *session, args []string) error {
	t := s.shop.T
	_, signedIn := s.shop.Session.User()
	orders := s.shop.Orders.ListForCurrentUser()

	return s.out.Render(orders, func(w io.Writer) error {
		switch {
		case !signedIn:
			_, err := fmt.Fprintln(w, t.T("orders.sign_in", nil))
			return err
		case len(orders) == 0:
			_, err := fmt.Fprintln(w, t.T("orders.none", nil))
			return err
		}
		tw := newTable(w)
		fmt.Fprintln(tw, "ID\tDATE\tSTATUS\tITEMS\tTOTAL")
		for _, o := range orders {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
				o.ID, o.Date.UTC().Format("2006-01-02"), shop.StatusLabel(t, o.Status), o.ItemCount(), o.TotalPrice.StringFixed(2))
		}
		return tw.Flush()
	})
}

func exportOrders(s *session, orders []domain.Order, file string) error {
	if file == "" {
		return order.WriteCSV(s.out.Writer, orders)
	}

	f, err := os.Create(file)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create export file", err)
	}
	if err := order.WriteCSV(f, orders); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	data := ExportResult{File: file, Orders: len(orders), Rows: len(order.Rows(orders))}
	s.logger.Info("orders exported", "file", file, "orders", data.Orders, "rows", data.Rows)
	return s.out.Render(data, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%d %s -> %s\n", data.Orders, s.shop.T.Noun("order", data.Orders), file)
		return err
	})
}
