package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/techshop/internal/checkout"
	"github.com/roach88/techshop/internal/domain"
	"github.com/roach88/techshop/internal/shop"
)

// CheckoutStatus is the JSON payload of checkout status and review.
type CheckoutStatus struct {
	Step            string                `json:"step"`
	Path            string                `json:"path"`
	ShippingAddress *domain.Address       `json:"shippingAddress,omitempty"`
	PaymentMethod   *domain.PaymentMethod `json:"paymentMethod,omitempty"`
	Cart            CartView              `json:"cart"`
}

// PlacedOrder is the JSON payload of checkout place.
type PlacedOrder struct {
	Order domain.Order `json:"order"`
	Path  string       `json:"path"`
}

// NewCheckoutCommand creates the checkout command group.
func NewCheckoutCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Walk the cart through shipping, payment and placement",
		Long: `Check out the cart.

Steps run in order: shipping, payment, review, then place. A step whose
prerequisites are missing is refused and names the step to complete first.
The draft is kept between invocations until the order is placed or
checkout is abandoned.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the checkout draft and the current step",
		Args:  cobra.NoArgs,
		RunE: withShop(rootOpts, func(ctx context.Context, s *session, args []string) error {
			return renderCheckout(s, s.shop.Enter(s.shop.Checkout.Step()))
		}),
	})
	cmd.AddCommand(newShippingCommand(rootOpts))

	cmd.AddCommand(&cobra.Command{
		Use:   "payment <cod|kaspi_qr|card_online>",
		Short: "Choose the payment method",
		Args:  cobra.ExactArgs(1),
		RunE: withShop(rootOpts, func(ctx context.Context, s *session, args []string) error {
			if err := guardStep(s, checkout.StepPayment); err != nil {
				return err
			}
			pm, err := s.shop.SubmitPayment(ctx, args[0])
			if err != nil {
				return err
			}
			return s.say(pm, "checkout.payment_saved", nil)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "review",
		Short: "Review the order before placing it",
		Args:  cobra.NoArgs,
		RunE: withShop(rootOpts, func(ctx context.Context, s *session, args []string) error {
			if err := guardStep(s, checkout.StepReview); err != nil {
				return err
			}
			return renderCheckout(s, s.shop.Enter(checkout.StepReview))
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "place",
		Short: "Place the order",
		Args:  cobra.NoArgs,
		RunE: withShop(rootOpts, func(ctx context.Context, s *session, args []string) error {
			s.out.VerboseLog("placing order...")
			o, err := s.shop.PlaceOrder(ctx)
			if err != nil {
				return err
			}
			s.logger.Info("order placed", "order_id", o.ID, "total", o.TotalPrice.StringFixed(2))

			data := PlacedOrder{Order: o, Path: checkout.ConfirmationPath(o.ID)}
			return s.out.Render(data, func(w io.Writer) error {
				if _, err := fmt.Fprintln(w, s.shop.T.T("checkout.order_placed", map[string]any{"id": o.ID})); err != nil {
					return err
				}
				return shop.WriteReceipt(w, s.shop.T, o)
			})
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "abandon",
		Short: "Discard the checkout draft",
		Args:  cobra.NoArgs,
		RunE: withShop(rootOpts, func(ctx context.Context, s *session, args []string) error {
			if err := s.shop.Checkout.Abandon(ctx); err != nil {
				return err
			}
			return s.say(map[string]string{"step": s.shop.Checkout.Step().String()}, "checkout.abandoned", nil)
		}),
	})

	return cmd
}

func newShippingCommand(rootOpts *RootOptions) *cobra.Command {
	var a domain.Address
	cmd := &cobra.Command{
		Use:   "shipping",
		Short: "Enter the shipping address",
		Example: `  techshop checkout shipping --full-name "Aliya Nurlanova" --email aliya@example.com \
    --phone "+7 701 234 5678" --address-line1 "Abay Ave 10" --city Almaty \
    --postal-code 050000 --country Kazakhstan`,
		Args: cobra.NoArgs,
		RunE: withShop(rootOpts, func(ctx context.Context, s *session, args []string) error {
			if err := guardStep(s, checkout.StepShipping); err != nil {
				return err
			}
			if err := s.shop.SubmitShipping(ctx, a); err != nil {
				return err
			}
			return s.say(a, "checkout.shipping_saved", nil)
		}),
	}

	f := cmd.Flags()
	f.StringVar(&a.FullName, "full-name", "", "recipient name")
	f.StringVar(&a.Email, "email", "", "contact email")
	f.StringVar(&a.PhoneNumber, "phone", "", "contact phone")
	f.StringVar(&a.AddressLine1, "address-line1", "", "street address")
	f.StringVar(&a.AddressLine2, "address-line2", "", "apartment, suite (optional)")
	f.StringVar(&a.City, "city", "", "city")
	f.StringVar(&a.PostalCode, "postal-code", "", "postal code")
	f.StringVar(&a.Country, "country", "", "country")
	return cmd
}

// guardStep refuses to act on want when the checkout route would redirect
// elsewhere.
func guardStep(s *session, want checkout.Step) error {
	route := s.shop.Enter(want)
	if !route.Redirected {
		return nil
	}
	t := s.shop.T
	if route.Step == checkout.StepCart {
		return &ExitError{
			Code:    ExitFailure,
			Kind:    shop.KindEmptyCart,
			Message: t.T("checkout.empty_cart", nil),
			Err:     checkout.ErrEmptyCart,
		}
	}

	err := checkout.ErrShippingRequired
	if route.Step == checkout.StepPayment {
		err = checkout.ErrPaymentRequired
	}
	return &ExitError{
		Code:    ExitFailure,
		Kind:    shop.Kind(err),
		Message: t.T("checkout.redirect", map[string]any{"step": t.T(route.Step.MessageKey(), nil)}),
		Err:     err,
	}
}

func renderCheckout(s *session, route checkout.Route) error {
	status := CheckoutStatus{
		Step: route.Step.String(),
		Path: route.Path,
		Cart: cartView(s.shop.Cart),
	}
	if a, ok := s.shop.Checkout.ShippingAddress(); ok {
		status.ShippingAddress = &a
	}
	if pm, ok := s.shop.Checkout.PaymentMethod(); ok {
		status.PaymentMethod = &pm
	}

	t := s.shop.T
	return s.out.Render(status, func(w io.Writer) error {
		ew := &errWriter{w: w}
		if route.Step == checkout.StepCart {
			ew.printf("%s\n", t.T("checkout.empty_cart", nil))
			return ew.err
		}
		ew.printf("%s (%s)\n", t.T(route.Step.MessageKey(), nil), route.Path)

		shipping := t.T("checkout.not_set", nil)
		if status.ShippingAddress != nil {
			a := status.ShippingAddress
			shipping = fmt.Sprintf("%s, %s", a.FullName, a.OneLine())
		}
		ew.printf("%s: %s\n", t.T("checkout.step.shipping", nil), shipping)

		payment := t.T("checkout.not_set", nil)
		if status.PaymentMethod != nil {
			payment = status.PaymentMethod.Name
		}
		ew.printf("%s: %s\n", t.T("checkout.step.payment", nil), payment)

		for _, l := range status.Cart.Lines {
			ew.printf("  - %s: %d x %s = %s\n", l.Name, l.Quantity, l.Price.StringFixed(2), l.Subtotal.StringFixed(2))
		}
		ew.printf("%s\n", cartSummary(s))
		return ew.err
	})
}
