// Package checkout is the checkout container: the draft shipping address and
// payment method, the step guards over them and order placement.
//
// The draft survives restarts under the checkoutData key until an order is
// placed or checkout is abandoned. Input is assumed validated; the container
// only enforces ordering (no payment without shipping, no placement without
// both and a non-empty cart).
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/techshop/internal/domain"
	"github.com/roach88/techshop/internal/storage"
)

var (
	ErrEmptyCart        = errors.New("checkout: cart is empty")
	ErrShippingRequired = errors.New("checkout: shipping address required")
	ErrPaymentRequired  = errors.New("checkout: payment method required")
	ErrPlacing          = errors.New("checkout: order placement already in progress")
)

// DefaultPlacementDelay is the simulated latency before an order is placed.
const DefaultPlacementDelay = time.Second

// Draft is the in-progress checkout.
type Draft struct {
	ShippingAddress *domain.Address       `json:"shippingAddress,omitempty"`
	PaymentMethod   *domain.PaymentMethod `json:"paymentMethod,omitempty"`
}

// Cart is the part of the cart container checkout consumes. Release takes
// the ordered quantities out of the cart and keeps anything added since.
type Cart interface {
	Lines() []domain.CartLine
	Release(ctx context.Context, ordered []domain.CartLine) error
}

// Placer creates orders.
type Placer interface {
	Place(ctx context.Context, lines []domain.CartLine, total decimal.Decimal, addr domain.Address, pm domain.PaymentMethod) (domain.Order, error)
}

// Checkout is the checkout container. Safe for concurrent use.
type Checkout struct {
	mu      sync.Mutex
	draft   Draft
	placed  string
	placing bool

	slot   *storage.Slot[Draft]
	delay  time.Duration
	logger *slog.Logger
}

// Option configures a Checkout.
type Option func(*Checkout)

// WithPlacementDelay overrides DefaultPlacementDelay. Zero disables the wait.
func WithPlacementDelay(d time.Duration) Option {
	return func(c *Checkout) { c.delay = d }
}

// Load restores the draft from st. A stored payment method without a
// shipping address is dropped.
func Load(ctx context.Context, st storage.Store, logger *slog.Logger, opts ...Option) *Checkout {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Checkout{
		slot:   storage.NewSlot[Draft](st, storage.KeyCheckout, logger),
		delay:  DefaultPlacementDelay,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if d, ok := c.slot.Load(ctx); ok {
		if d.ShippingAddress == nil && d.PaymentMethod != nil {
			logger.Warn("dropping payment method stored without shipping address")
			d.PaymentMethod = nil
		}
		c.draft = d
	}
	return c
}

// Draft returns a copy of the draft.
func (c *Checkout) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.clone()
}

// ShippingAddress returns the draft address.
func (c *Checkout) ShippingAddress() (domain.Address, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft.ShippingAddress == nil {
		return domain.Address{}, false
	}
	return *c.draft.ShippingAddress, true
}

// PaymentMethod returns the draft payment method.
func (c *Checkout) PaymentMethod() (domain.PaymentMethod, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft.PaymentMethod == nil {
		return domain.PaymentMethod{}, false
	}
	return *c.draft.PaymentMethod, true
}

// SetShippingAddress completes the shipping step. A previously chosen payment
// method is kept. It fails with ErrPlacing while an order is being placed.
func (c *Checkout) SetShippingAddress(ctx context.Context, a domain.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.placing {
		return ErrPlacing
	}
	next := c.draft.clone()
	next.ShippingAddress = &a
	return c.save(ctx, next)
}

// SetPaymentMethod completes the payment step. It fails with
// ErrShippingRequired until the shipping step is complete.
func (c *Checkout) SetPaymentMethod(ctx context.Context, pm domain.PaymentMethod) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.placing {
		return ErrPlacing
	}
	if c.draft.ShippingAddress == nil {
		return ErrShippingRequired
	}
	next := c.draft.clone()
	next.PaymentMethod = &pm
	return c.save(ctx, next)
}

// Step is the earliest incomplete step, StepReview once both fields are set,
// or StepConfirmation right after an order was placed.
func (c *Checkout) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step()
}

func (c *Checkout) step() Step {
	if c.draft.ShippingAddress == nil && c.placed != "" {
		return StepConfirmation
	}
	return c.earliestUnmet()
}

// earliestUnmet ignores a placed order; must be called with mu held.
func (c *Checkout) earliestUnmet() Step {
	switch {
	case c.draft.ShippingAddress == nil:
		return StepShipping
	case c.draft.PaymentMethod == nil:
		return StepPayment
	default:
		return StepReview
	}
}

// PlacedOrderID is the id of the order placed by this container, if any.
func (c *Checkout) PlacedOrderID() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.placed, c.placed != ""
}

// Enter guards navigation to want given the number of items in the cart.
// An empty cart leads to the cart; a step whose prerequisites are missing
// leads to the earliest unmet step. The confirmation step is reachable only
// after an order was placed.
func (c *Checkout) Enter(want Step, cartItems int) Route {
	c.mu.Lock()
	defer c.mu.Unlock()

	if want == StepConfirmation && c.placed != "" {
		return Route{Step: StepConfirmation, Path: ConfirmationPath(c.placed)}
	}
	if cartItems <= 0 || want == StepCart {
		return Route{Step: StepCart, Path: StepCart.Path(), Redirected: want != StepCart}
	}

	target := want
	if earliest := c.earliestUnmet(); earliest < target {
		target = earliest
	}
	return Route{Step: target, Path: target.Path(), Redirected: target != want}
}

// PlaceOrder snapshots the cart and the draft, waits the placement delay,
// then hands the snapshot to placer. The order total is computed from the
// snapshot. On success the draft is cleared, the ordered quantities are
// released from the cart and the container moves to the confirmation step.
// Draft changes fail with ErrPlacing until PlaceOrder returns. Cancelling
// ctx during the delay aborts without side effects.
func (c *Checkout) PlaceOrder(ctx context.Context, cart Cart, placer Placer) (domain.Order, error) {
	c.mu.Lock()
	if c.placing {
		c.mu.Unlock()
		return domain.Order{}, ErrPlacing
	}
	draft := c.draft.clone()
	lines := cart.Lines()
	switch {
	case len(lines) == 0:
		c.mu.Unlock()
		return domain.Order{}, ErrEmptyCart
	case draft.ShippingAddress == nil:
		c.mu.Unlock()
		return domain.Order{}, ErrShippingRequired
	case draft.PaymentMethod == nil:
		c.mu.Unlock()
		return domain.Order{}, ErrPaymentRequired
	}
	c.placing = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.placing = false
		c.mu.Unlock()
	}()

	if c.delay > 0 {
		timer := time.NewTimer(c.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return domain.Order{}, ctx.Err()
		case <-timer.C:
		}
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	o, err := placer.Place(ctx, lines, total, *draft.ShippingAddress, *draft.PaymentMethod)
	if err != nil {
		return domain.Order{}, fmt.Errorf("place order: %w", err)
	}

	c.mu.Lock()
	c.draft = Draft{}
	c.placed = o.ID
	clearErr := c.slot.Clear(ctx)
	c.mu.Unlock()
	if clearErr != nil {
		c.logger.Warn("failed to clear checkout draft", "order_id", o.ID, "error", clearErr)
	}
	if err := cart.Release(ctx, lines); err != nil {
		c.logger.Warn("failed to release ordered items from cart", "order_id", o.ID, "error", err)
	}
	return o, nil
}

// Abandon discards the draft. It fails with ErrPlacing while an order is
// being placed.
func (c *Checkout) Abandon(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.placing {
		return ErrPlacing
	}
	c.draft = Draft{}
	c.placed = ""
	return c.slot.Clear(ctx)
}

// save must be called with mu held.
func (c *Checkout) save(ctx context.Context, next Draft) error {
	if err := c.slot.Save(ctx, next); err != nil {
		return err
	}
	c.draft = next
	c.placed = ""
	return nil
}

func (d Draft) clone() Draft {
	var out Draft
	if d.ShippingAddress != nil {
		a := *d.ShippingAddress
		out.ShippingAddress = &a
	}
	if d.PaymentMethod != nil {
		pm := *d.PaymentMethod
		out.PaymentMethod = &pm
	}
	return out
}
