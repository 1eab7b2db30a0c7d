// Package cart holds the shopping cart container.
//
// Invariant: every line satisfies 0 < Quantity <= Stock and product ids are
// unique. Quantities above stock are clamped silently; a line whose quantity
// would reach zero is removed. Insertion order is display order.
//
// Every mutation is mirrored to the cart storage key once the initial load has
// happened, so a fresh empty cart never overwrites stored lines.
package cart

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/roach88/techshop/internal/domain"
	"github.com/roach88/techshop/internal/storage"
)

var (
	// ErrInvalidQuantity is returned by Add when quantity < 1.
	ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")

	// ErrOutOfStock is returned by Add when the product has no stock.
	ErrOutOfStock = errors.New("cart: product is out of stock")
)

// Cart is the cart container. Safe for concurrent use.
type Cart struct {
	mu     sync.Mutex
	lines  []domain.CartLine
	slot   *storage.Slot[[]domain.CartLine]
	logger *slog.Logger
}

// Load restores the cart from st. Stored lines that break the quantity
// invariant are repaired (clamped or dropped) rather than rejected.
func Load(ctx context.Context, st storage.Store, logger *slog.Logger) *Cart {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cart{
		slot:   storage.NewSlot[[]domain.CartLine](st, storage.KeyCart, logger),
		logger: logger,
	}
	if lines, ok := c.slot.Load(ctx); ok {
		c.lines = sanitize(lines, logger)
	}
	return c
}

// Add puts quantity units of p into the cart, merging with an existing line.
// The resulting quantity is clamped to p.Stock.
func (c *Cart) Add(ctx context.Context, p domain.Product, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if p.Stock < 1 {
		return ErrOutOfStock
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := slices.Clone(c.lines)
	if i := c.index(p.ID); i >= 0 {
		next[i].Quantity = min(next[i].Quantity+quantity, p.Stock)
		next[i].Stock = p.Stock
	} else {
		next = append(next, domain.CartLine{Product: p, Quantity: min(quantity, p.Stock)})
	}
	return c.commit(ctx, next)
}

// Remove deletes the line for productID. Removing an absent line is a no-op.
func (c *Cart) Remove(ctx context.Context, productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(productID)
	if i < 0 {
		return nil
	}
	return c.commit(ctx, slices.Delete(slices.Clone(c.lines), i, i+1))
}

// SetQuantity replaces the quantity of an existing line.
// quantity <= 0 removes the line; quantity above stock is clamped.
// Unknown product ids are ignored.
func (c *Cart) SetQuantity(ctx context.Context, productID string, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(productID)
	if i < 0 {
		return nil
	}
	next := slices.Clone(c.lines)
	if quantity <= 0 {
		next = slices.Delete(next, i, i+1)
	} else {
		next[i].Quantity = min(quantity, next[i].Stock)
	}
	return c.commit(ctx, next)
}

// Release takes the quantities in ordered out of the cart. Lines that reach
// zero are removed; units added after ordered was copied stay.
func (c *Cart) Release(ctx context.Context, ordered []domain.CartLine) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	taken := make(map[string]int, len(ordered))
	for _, l := range ordered {
		taken[l.ID] += l.Quantity
	}
	next := make([]domain.CartLine, 0, len(c.lines))
	for _, l := range c.lines {
		l.Quantity -= taken[l.ID]
		if l.Quantity > 0 {
			next = append(next, l)
		}
	}
	return c.commit(ctx, next)
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.commit(ctx, nil)
}

// Lines returns a copy of the cart lines in display order.
func (c *Cart) Lines() []domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.lines)
}

// Line returns the line for productID.
func (c *Cart) Line(productID string) (domain.CartLine, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(productID); i >= 0 {
		return c.lines[i], true
	}
	return domain.CartLine{}, false
}

// LineCount is the number of distinct lines.
func (c *Cart) LineCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// ItemCount is the sum of line quantities.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// TotalPrice is the sum of price times quantity over all lines.
func (c *Cart) TotalPrice() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Total(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c.LineCount() == 0
}

// Total sums line subtotals.
func Total(lines []domain.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) index(productID string) int {
	return slices.IndexFunc(c.lines, func(l domain.CartLine) bool { return l.ID == productID })
}

// commit saves next and then makes it the live cart; must be called with mu held.
func (c *Cart) commit(ctx context.Context, next []domain.CartLine) error {
	if next == nil {
		next = []domain.CartLine{}
	}
	if err := c.slot.Save(ctx, next); err != nil {
		return err
	}
	c.lines = next
	return nil
}

func sanitize(lines []domain.CartLine, logger *slog.Logger) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		switch {
		case l.ID == "" || seen[l.ID]:
			logger.Warn("dropping duplicate or anonymous cart line", "product_id", l.ID)
			continue
		case l.Quantity < 1 || l.Stock < 1:
			logger.Warn("dropping empty cart line", "product_id", l.ID)
			continue
		case l.Quantity > l.Stock:
			logger.Warn("clamping cart line to stock", "product_id", l.ID, "quantity", l.Quantity, "stock", l.Stock)
			l.Quantity = l.Stock
		}
		seen[l.ID] = true
		out = append(out, l)
	}
	return out
}
