// Package order keeps the placed-order history.
//
// Orders are snapshots: items copy the product id, name, price and image at
// placement time so later catalog changes do not alter history. The stored
// list is newest first and only ever grows.
package order

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/techshop/internal/domain"
	"github.com/roach88/techshop/internal/storage"
)

// ErrNoItems is returned by Place when there is nothing to order.
var ErrNoItems = errors.New("order: no items to place")

// Session reports the signed-in user. An empty id means signed out.
type Session interface {
	CurrentUserID() string
}

type signedOut struct{}

func (signedOut) CurrentUserID() string { return "" }

// History is the order container. Safe for concurrent use.
type History struct {
	mu      sync.Mutex
	orders  []domain.Order
	slot    *storage.Slot[[]domain.Order]
	ids     IDGenerator
	now     func() time.Time
	session Session
	logger  *slog.Logger
}

// Option configures a History.
type Option func(*History)

// WithIDGenerator replaces the default TimestampGenerator.
func WithIDGenerator(g IDGenerator) Option {
	return func(h *History) { h.ids = g }
}

// WithClock sets the source of order dates.
func WithClock(now func() time.Time) Option {
	return func(h *History) { h.now = now }
}

// WithSession sets the source of the owning user id.
func WithSession(s Session) Option {
	return func(h *History) { h.session = s }
}

// Load restores the order history from st.
func Load(ctx context.Context, st storage.Store, logger *slog.Logger, opts ...Option) *History {
	if logger == nil {
		logger = slog.Default()
	}
	h := &History{
		slot:    storage.NewSlot[[]domain.Order](st, storage.KeyOrders, logger),
		now:     time.Now,
		session: signedOut{},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.ids == nil {
		h.ids = TimestampGenerator{Now: h.now}
	}
	if orders, ok := h.slot.Load(ctx); ok {
		h.orders = orders
	}
	return h
}

// Place snapshots lines into a new pending order owned by the current user,
// if any, and prepends it to the history.
func (h *History) Place(ctx context.Context, lines []domain.CartLine, total decimal.Decimal, addr domain.Address, pm domain.PaymentMethod) (domain.Order, error) {
	if len(lines) == 0 {
		return domain.Order{}, ErrNoItems
	}

	items := make([]domain.OrderItem, len(lines))
	for i, l := range lines {
		items[i] = domain.OrderItem{
			ProductID: l.ID,
			Name:      l.Name,
			Price:     l.Price,
			Quantity:  l.Quantity,
			ImageURL:  l.ImageURL,
		}
	}

	o := domain.Order{
		ID:              h.ids.Generate(),
		UserID:          h.session.CurrentUserID(),
		Date:            h.now().UTC(),
		Items:           items,
		TotalPrice:      total,
		ShippingAddress: addr,
		PaymentMethod:   pm,
		Status:          domain.StatusPending,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	orders := append([]domain.Order{o}, h.orders...)
	if err := h.slot.Save(ctx, orders); err != nil {
		return domain.Order{}, err
	}
	h.orders = orders
	h.logger.Info("order placed", "order_id", o.ID, "user_id", o.UserID, "items", o.ItemCount(), "total", o.TotalPrice.String())
	return o, nil
}

// ListForCurrentUser returns the signed-in user's orders, newest first.
// It is empty when nobody is signed in.
func (h *History) ListForCurrentUser() []domain.Order {
	uid := h.session.CurrentUserID()
	if uid == "" {
		return []domain.Order{}
	}
	return h.ForUser(uid)
}

// ForUser returns orders owned by userID, newest first.
// Orders placed while signed out have no owner and never match.
func (h *History) ForUser(userID string) []domain.Order {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := []domain.Order{}
	if userID == "" {
		return out
	}
	for _, o := range h.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out
}

// All returns every stored order, newest first.
func (h *History) All() []domain.Order {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.orders)
}

// Get finds an order by id.
func (h *History) Get(id string) (domain.Order, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, o := range h.orders {
		if o.ID == id {
			return o, true
		}
	}
	return domain.Order{}, false
}

// HasPurchased reports whether userID owns an order containing productID.
func (h *History) HasPurchased(userID, productID string) bool {
	for _, o := range h.ForUser(userID) {
		if o.Contains(productID) {
			return true
		}
	}
	return false
}
