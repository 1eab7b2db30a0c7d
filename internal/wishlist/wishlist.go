// Package wishlist holds the set of product ids the shopper has saved.
package wishlist

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/techshop/internal/domain"
	"github.com/roach88/techshop/internal/storage"
)

// Lookup resolves product ids against the catalog.
type Lookup interface {
	ByID(id string) (domain.Product, bool)
}

// Wishlist is a set of product ids kept in the order they were added.
type Wishlist struct {
	mu     sync.Mutex
	ids    []string
	slot   *storage.Slot[[]string]
	lookup Lookup
}

// Load restores the wishlist from st. Duplicate and empty ids in the stored
// document are dropped.
func Load(ctx context.Context, st storage.Store, lookup Lookup, logger *slog.Logger) *Wishlist {
	w := &Wishlist{
		slot:   storage.NewSlot[[]string](st, storage.KeyWishlist, logger),
		lookup: lookup,
	}
	if ids, ok := w.slot.Load(ctx); ok {
		for _, id := range ids {
			if id != "" && !slices.Contains(w.ids, id) {
				w.ids = append(w.ids, id)
			}
		}
	}
	return w
}

// Add saves productID. Adding an id twice is a no-op.
func (w *Wishlist) Add(ctx context.Context, productID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.add(ctx, productID)
}

// Remove drops productID.
func (w *Wishlist) Remove(ctx context.Context, productID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.remove(ctx, productID)
}

// Toggle adds productID when absent and removes it otherwise.
// It reports whether the id is saved afterwards.
func (w *Wishlist) Toggle(ctx context.Context, productID string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if slices.Contains(w.ids, productID) {
		return false, w.remove(ctx, productID)
	}
	return true, w.add(ctx, productID)
}

// add and remove must be called with mu held.
func (w *Wishlist) add(ctx context.Context, productID string) error {
	if slices.Contains(w.ids, productID) {
		return nil
	}
	return w.commit(ctx, append(slices.Clone(w.ids), productID))
}

func (w *Wishlist) remove(ctx context.Context, productID string) error {
	i := slices.Index(w.ids, productID)
	if i < 0 {
		return nil
	}
	return w.commit(ctx, slices.Delete(slices.Clone(w.ids), i, i+1))
}

func (w *Wishlist) Contains(productID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Contains(w.ids, productID)
}

// IDs returns the saved ids, including ones the catalog no longer has.
func (w *Wishlist) IDs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.ids)
}

// Items joins the saved ids against the catalog. Ids without a product are skipped.
func (w *Wishlist) Items() []domain.Product {
	w.mu.Lock()
	defer w.mu.Unlock()

	items := make([]domain.Product, 0, len(w.ids))
	for _, id := range w.ids {
		if p, ok := w.lookup.ByID(id); ok {
			items = append(items, p)
		}
	}
	return items
}

// Count is the number of resolvable items.
func (w *Wishlist) Count() int {
	return len(w.Items())
}

func (w *Wishlist) commit(ctx context.Context, next []string) error {
	if next == nil {
		next = []string{}
	}
	if err := w.slot.Save(ctx, next); err != nil {
		return err
	}
	w.ids = next
	return nil
}
