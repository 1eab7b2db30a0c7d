// Package review holds product reviews: the seeded catalog reviews plus the
// ones shoppers submit.
//
// Only a signed-in shopper whose order history contains the product may
// review it, once per product.
package review

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roach88/techshop/internal/domain"
	"github.com/roach88/techshop/internal/storage"
	"github.com/roach88/techshop/internal/validate"
)

var (
	ErrNeedsLogin      = errors.New("review: sign in to leave a review")
	ErrNeedsPurchase   = errors.New("review: product not purchased")
	ErrAlreadyReviewed = errors.New("review: product already reviewed")
)

// Eligibility is whether a shopper may review a product.
type Eligibility int

const (
	NeedsLogin Eligibility = iota
	NeedsPurchase
	AlreadyReviewed
	CanReview
)

func (e Eligibility) String() string {
	switch e {
	case NeedsLogin:
		return "needs_login"
	case NeedsPurchase:
		return "needs_purchase"
	case AlreadyReviewed:
		return "already_reviewed"
	case CanReview:
		return "can_review"
	default:
		return "unknown"
	}
}

// MessageKey is the i18n key explaining e.
func (e Eligibility) MessageKey() string {
	return "review." + e.String()
}

// Err is the error Submit returns for e, nil for CanReview.
func (e Eligibility) Err() error {
	switch e {
	case NeedsLogin:
		return ErrNeedsLogin
	case NeedsPurchase:
		return ErrNeedsPurchase
	case AlreadyReviewed:
		return ErrAlreadyReviewed
	default:
		return nil
	}
}

// Purchases answers whether a user has ordered a product.
type Purchases interface {
	HasPurchased(userID, productID string) bool
}

// Board is the review container. Safe for concurrent use.
type Board struct {
	mu        sync.Mutex
	seed      []domain.Review
	stored    []domain.Review
	slot      *storage.Slot[[]domain.Review]
	purchases Purchases
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Board.
type Option func(*Board)

// WithClock sets the source of review dates.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

// Load restores submitted reviews from st and merges them with seed.
func Load(ctx context.Context, st storage.Store, seed []domain.Review, purchases Purchases, logger *slog.Logger, opts ...Option) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Board{
		seed:      slices.Clone(seed),
		slot:      storage.NewSlot[[]domain.Review](st, storage.KeyReviews, logger),
		purchases: purchases,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	if stored, ok := b.slot.Load(ctx); ok {
		b.stored = stored
	}
	return b
}

// ForProduct returns the product's reviews, newest first.
func (b *Board) ForProduct(productID string) []domain.Review {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.forProduct(productID)
}

func (b *Board) forProduct(productID string) []domain.Review {
	var out []domain.Review
	for _, r := range slices.Concat(b.stored, b.seed) {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(x, y domain.Review) int {
		if c := y.Date.Compare(x.Date); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	return out
}

// Average is the mean rating rounded to one decimal place, and the number
// of reviews it covers.
func (b *Board) Average(productID string) (decimal.Decimal, int) {
	reviews := b.ForProduct(productID)
	if len(reviews) == 0 {
		return decimal.Zero, 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	avg := decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(len(reviews))))
	return avg.Round(1), len(reviews)
}

// Eligibility decides whether userID may review productID. An empty userID
// means signed out.
func (b *Board) Eligibility(userID, productID string) Eligibility {
	if userID == "" {
		return NeedsLogin
	}
	if b.purchases == nil || !b.purchases.HasPurchased(userID, productID) {
		return NeedsPurchase
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.reviewedLocked(userID, productID) {
		return AlreadyReviewed
	}
	return CanReview
}

func (b *Board) reviewedLocked(userID, productID string) bool {
	return slices.ContainsFunc(b.stored, func(r domain.Review) bool {
		return r.UserID == userID && r.ProductID == productID
	})
}

// Submit validates and stores a review. It returns validate.Errors for a bad
// form and the Eligibility error when the shopper may not review.
func (b *Board) Submit(ctx context.Context, userID, userName, productID string, rating int, comment string) (domain.Review, error) {
	comment = strings.TrimSpace(comment)
	if err := validate.Default().Review(rating, comment); err != nil {
		return domain.Review{}, err
	}
	if err := b.Eligibility(userID, productID).Err(); err != nil {
		return domain.Review{}, err
	}

	r := domain.Review{
		ID:        "rev_" + uuid.NewString(),
		ProductID: productID,
		UserID:    userID,
		UserName:  userName,
		Rating:    rating,
		Comment:   comment,
		Date:      b.now().UTC(),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.reviewedLocked(userID, productID) {
		return domain.Review{}, ErrAlreadyReviewed
	}
	stored := append(slices.Clone(b.stored), r)
	if err := b.slot.Save(ctx, stored); err != nil {
		return domain.Review{}, err
	}
	b.stored = stored
	b.logger.Info("review submitted", "review_id", r.ID, "product_id", productID, "rating", rating)
	return r, nil
}
