// Package shop is the application state: one struct holding every container,
// wired to a single store and session, plus the form layer that validates
// input before it reaches a container.
package shop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/techshop/internal/cart"
	"github.com/roach88/techshop/internal/catalog"
	"github.com/roach88/techshop/internal/checkout"
	"github.com/roach88/techshop/internal/config"
	"github.com/roach88/techshop/internal/domain"
	"github.com/roach88/techshop/internal/i18n"
	"github.com/roach88/techshop/internal/identity"
	"github.com/roach88/techshop/internal/order"
	"github.com/roach88/techshop/internal/review"
	"github.com/roach88/techshop/internal/storage"
	"github.com/roach88/techshop/internal/validate"
	"github.com/roach88/techshop/internal/wishlist"
)

// ErrUnknownProduct is returned for product ids missing from the catalog.
var ErrUnknownProduct = errors.New("shop: unknown product")

// Options configures New. Zero values select defaults, except PlacementDelay
// where zero places orders immediately.
type Options struct {
	Logger         *slog.Logger
	Lang           i18n.Lang
	PlacementDelay time.Duration
	Policy         *identity.Policy
	OrderIDs       order.IDGenerator
	Clock          func() time.Time
}

// Shop is the storefront state.
type Shop struct {
	Catalog  *catalog.Catalog
	Cart     *cart.Cart
	Wishlist *wishlist.Wishlist
	Checkout *checkout.Checkout
	Orders   *order.History
	Reviews  *review.Board
	Auth     identity.Provider
	Session  *identity.Session
	Forms    *validate.Validator
	T        *i18n.Translator

	store  storage.Store
	logger *slog.Logger
}

// New loads every container from st. The shop takes ownership of st;
// Close closes it.
func New(ctx context.Context, st storage.Store, opts Options) *Shop {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lang := opts.Lang
	if lang == "" {
		lang = i18n.Russian
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	policy := identity.DefaultPolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}

	cat := catalog.Default()
	auth := identity.NewLocal(ctx, st, logger.With("component", "identity"),
		identity.WithPolicy(policy), identity.WithClock(now))
	session := identity.NewSession(auth)

	orderOpts := []order.Option{order.WithClock(now), order.WithSession(session)}
	if opts.OrderIDs != nil {
		orderOpts = append(orderOpts, order.WithIDGenerator(opts.OrderIDs))
	}
	orders := order.Load(ctx, st, logger.With("component", "order"), orderOpts...)

	return &Shop{
		Catalog:  cat,
		Cart:     cart.Load(ctx, st, logger.With("component", "cart")),
		Wishlist: wishlist.Load(ctx, st, cat, logger.With("component", "wishlist")),
		Checkout: checkout.Load(ctx, st, logger.With("component", "checkout"),
			checkout.WithPlacementDelay(opts.PlacementDelay)),
		Orders:  orders,
		Reviews: review.Load(ctx, st, cat.SeedReviews(), orders, logger.With("component", "review"), review.WithClock(now)),
		Auth:    auth,
		Session: session,
		Forms:   validate.Default(),
		T:       i18n.Default().Translator(lang),
		store:   st,
		logger:  logger,
	}
}

// Open opens the configured store and builds the shop on it.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Shop, error) {
	lang, err := i18n.ParseLang(cfg.Locale)
	if err != nil {
		return nil, err
	}
	st, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	policy := identity.DefaultPolicy()
	policy.MinPasswordLength = cfg.Identity.MinPasswordLength
	policy.MaxFailedAttempts = cfg.Identity.MaxFailedAttempts
	policy.Lockout = cfg.Identity.Lockout
	policy.AllowSignUp = cfg.Identity.AllowSignUp

	return New(ctx, st, Options{
		Logger:         logger,
		Lang:           lang,
		PlacementDelay: cfg.Checkout.PlacementDelay,
		Policy:         &policy,
	}), nil
}

// Close releases the session subscription and the store.
func (s *Shop) Close() error {
	s.Session.Close()
	return s.store.Close()
}

// Product looks up a catalog product.
func (s *Shop) Product(id string) (domain.Product, error) {
	p, ok := s.Catalog.ByID(id)
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: %s", ErrUnknownProduct, id)
	}
	return p, nil
}

// AddToCart adds quantity units of a catalog product and returns the
// resulting line. The line quantity may be lower than requested when stock
// runs out.
func (s *Shop) AddToCart(ctx context.Context, productID string, quantity int) (domain.CartLine, error) {
	p, err := s.Product(productID)
	if err != nil {
		return domain.CartLine{}, err
	}
	if err := s.Cart.Add(ctx, p, quantity); err != nil {
		return domain.CartLine{}, err
	}
	line, _ := s.Cart.Line(productID)
	return line, nil
}

// AddToWishlist saves a catalog product.
func (s *Shop) AddToWishlist(ctx context.Context, productID string) (domain.Product, error) {
	p, err := s.Product(productID)
	if err != nil {
		return domain.Product{}, err
	}
	return p, s.Wishlist.Add(ctx, productID)
}

// SubmitShipping validates the shipping form and completes the shipping step.
func (s *Shop) SubmitShipping(ctx context.Context, a domain.Address) error {
	if err := s.Forms.ShippingAddress(a); err != nil {
		return err
	}
	return s.Checkout.SetShippingAddress(ctx, a)
}

// SubmitPayment validates the chosen method id and completes the payment step.
func (s *Shop) SubmitPayment(ctx context.Context, methodID string) (domain.PaymentMethod, error) {
	if err := s.Forms.PaymentMethod(methodID); err != nil {
		return domain.PaymentMethod{}, err
	}
	pm, _ := checkout.PaymentMethod(s.T, methodID)
	if err := s.Checkout.SetPaymentMethod(ctx, pm); err != nil {
		return domain.PaymentMethod{}, err
	}
	return pm, nil
}

// PlaceOrder places the checkout draft as an order.
func (s *Shop) PlaceOrder(ctx context.Context) (domain.Order, error) {
	return s.Checkout.PlaceOrder(ctx, s.Cart, s.Orders)
}

// Enter guards navigation to a checkout step against the current cart.
func (s *Shop) Enter(step checkout.Step) checkout.Route {
	return s.Checkout.Enter(step, s.Cart.ItemCount())
}

// SignUp validates the registration form and creates an account.
func (s *Shop) SignUp(ctx context.Context, r validate.Registration) (identity.User, error) {
	if err := s.Forms.Registration(r); err != nil {
		return identity.User{}, err
	}
	return s.Auth.SignUp(ctx, r.Email, r.Password, r.DisplayName)
}

// SignIn validates the login form and signs in.
func (s *Shop) SignIn(ctx context.Context, email, password string) (identity.User, error) {
	if err := s.Forms.Login(email, password); err != nil {
		return identity.User{}, err
	}
	return s.Auth.SignIn(ctx, email, password)
}

// SignOut ends the session.
func (s *Shop) SignOut(ctx context.Context) error {
	return s.Auth.SignOut(ctx)
}

// ReviewEligibility reports whether the signed-in shopper may review productID.
func (s *Shop) ReviewEligibility(productID string) review.Eligibility {
	return s.Reviews.Eligibility(s.Session.CurrentUserID(), productID)
}

// SubmitReview stores a review by the signed-in shopper.
func (s *Shop) SubmitReview(ctx context.Context, productID string, rating int, comment string) (domain.Review, error) {
	if _, err := s.Product(productID); err != nil {
		return domain.Review{}, err
	}
	u, _ := s.Session.User()
	return s.Reviews.Submit(ctx, u.UID, u.Name(), productID, rating, comment)
}

// MessageFor translates err for display. Form and provider errors map to
// their message keys; anything else is shown as is.
func (s *Shop) MessageFor(err error, signUp bool) string {
	var verrs validate.Errors
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verrs):
		msg := ""
		for i, fe := range verrs {
			if i > 0 {
				msg += "; "
			}
			msg += fe.Field + ": " + s.T.T(fe.Key, fe.Params)
		}
		return msg
	case identity.Code(err) != "" && signUp:
		return s.T.T(identity.SignUpMessageKey(err), nil)
	case identity.Code(err) != "":
		return s.T.T(identity.SignInMessageKey(err), nil)
	case errors.Is(err, review.ErrNeedsLogin):
		return s.T.T(review.NeedsLogin.MessageKey(), nil)
	case errors.Is(err, review.ErrNeedsPurchase):
		return s.T.T(review.NeedsPurchase.MessageKey(), nil)
	case errors.Is(err, review.ErrAlreadyReviewed):
		return s.T.T(review.AlreadyReviewed.MessageKey(), nil)
	case errors.Is(err, checkout.ErrEmptyCart):
		return s.T.T("checkout.empty_cart", nil)
	default:
		return err.Error()
	}
}
