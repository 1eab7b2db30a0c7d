package harness

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/techshop/internal/checkout"
	"github.com/roach88/techshop/internal/domain"
	"github.com/roach88/techshop/internal/identity"
	"github.com/roach88/techshop/internal/shop"
	"github.com/roach88/techshop/internal/validate"
)

// Output cases reported in completions. Failures use the shop error kinds.
const (
	CaseSuccess          = "Success"
	CaseInvalid          = shop.KindInvalid
	CaseUnknownProduct   = shop.KindUnknownProduct
	CaseInvalidQuantity  = shop.KindInvalidQuantity
	CaseOutOfStock       = shop.KindOutOfStock
	CaseEmptyCart        = shop.KindEmptyCart
	CaseShippingRequired = shop.KindShippingRequired
	CasePaymentRequired  = shop.KindPaymentRequired
	CaseAuthError        = shop.KindAuthError
	CaseNeedsLogin       = shop.KindNeedsLogin
	CaseNeedsPurchase    = shop.KindNeedsPurchase
	CaseAlreadyReviewed  = shop.KindAlreadyReviewed
)

// actionFunc runs one action against the shop and returns its result fields.
type actionFunc func(ctx context.Context, s *shop.Shop, a stepArgs) (map[string]interface{}, error)

var actions = map[string]actionFunc{
	"cart.add":           cartAdd,
	"cart.set_quantity":  cartSetQuantity,
	"cart.remove":        cartRemove,
	"cart.clear":         cartClear,
	"wishlist.add":       wishlistAdd,
	"wishlist.remove":    wishlistRemove,
	"wishlist.toggle":    wishlistToggle,
	"checkout.enter":     checkoutEnter,
	"checkout.shipping":  checkoutShipping,
	"checkout.payment":   checkoutPayment,
	"checkout.place":     checkoutPlace,
	"checkout.abandon":   checkoutAbandon,
	"auth.sign_up":       authSignUp,
	"auth.sign_in":       authSignIn,
	"auth.sign_out":      authSignOut,
	"review.eligibility": reviewEligibility,
	"review.submit":      reviewSubmit,
}

// KnownAction reports whether name is an action scenarios may invoke.
func KnownAction(name string) bool {
	_, ok := actions[name]
	return ok
}

// Actions lists the action names in sorted order.
func Actions() []string {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// stepArgs reads typed values from YAML-decoded action arguments.
type stepArgs map[string]interface{}

func (a stepArgs) str(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", fmt.Errorf("missing argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q: want string, got %T", key, v)
	}
	return s, nil
}

// optStr returns "" for a missing key.
func (a stepArgs) optStr(key string) (string, error) {
	if _, ok := a[key]; !ok {
		return "", nil
	}
	return a.str(key)
}

func (a stepArgs) integer(key string) (int, error) {
	v, ok := a[key]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("argument %q: want integer, got %T", key, v)
	}
}

// argError marks a malformed scenario step rather than a shop outcome.
type argError struct{ err error }

func (e *argError) Error() string { return e.err.Error() }
func (e *argError) Unwrap() error { return e.err }

func badArgs(err error) error { return &argError{err: err} }

func cartState(s *shop.Shop) map[string]interface{} {
	return map[string]interface{}{
		"item_count": s.Cart.ItemCount(),
		"total":      s.Cart.TotalPrice().StringFixed(2),
	}
}

func cartAdd(ctx context.Context, s *shop.Shop, a stepArgs) (map[string]interface{}, error) {
	id, err := a.str("product")
	if err != nil {
		return nil, badArgs(err)
	}
	qty, err := a.integer("quantity")
	if err != nil {
		return nil, badArgs(err)
	}
	line, err := s.AddToCart(ctx, id, qty)
	if err != nil {
		return nil, err
	}
	out := cartState(s)
	out["product"] = line.Product.ID
	out["quantity"] = line.Quantity
	return out, nil
}

func cartSetQuantity(ctx context.Context, s *shop.Shop, a stepArgs) (map[string]interface{}, error) {
	id, err := a.str("product")
	if err != nil {
		return nil, badArgs(err)
	}
	qty, err := a.integer("quantity")
	if err != nil {
		return nil, badArgs(err)
	}
	if err := s.Cart.SetQuantity(ctx, id, qty); err != nil {
		return nil, err
	}
	return cartState(s), nil
}

func cartRemove(ctx context.Context, s *shop.Shop, a stepArgs) (map[string]interface{}, error) {
	id, err := a.str("product")
	if err != nil {
		return nil, badArgs(err)
	}
	if err := s.Cart.Remove(ctx, id); err != nil {
		return nil, err
	}
	return cartState(s), nil
}

func cartClear(ctx context.Context, s *shop.Shop, _ stepArgs) (map[string]interface{}, error) {
	if err := s.Cart.Clear(ctx); err != nil {
		return nil, err
	}
	return cartState(s), nil
}

func wishlistAdd(ctx context.Context, s *shop.Shop, a stepArgs) (map[string]interface{}, error) {
	id, err := a.str("product")
	if err != nil {
		return nil, badArgs(err)
	}
	if _, err := s.AddToWishlist(ctx, id); err != nil {
		return nil, err
	}
	return map[string]interface{}{"count": s.Wishlist.Count()}, nil
}

func wishlistRemove(ctx context.Context, s *shop.Shop, a stepArgs) (map[string]interface{}, error) {
	id, err := a.str("product")
	if err != nil {
		return nil, badArgs(err)
	}
	if err := s.Wishlist.Remove(ctx, id); err != nil {
		return nil, err
	}
	return map[string]interface{}{"count": s.Wishlist.Count()}, nil
}

func wishlistToggle(ctx context.Context, s *shop.Shop, a stepArgs) (map[string]interface{}, error) {
	id, err := a.str("product")
	if err != nil {
		return nil, badArgs(err)
	}
	if _, err := s.Product(id); err != nil {
		return nil, err
	}
	saved, err := s.Wishlist.Toggle(ctx, id)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"count": s.Wishlist.Count(), "saved": saved}, nil
}

func checkoutEnter(_ context.Context, s *shop.Shop, a stepArgs) (map[string]interface{}, error) {
	name, err := a.str("step")
	if err != nil {
		return nil, badArgs(err)
	}
	step, ok := checkout.ParseStep(name)
	if !ok {
		return nil, badArgs(fmt.Errorf("argument \"step\": unknown step %q", name))
	}
	route := s.Enter(step)
	return map[string]interface{}{
		"step":       route.Step.String(),
		"path":       route.Path,
		"redirected": route.Redirected,
	}, nil
}

func checkoutShipping(ctx context.Context, s *shop.Shop, a stepArgs) (map[string]interface{}, error) {
	var addr domain.Address
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"full_name", &addr.FullName},
		{"email", &addr.Email},
		{"phone", &addr.PhoneNumber},
		{"address_line1", &addr.AddressLine1},
		{"address_line2", &addr.AddressLine2},
		{"city", &addr.City},
		{"postal_code", &addr.PostalCode},
		{"country", &addr.Country},
	} {
		v, err := a.optStr(f.key)
		if err != nil {
			return nil, badArgs(err)
		}
		*f.dst = v
	}
	if err := s.SubmitShipping(ctx, addr); err != nil {
		return nil, err
	}
	return map[string]interface{}{"step": s.Checkout.Step().String()}, nil
}

func checkoutPayment(ctx context.Context, s *shop.Shop, a stepArgs) (map[string]interface{}, error) {
	id, err := a.optStr("method")
	if err != nil {
		return nil, badArgs(err)
	}
	pm, err := s.SubmitPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"method": pm.ID,
		"name":   pm.Name,
		"step":   s.Checkout.Step().String(),
	}, nil
}

func checkoutPlace(ctx context.Context, s *shop.Shop, _ stepArgs) (map[string]interface{}, error) {
	o, err := s.PlaceOrder(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"order_id":   o.ID,
		"status":     string(o.Status),
		"item_count": o.ItemCount(),
		"total":      o.TotalPrice.StringFixed(2),
		"step":       s.Checkout.Step().String(),
	}, nil
}

func checkoutAbandon(ctx context.Context, s *shop.Shop, _ stepArgs) (map[string]interface{}, error) {
	if err := s.Checkout.Abandon(ctx); err != nil {
		return nil, err
	}
	return map[string]interface{}{"step": s.Checkout.Step().String()}, nil
}

func authSignUp(ctx context.Context, s *shop.Shop, a stepArgs) (map[string]interface{}, error) {
	var r validate.Registration
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"email", &r.Email},
		{"password", &r.Password},
		{"confirm_password", &r.ConfirmPassword},
		{"display_name", &r.DisplayName},
	} {
		v, err := a.optStr(f.key)
		if err != nil {
			return nil, badArgs(err)
		}
		*f.dst = v
	}
	u, err := s.SignUp(ctx, r)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"email": u.Email, "name": u.Name()}, nil
}

func authSignIn(ctx context.Context, s *shop.Shop, a stepArgs) (map[string]interface{}, error) {
	email, err := a.optStr("email")
	if err != nil {
		return nil, badArgs(err)
	}
	password, err := a.optStr("password")
	if err != nil {
		return nil, badArgs(err)
	}
	u, err := s.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"email": u.Email, "name": u.Name()}, nil
}

func authSignOut(ctx context.Context, s *shop.Shop, _ stepArgs) (map[string]interface{}, error) {
	if err := s.SignOut(ctx); err != nil {
		return nil, err
	}
	return map[string]interface{}{"signed_in": s.Session.CurrentUserID() != ""}, nil
}

func reviewEligibility(_ context.Context, s *shop.Shop, a stepArgs) (map[string]interface{}, error) {
	id, err := a.str("product")
	if err != nil {
		return nil, badArgs(err)
	}
	if _, err := s.Product(id); err != nil {
		return nil, err
	}
	return map[string]interface{}{"eligibility": s.ReviewEligibility(id).String()}, nil
}

func reviewSubmit(ctx context.Context, s *shop.Shop, a stepArgs) (map[string]interface{}, error) {
	id, err := a.str("product")
	if err != nil {
		return nil, badArgs(err)
	}
	rating, err := a.integer("rating")
	if err != nil {
		return nil, badArgs(err)
	}
	comment, err := a.optStr("comment")
	if err != nil {
		return nil, badArgs(err)
	}
	r, err := s.SubmitReview(ctx, id, rating, comment)
	if err != nil {
		return nil, err
	}
	avg, n := s.Reviews.Average(id)
	return map[string]interface{}{
		"author":  r.UserName,
		"rating":  r.Rating,
		"average": avg.StringFixed(1),
		"count":   n,
	}, nil
}

// outcome maps an action error to its output case and result fields.
func outcome(s *shop.Shop, action string, err error) (string, map[string]interface{}) {
	result := map[string]interface{}{"message": s.MessageFor(err, action == "auth.sign_up")}

	var verrs validate.Errors
	if errors.As(err, &verrs) {
		fields := make([]string, len(verrs))
		for i, fe := range verrs {
			fields[i] = fe.Field
		}
		result["fields"] = strings.Join(fields, ",")
	}
	if code := identity.Code(err); code != "" {
		result["code"] = code
	}
	return shop.Kind(err), result
}
