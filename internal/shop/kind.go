package shop

import (
	"errors"

	"github.com/roach88/techshop/internal/cart"
	"github.com/roach88/techshop/internal/checkout"
	"github.com/roach88/techshop/internal/identity"
	"github.com/roach88/techshop/internal/order"
	"github.com/roach88/techshop/internal/review"
	"github.com/roach88/techshop/internal/validate"
)

// Error kinds reported by Kind.
const (
	KindInvalid          = "Invalid"
	KindUnknownProduct   = "UnknownProduct"
	KindInvalidQuantity  = "InvalidQuantity"
	KindOutOfStock       = "OutOfStock"
	KindEmptyCart        = "EmptyCart"
	KindShippingRequired = "ShippingRequired"
	KindPaymentRequired  = "PaymentRequired"
	KindPlacing          = "Placing"
	KindNoItems          = "NoItems"
	KindAuthError        = "AuthError"
	KindNeedsLogin       = "NeedsLogin"
	KindNeedsPurchase    = "NeedsPurchase"
	KindAlreadyReviewed  = "AlreadyReviewed"
	KindError            = "Error"
)

// Kind classifies err by the shop rule it broke. Errors that break no rule,
// such as storage failures, are KindError.
func Kind(err error) string {
	var verrs validate.Errors
	switch {
	case errors.As(err, &verrs):
		return KindInvalid
	case identity.Code(err) != "":
		return KindAuthError
	case errors.Is(err, ErrUnknownProduct):
		return KindUnknownProduct
	case errors.Is(err, cart.ErrInvalidQuantity):
		return KindInvalidQuantity
	case errors.Is(err, cart.ErrOutOfStock):
		return KindOutOfStock
	case errors.Is(err, checkout.ErrEmptyCart):
		return KindEmptyCart
	case errors.Is(err, checkout.ErrShippingRequired):
		return KindShippingRequired
	case errors.Is(err, checkout.ErrPaymentRequired):
		return KindPaymentRequired
	case errors.Is(err, checkout.ErrPlacing):
		return KindPlacing
	case errors.Is(err, order.ErrNoItems):
		return KindNoItems
	case errors.Is(err, review.ErrNeedsLogin):
		return KindNeedsLogin
	case errors.Is(err, review.ErrNeedsPurchase):
		return KindNeedsPurchase
	case errors.Is(err, review.ErrAlreadyReviewed):
		return KindAlreadyReviewed
	default:
		return KindError
	}
}
