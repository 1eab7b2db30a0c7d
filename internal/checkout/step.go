package checkout

import "net/url"

// Step is a position in the checkout flow. Steps are ordered: a later step
// is reachable only when every earlier one is complete.
type Step int

const (
	// StepCart is outside checkout; guards send shoppers here when the cart is empty.
	StepCart Step = iota
	StepShipping
	StepPayment
	StepReview
	StepConfirmation
)

// Steps lists the checkout steps in flow order.
var Steps = []Step{StepShipping, StepPayment, StepReview, StepConfirmation}

func (s Step) String() string {
	switch s {
	case StepCart:
		return "cart"
	case StepShipping:
		return "shipping"
	case StepPayment:
		return "payment"
	case StepReview:
		return "review"
	case StepConfirmation:
		return "confirmation"
	default:
		return "unknown"
	}
}

// ParseStep is the inverse of String.
func ParseStep(s string) (Step, bool) {
	for _, step := range append([]Step{StepCart}, Steps...) {
		if step.String() == s {
			return step, true
		}
	}
	return 0, false
}

// Path is the route of the step. The confirmation route needs an order id;
// see ConfirmationPath.
func (s Step) Path() string {
	if s == StepCart {
		return "/cart"
	}
	return "/checkout/" + s.String()
}

// MessageKey is the i18n key of the step title.
func (s Step) MessageKey() string {
	return "checkout.step." + s.String()
}

// ConfirmationPath is the confirmation route for orderID.
func ConfirmationPath(orderID string) string {
	return StepConfirmation.Path() + "?" + url.Values{"orderId": {orderID}}.Encode()
}

// Route is the outcome of a navigation guard.
type Route struct {
	Step Step
	Path string
	// Redirected is true when Step differs from the requested step.
	Redirected bool
}
