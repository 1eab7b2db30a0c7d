package checkout

import "github.com/roach88/techshop/internal/domain"

// Translator renders display strings.
type Translator interface {
	T(key string, params map[string]any) string
}

var paymentKeys = map[string]string{
	domain.PaymentCashOnDelivery: "payment.cod",
	domain.PaymentQRTransfer:     "payment.kaspi_qr",
	domain.PaymentCardOnline:     "payment.card_online",
}

// PaymentMethods returns the fixed payment enumeration with translated names.
func PaymentMethods(t Translator) []domain.PaymentMethod {
	methods := make([]domain.PaymentMethod, 0, len(domain.PaymentMethodIDs))
	for _, id := range domain.PaymentMethodIDs {
		pm, _ := PaymentMethod(t, id)
		methods = append(methods, pm)
	}
	return methods
}

// PaymentMethod looks up one payment method by id.
func PaymentMethod(t Translator, id string) (domain.PaymentMethod, bool) {
	key, ok := paymentKeys[id]
	if !ok {
		return domain.PaymentMethod{}, false
	}
	return domain.PaymentMethod{
		ID:          id,
		Name:        t.T(key+".name", nil),
		Description: t.T(key+".desc", nil),
	}, true
}
