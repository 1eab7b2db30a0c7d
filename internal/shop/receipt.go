package shop

import (
	"fmt"
	"io"

	"github.com/roach88/techshop/internal/domain"
	"github.com/roach88/techshop/internal/i18n"
)

// StatusLabel translates an order status.
func StatusLabel(t *i18n.Translator, status domain.OrderStatus) string {
	key := "order.status." + string(status)
	if msg := t.T(key, nil); msg != key {
		return msg
	}
	return t.T("order.status.unknown", nil)
}

// WriteReceipt renders the confirmation receipt of o.
func WriteReceipt(w io.Writer, t *i18n.Translator, o domain.Order) error {
	a := o.ShippingAddress
	ew := &errWriter{w: w}

	ew.printf("%s\n", t.T("receipt.title", map[string]any{"id": o.ID}))
	ew.printf("%s: %s\n", t.T("receipt.date", nil), o.Date.UTC().Format("2006-01-02 15:04 MST"))
	ew.printf("%s: %s\n", t.T("receipt.status", nil), StatusLabel(t, o.Status))
	ew.printf("%s (%d %s):\n", t.T("receipt.items", nil), o.ItemCount(), t.Noun("item", o.ItemCount()))
	for _, item := range o.Items {
		line := domain.CartLine{Product: domain.Product{Price: item.Price}, Quantity: item.Quantity}
		ew.printf("  - %s: %d x %s = %s\n", item.Name, item.Quantity, item.Price.StringFixed(2), line.Subtotal().StringFixed(2))
	}
	ew.printf("%s: %s\n", t.T("receipt.total", nil), o.TotalPrice.StringFixed(2))
	ew.printf("%s: %s, %s, %s\n", t.T("receipt.shipping", nil), a.FullName, a.PhoneNumber, a.Email)
	ew.printf("  %s\n", a.OneLine())
	ew.printf("%s: %s\n", t.T("receipt.payment", nil), o.PaymentMethod.Name)
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
