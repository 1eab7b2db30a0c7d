package harness

import (
	"github.com/roach88/techshop/internal/shop"
)

// Capture snapshots every subject of s for final_state assertions.
func Capture(s *shop.Shop) map[string]Snapshot {
	state := make(map[string]Snapshot, len(Subjects))

	lines := s.Cart.Lines()
	cartRows := make([]map[string]interface{}, len(lines))
	for i, l := range lines {
		cartRows[i] = map[string]interface{}{
			"product":  l.ID,
			"name":     l.Name,
			"quantity": l.Quantity,
			"price":    l.Price.StringFixed(2),
			"subtotal": l.Subtotal().StringFixed(2),
		}
	}
	state[SubjectCart] = Snapshot{
		Summary: map[string]interface{}{
			"line_count": s.Cart.LineCount(),
			"item_count": s.Cart.ItemCount(),
			"total":      s.Cart.TotalPrice().StringFixed(2),
			"empty":      s.Cart.IsEmpty(),
		},
		Rows: cartRows,
	}

	items := s.Wishlist.Items()
	wishRows := make([]map[string]interface{}, len(items))
	for i, p := range items {
		wishRows[i] = map[string]interface{}{"product": p.ID, "name": p.Name}
	}
	state[SubjectWishlist] = Snapshot{
		Summary: map[string]interface{}{"count": s.Wishlist.Count()},
		Rows:    wishRows,
	}

	_, hasShipping := s.Checkout.ShippingAddress()
	pm, hasPayment := s.Checkout.PaymentMethod()
	placed, _ := s.Checkout.PlacedOrderID()
	state[SubjectCheckout] = Snapshot{
		Summary: map[string]interface{}{
			"step":            s.Checkout.Step().String(),
			"has_shipping":    hasShipping,
			"has_payment":     hasPayment,
			"payment_method":  pm.ID,
			"placed_order_id": placed,
		},
	}

	orders := s.Orders.All()
	orderRows := make([]map[string]interface{}, len(orders))
	for i, o := range orders {
		orderRows[i] = map[string]interface{}{
			"id":             o.ID,
			"user_id":        o.UserID,
			"status":         string(o.Status),
			"item_count":     o.ItemCount(),
			"total":          o.TotalPrice.StringFixed(2),
			"payment_method": o.PaymentMethod.ID,
			"city":           o.ShippingAddress.City,
		}
	}
	state[SubjectOrders] = Snapshot{
		Summary: map[string]interface{}{
			"count":         len(orders),
			"visible_count": len(s.Orders.ListForCurrentUser()),
		},
		Rows: orderRows,
	}

	u, signedIn := s.Session.User()
	state[SubjectSession] = Snapshot{
		Summary: map[string]interface{}{
			"signed_in": signedIn,
			"email":     u.Email,
			"name":      u.DisplayName,
		},
	}

	return state
}
