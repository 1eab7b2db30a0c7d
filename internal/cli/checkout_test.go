package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/techshop/internal/storage"
)

func TestCheckout_Guards(t *testing.T) {
	c := newShopCLI(t, storage.BackendSQLite)

	res := c.run(c.shipping()...)
	assert.Equal(t, ExitFailure, res.code)
	assert.Equal(t, "Error [EmptyCart]: Your cart is empty, checkout is unavailable.\n", res.stderr)
	assert.Equal(t, "Your cart is empty, checkout is unavailable.\n", c.ok("checkout", "status"))

	c.ok("cart", "add", "prod_1")

	res = c.run("checkout", "payment", "cod")
	assert.Equal(t, ExitFailure, res.code)
	assert.Equal(t, "Error [ShippingRequired]: Complete the \"Shipping\" step first.\n", res.stderr)

	res = c.run("checkout", "shipping", "--full-name", "A", "--email", "not-an-email")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "Error [Invalid]")
	assert.Contains(t, res.stderr, "email: Invalid email.")

	assert.Equal(t, "Shipping address saved.\n", c.ok(c.shipping()...))

	res = c.run("checkout", "review")
	assert.Equal(t, ExitFailure, res.code)
	assert.Equal(t, "Error [PaymentRequired]: Complete the \"Payment\" step first.\n", res.stderr)

	res = c.run("checkout", "place")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "Error [PaymentRequired]")

	res = c.run("checkout", "payment", "bitcoin")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "Error [Invalid]")
}

func TestCheckout_Status(t *testing.T) {
	c := newShopCLI(t, storage.BackendSQLite)
	c.ok("cart", "add", "prod_2", "-n", "2")
	c.ok(c.shipping()...)

	out := c.ok("checkout", "status")
	assert.Contains(t, out, "Payment (/checkout/payment)")
	assert.Contains(t, out, "Shipping: Aliya Nurlanova, Abay Ave 10, Almaty, 050000, Kazakhstan")
	assert.Contains(t, out, "Payment: not set")
	assert.Contains(t, out, "  - The Great Gatsby - F. Scott Fitzgerald: 2 x 12.50 = 25.00")
	assert.Contains(t, out, "2 items, total 25.00")

	assert.Equal(t, "Payment method saved.\n", c.ok("checkout", "payment", "kaspi_qr"))

	resp, code := c.json("checkout", "review")
	require.Equal(t, ExitSuccess, code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "review", data["step"])
	assert.Equal(t, "/checkout/review", data["path"])
	assert.Equal(t, "kaspi_qr", data["paymentMethod"].(map[string]interface{})["id"])
}

func TestCheckout_PlaceOrder(t *testing.T) {
	c := newShopCLI(t, storage.BackendSQLite)
	c.ok("cart", "add", "prod_1", "-n", "2")
	c.ok("cart", "add", "prod_2")
	c.ok(c.shipping()...)
	c.ok("checkout", "payment", "cod")

	resp, code := c.json("checkout", "place")
	require.Equal(t, ExitSuccess, code)
	data := resp.Data.(map[string]interface{})
	order := data["order"].(map[string]interface{})
	id := order["id"].(string)
	assert.True(t, strings.HasPrefix(id, "TECHSHOP-"), id)
	assert.Equal(t, "412.48", order["totalPrice"])
	assert.Equal(t, "pending", order["status"])
	assert.Equal(t, "/checkout/confirmation?orderId="+id, data["path"])

	assert.Equal(t, "Your cart is empty.\n", c.ok("cart", "show"), "placing clears the cart")
	assert.Equal(t, "Your cart is empty, checkout is unavailable.\n", c.ok("checkout", "status"), "placing clears the draft")

	out := c.ok("orders", "show", id)
	assert.Contains(t, out, "Order "+id)
	assert.Contains(t, out, "Status: Pending")
	assert.Contains(t, out, "Items (3 items):")
	assert.Contains(t, out, "  - Wireless Noise-Cancelling Headphones: 2 x 199.99 = 399.98")
	assert.Contains(t, out, "Total: 412.48")
	assert.Contains(t, out, "Payment: Cash on Delivery")
}

func TestCheckout_PlaceOrderText(t *testing.T) {
	c := newShopCLI(t, storage.BackendBolt)
	c.ok("cart", "add", "prod_3")
	c.ok(c.shipping()...)
	c.ok("checkout", "payment", "card_online")

	out := c.ok("checkout", "place")
	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Regexp(t, `^Order TECHSHOP-\S+ placed successfully!$`, lines[0])
	assert.Contains(t, out, "Total: 25.00")
	assert.Contains(t, out, "Payment: Card Online")
}

func TestCheckout_Abandon(t *testing.T) {
	c := newShopCLI(t, storage.BackendSQLite)
	c.ok("cart", "add", "prod_3")
	c.ok(c.shipping()...)
	c.ok("checkout", "payment", "cod")

	assert.Equal(t, "Checkout abandoned.\n", c.ok("checkout", "abandon"))

	out := c.ok("checkout", "status")
	assert.Contains(t, out, "Shipping (/checkout/shipping)")
	assert.Contains(t, out, "Shipping: not set")
	assert.Contains(t, out, "1 item, total 25.00", "abandoning keeps the cart")
}
