package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/techshop/internal/storage"
)

func TestCartAdd(t *testing.T) {
	c := newShopCLI(t, storage.BackendSQLite)

	out := c.ok("cart", "add", "prod_1", "-n", "2")
	assert.Equal(t, "\"Wireless Noise-Cancelling Headphones\" added to cart.\n2 items, total 399.98\n", out)

	out = c.ok("cart", "add", "prod_2")
	assert.Contains(t, out, "3 items, total 412.48")

	out = c.ok("cart", "show")
	assert.Regexp(t, `prod_1\s+Wireless Noise-Cancelling Headphones\s+2\s+199.99\s+399.98`, out)
	assert.Regexp(t, `prod_2\s+The Great Gatsby - F. Scott Fitzgerald\s+1\s+12.50\s+12.50`, out)
}

func TestCartAdd_ClampsToStock(t *testing.T) {
	c := newShopCLI(t, storage.BackendSQLite)

	out := c.ok("cart", "add", "prod_11", "-n", "2")
	assert.NotContains(t, out, "Only")

	out = c.ok("cart", "add", "prod_11", "-n", "5")
	assert.Contains(t, out, `Only 3 of "Ceramic Pour-Over Set" available.`)
	assert.Contains(t, out, "3 items, total 126.00")

	resp, code := c.json("cart", "add", "prod_11")
	require.Equal(t, ExitSuccess, code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["clamped"])
	line := data["line"].(map[string]interface{})
	assert.Equal(t, float64(3), line["quantity"])
}

func TestCartAdd_Rejected(t *testing.T) {
	c := newShopCLI(t, storage.BackendSQLite)

	res := c.run("cart", "add", "prod_10")
	assert.Equal(t, ExitFailure, res.code)
	assert.Equal(t, "Error [OutOfStock]: \"Nova X1 Lite Smartphone 64GB\" is out of stock.\n", res.stderr)

	res = c.run("cart", "add", "prod_1", "-n", "0")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "Error [InvalidQuantity]")

	resp, code := c.json("cart", "add", "prod_404")
	assert.Equal(t, ExitFailure, code)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UnknownProduct", resp.Error.Code)

	assert.Equal(t, "Your cart is empty.\n", c.ok("cart", "show"))
}

func TestCartSetRemoveClear(t *testing.T) {
	c := newShopCLI(t, storage.BackendSQLite)
	c.ok("cart", "add", "prod_11")
	c.ok("cart", "add", "prod_3", "-n", "2")

	assert.Equal(t, "Quantity updated.\n", c.ok("cart", "set", "prod_11", "99"))
	resp, _ := c.json("cart", "show")
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(5), data["itemCount"], "set clamps to stock")

	c.ok("cart", "set", "prod_11", "0")
	resp, _ = c.json("cart", "show")
	data = resp.Data.(map[string]interface{})
	assert.Len(t, data["lines"], 1, "zero quantity removes the line")

	res := c.run("cart", "set", "prod_3", "two")
	assert.Equal(t, ExitCommandError, res.code)

	assert.Equal(t, "Item removed from cart.\n", c.ok("cart", "remove", "prod_3"))
	assert.Equal(t, "Item removed from cart.\n", c.ok("cart", "remove", "prod_3"), "removing an absent line is a no-op")

	c.ok("cart", "add", "prod_2")
	assert.Equal(t, "Cart cleared.\n", c.ok("cart", "clear"))
	assert.Equal(t, "Your cart is empty.\n", c.ok("cart", "show"))
}

func TestWishlistCommands(t *testing.T) {
	c := newShopCLI(t, storage.BackendBolt)

	assert.Equal(t, "Your wishlist is empty.\n", c.ok("wishlist", "show"))
	assert.Equal(t, "\"Advanced Smartwatch\" added to wishlist.\n", c.ok("wishlist", "add", "prod_5"))
	c.ok("wishlist", "add", "prod_5")
	c.ok("wishlist", "add", "prod_7")

	resp, _ := c.json("wishlist", "show")
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["count"], "adding twice keeps one entry")

	assert.Equal(t, "Item removed from wishlist.\n", c.ok("wishlist", "remove", "prod_5"))
	out := c.ok("wishlist", "show")
	assert.Contains(t, out, "Women's Lightweight Running Shoes")
	assert.NotContains(t, out, "Advanced Smartwatch")

	res := c.run("wishlist", "add", "prod_404")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "Error [UnknownProduct]")
}
