package storage

// Fixed storage keys, one per container.
const (
	KeyCart     = "cart"
	KeyCheckout = "checkoutData"
	KeyOrders   = "techshop_orders"
	KeyWishlist = "wishlistItems"
	KeyReviews  = "reviews"
	KeySession  = "session"
	KeyAccounts = "accounts"
)
