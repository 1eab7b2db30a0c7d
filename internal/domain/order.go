package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Address is the shipping destination entered during checkout.
type Address struct {
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phoneNumber"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
}

// OneLine renders the postal part of the address on a single line.
func (a Address) OneLine() string {
	line := a.AddressLine1
	if a.AddressLine2 != "" {
		line += ", " + a.AddressLine2
	}
	return fmt.Sprintf("%s, %s, %s, %s", line, a.City, a.PostalCode, a.Country)
}

// PaymentMethod is one entry of the fixed payment enumeration.
type PaymentMethod struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Payment method identifiers.
const (
	PaymentCashOnDelivery = "cod"
	PaymentQRTransfer     = "kaspi_qr"
	PaymentCardOnline     = "card_online"
)

// PaymentMethodIDs lists the accepted payment method identifiers in display order.
var PaymentMethodIDs = []string{PaymentCashOnDelivery, PaymentQRTransfer, PaymentCardOnline}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// OrderItem is a snapshot of a cart line taken when the order was placed.
type OrderItem struct {
	ProductID string          `json:"productId" csv:"product_id"`
	Name      string          `json:"name" csv:"name"`
	Price     decimal.Decimal `json:"price" csv:"price"`
	Quantity  int             `json:"quantity" csv:"quantity"`
	ImageURL  string          `json:"imageUrl,omitempty" csv:"-"`
}

// Order is an immutable record of a completed checkout.
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId,omitempty"`
	Date            time.Time       `json:"date"`
	Items           []OrderItem     `json:"items"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	ShippingAddress Address         `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	Status          OrderStatus     `json:"status"`
}

// Contains reports whether the order has an item for the product.
func (o Order) Contains(productID string) bool {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// ItemCount is the sum of item quantities.
func (o Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}
