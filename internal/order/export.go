package order

import (
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/roach88/techshop/internal/domain"
)

// ExportRow is one CSV row: a single order item with its order context.
type ExportRow struct {
	OrderID   string `csv:"order_id"`
	Date      string `csv:"date"`
	Status    string `csv:"status"`
	UserID    string `csv:"user_id"`
	ProductID string `csv:"product_id"`
	Name      string `csv:"name"`
	Price     string `csv:"price"`
	Quantity  int    `csv:"quantity"`
	Subtotal  string `csv:"subtotal"`
	Payment   string `csv:"payment_method"`
	City      string `csv:"city"`
}

// Rows flattens orders into export rows, one per item, preserving order.
func Rows(orders []domain.Order) []*ExportRow {
	rows := []*ExportRow{}
	for _, o := range orders {
		for _, item := range o.Items {
			line := domain.CartLine{Product: domain.Product{Price: item.Price}, Quantity: item.Quantity}
			rows = append(rows, &ExportRow{
				OrderID:   o.ID,
				Date:      o.Date.UTC().Format(time.RFC3339),
				Status:    string(o.Status),
				UserID:    o.UserID,
				ProductID: item.ProductID,
				Name:      item.Name,
				Price:     item.Price.StringFixed(2),
				Quantity:  item.Quantity,
				Subtotal:  line.Subtotal().StringFixed(2),
				Payment:   o.PaymentMethod.ID,
				City:      o.ShippingAddress.City,
			})
		}
	}
	return rows
}

// WriteCSV writes orders as CSV with a header row.
func WriteCSV(w io.Writer, orders []domain.Order) error {
	if err := gocsv.Marshal(Rows(orders), w); err != nil {
		return fmt.Errorf("export orders: %w", err)
	}
	return nil
}
