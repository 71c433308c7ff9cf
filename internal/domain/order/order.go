package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a checkout that was handed to the payment backend.
type Order struct {
	ID        string
	Amount    decimal.Decimal
	Items     []Item
	Payment   *Payment
	CreatedAt time.Time
}

// Item represents a single line of the checked out cart.
type Item struct {
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

// Payment is the handle returned by the payment backend for a created
// payment order. The caller completes the payment with the provider.
type Payment struct {
	ID       string
	Amount   decimal.Decimal
	Currency string
}

// Payments creates payment orders for a total amount.
type Payments interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal) (*Payment, error)
}
