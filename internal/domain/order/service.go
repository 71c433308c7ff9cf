package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/piyush31508/Flavor-Express/internal/cart"
)

// ErrEmptyCart is returned when checkout is attempted with nothing to pay for.
var ErrEmptyCart = errors.New("cart total must be greater than 0")

// Service encapsulates checkout business logic.
type Service struct {
	payments Payments
	lg       *zap.Logger
	now      func() time.Time
}

// NewService creates an order Service backed by the given payment backend.
func NewService(payments Payments, lg *zap.Logger) *Service {
	return &Service{
		payments: payments,
		lg:       lg,
		now:      time.Now,
	}
}

// Checkout requests a payment order for the cart grand total. The cart is
// left untouched; it is cleared once the payment is confirmed elsewhere.
func (s *Service) Checkout(ctx context.Context, c *cart.Store) (*Order, error) {
	snap := c.Snapshot()
	if !snap.GrandTotal.IsPositive() {
		return nil, ErrEmptyCart
	}

	items := make([]Item, len(snap.Lines))
	for i, l := range snap.Lines {
		items[i] = Item{
			ProductID: l.ProductID,
			Title:     l.Title,
			Quantity:  l.Quantity,
			Total:     l.Total(),
		}
	}

	payment, err := s.payments.CreateOrder(ctx, snap.GrandTotal)
	if err != nil {
		return nil, errors.Wrap(err, "create payment order")
	}

	o := &Order{
		ID:        uuid.New().String(),
		Amount:    snap.GrandTotal,
		Items:     items,
		Payment:   payment,
		CreatedAt: s.now(),
	}
	s.lg.Info("Checkout started",
		zap.String("order_id", o.ID),
		zap.String("payment_id", payment.ID),
		zap.Stringer("amount", o.Amount),
		zap.Int("lines", len(items)),
	)

	return o, nil
}
