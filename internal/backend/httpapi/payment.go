package httpapi

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/piyush31508/Flavor-Express/internal/domain/order"
	"github.com/piyush31508/Flavor-Express/internal/jsonx"
)

// CreateOrder implements order.Payments via POST /payment/checkout.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal) (*order.Payment, error) {
	e := &jx.Encoder{}
	e.Obj(func(e *jx.Encoder) {
		e.Field("amount", func(e *jx.Encoder) { jsonx.EncodeDecimal(e, amount) })
	})

	data, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/payment/checkout",
		body:   e,
		token:  c.sessionToken(ctx),
	})
	if err != nil {
		return nil, err
	}

	var p order.Payment
	if err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		if key != "order" {
			return d.Skip()
		}
		return d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "id":
				p.ID, err = jsonx.String(d)
			case "amount":
				p.Amount, err = jsonx.Decimal(d)
			case "currency":
				p.Currency, err = jsonx.String(d)
			default:
				err = d.Skip()
			}
			return err
		})
	}); err != nil {
		return nil, errors.Wrap(err, "decode payment order")
	}
	if p.ID == "" {
		return nil, errors.New("payment response has no order id")
	}
	return &p, nil
}
