package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/piyush31508/Flavor-Express/internal/cart"
	"github.com/piyush31508/Flavor-Express/internal/domain/order"
	"github.com/piyush31508/Flavor-Express/internal/jsonx"
)

// GetCart returns the cart lines and totals.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeCart(w, http.StatusOK, h.sf.Cart())
}

// AddItem adds {"productId", "quantity"} to the cart. Quantity defaults to 1.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var (
		productID string
		quantity  = 1
	)
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			productID, err = jsonx.String(d)
		case "quantity":
			quantity, err = jsonx.Int(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		h.fail(r.Context(), w, err)
		return
	}

	if _, err := h.sf.AddToCart(productID, quantity); err != nil {
		h.fail(r.Context(), w, err)
		return
	}
	writeCart(w, http.StatusOK, h.sf.Cart())
}

// UpdateItem sets the quantity of cart line {id}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var quantity int
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		if key == "quantity" {
			v, err := jsonx.Int(d)
			quantity = v
			return err
		}
		return d.Skip()
	}); err != nil {
		h.fail(r.Context(), w, err)
		return
	}

	if _, err := h.sf.UpdateQuantity(chi.URLParam(r, "id"), quantity); err != nil {
		h.fail(r.Context(), w, err)
		return
	}
	writeCart(w, http.StatusOK, h.sf.Cart())
}

// RemoveItem deletes cart line {id}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.sf.RemoveFromCart(chi.URLParam(r, "id"))
	writeCart(w, http.StatusOK, h.sf.Cart())
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.sf.ClearCart()
	writeCart(w, http.StatusOK, h.sf.Cart())
}

// Checkout requests a payment order for the cart total.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	o, err := h.sf.Checkout(r.Context())
	if err != nil {
		h.fail(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func writeCart(w http.ResponseWriter, status int, snap cart.Snapshot) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("items", func(e *jx.Encoder) {
				e.ArrStart()
				for _, l := range snap.Lines {
					encodeLine(e, l)
				}
				e.ArrEnd()
			})
			e.Field("itemCount", func(e *jx.Encoder) { e.Int(len(snap.Lines)) })
			e.Field("grandTotal", func(e *jx.Encoder) { jsonx.EncodeMoney(e, snap.GrandTotal) })
		})
	})
}

func encodeLine(e *jx.Encoder, l cart.Line) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("productId", func(e *jx.Encoder) { e.Str(l.ProductID) })
		e.Field("title", func(e *jx.Encoder) { e.Str(l.Title) })
		e.Field("description", func(e *jx.Encoder) { e.Str(l.Description) })
		e.Field("thumbnail", func(e *jx.Encoder) { e.Str(l.Thumbnail) })
		e.Field("price", func(e *jx.Encoder) { jsonx.EncodeDecimal(e, l.Price) })
		e.Field("discountPercentage", func(e *jx.Encoder) { jsonx.EncodeDecimal(e, l.DiscountPercentage) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
		e.Field("unitPrice", func(e *jx.Encoder) { jsonx.EncodeMoney(e, l.UnitPrice()) })
		e.Field("total", func(e *jx.Encoder) { jsonx.EncodeMoney(e, l.Total()) })
	})
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("amount", func(e *jx.Encoder) { jsonx.EncodeMoney(e, o.Amount) })
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(o.CreatedAt.UTC().Format(time.RFC3339)) })
		e.Field("items", func(e *jx.Encoder) {
			e.ArrStart()
			for _, it := range o.Items {
				e.Obj(func(e *jx.Encoder) {
					e.Field("productId", func(e *jx.Encoder) { e.Str(it.ProductID) })
					e.Field("title", func(e *jx.Encoder) { e.Str(it.Title) })
					e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
					e.Field("total", func(e *jx.Encoder) { jsonx.EncodeMoney(e, it.Total) })
				})
			}
			e.ArrEnd()
		})
		e.Field("payment", func(e *jx.Encoder) {
			if o.Payment == nil {
				e.Null()
				return
			}
			e.Obj(func(e *jx.Encoder) {
				e.Field("id", func(e *jx.Encoder) { e.Str(o.Payment.ID) })
				e.Field("amount", func(e *jx.Encoder) { jsonx.EncodeDecimal(e, o.Payment.Amount) })
				e.Field("currency", func(e *jx.Encoder) { e.Str(o.Payment.Currency) })
			})
		})
	})
}
