package handler

import (
	"context"
	"net"
	"net/http"
	"net/url"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/piyush31508/Flavor-Express/internal/backend/httpapi"
	"github.com/piyush31508/Flavor-Express/internal/cart"
	"github.com/piyush31508/Flavor-Express/internal/catalog"
	"github.com/piyush31508/Flavor-Express/internal/domain/order"
	"github.com/piyush31508/Flavor-Express/internal/domain/product"
	"github.com/piyush31508/Flavor-Express/internal/session"
	"github.com/piyush31508/Flavor-Express/internal/storefront"
)

// maxRequestBody caps request bodies accepted by the API.
const maxRequestBody = 1 << 20

var errBadRequest = errors.New("invalid request body")

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := &jx.Encoder{}
	encode(e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

// decodeBody decodes a JSON object body, calling field for every key.
func decodeBody(w http.ResponseWriter, r *http.Request, field func(d *jx.Decoder, key string) error) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := jx.Decode(body, 512).Obj(field); err != nil {
		return errors.Wrap(errBadRequest, err.Error())
	}
	return nil
}

// statusFor maps domain errors to an HTTP status and a client message.
func statusFor(err error) (int, string) {
	var verr *product.ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity, verr.Reason
	}

	var (
		serr *httpapi.StatusError
		uerr *url.Error
		nerr net.Error
	)
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, errBadRequest.Error()
	case errors.Is(err, catalog.ErrInvalidPage):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, catalog.ErrSuperseded):
		return http.StatusConflict, "superseded by a newer request"
	case errors.Is(err, catalog.ErrNoAdmin):
		return http.StatusNotImplemented, "catalog editing is disabled"
	case errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusUnprocessableEntity, cart.ErrInvalidQuantity.Error()
	case errors.Is(err, cart.ErrLineNotFound):
		return http.StatusNotFound, cart.ErrLineNotFound.Error()
	case errors.Is(err, order.ErrEmptyCart):
		return http.StatusUnprocessableEntity, order.ErrEmptyCart.Error()
	case errors.Is(err, storefront.ErrLoginRequired):
		return http.StatusUnauthorized, "Please log in to add items to your cart."
	case errors.Is(err, storefront.ErrForbidden):
		return http.StatusForbidden, storefront.ErrForbidden.Error()
	case errors.Is(err, session.ErrNoVerifyToken):
		return http.StatusBadRequest, "No verification token found"
	case errors.Is(err, session.ErrEmailRequired), errors.Is(err, session.ErrOTPRequired):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, product.ErrNotFound):
		return http.StatusNotFound, "product not found"
	case errors.As(err, &serr), errors.As(err, &uerr), errors.As(err, &nerr):
		return http.StatusBadGateway, "backend request failed"
	}
	return http.StatusInternalServerError, "internal error"
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	lg := zctx.From(ctx)
	switch {
	case status == http.StatusBadGateway:
		lg.Warn("Backend request failed", zap.Error(err))
	case status >= http.StatusInternalServerError:
		lg.Error("Request failed", zap.Int("status", status), zap.Error(err))
	default:
		lg.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	}
	writeError(w, status, msg)
}
