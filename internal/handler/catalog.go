package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/piyush31508/Flavor-Express/internal/catalog"
	"github.com/piyush31508/Flavor-Express/internal/domain/product"
	"github.com/piyush31508/Flavor-Express/internal/jsonx"
)

// GetCatalog returns the current catalog page without fetching.
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	h.writeCatalog(w, http.StatusOK, h.sf.Catalog())
}

// ChangePage moves to {"page": N} in the active mode.
func (h *Handler) ChangePage(w http.ResponseWriter, r *http.Request) {
	var page int
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		if key == "page" {
			v, err := jsonx.Int(d)
			page = v
			return err
		}
		return d.Skip()
	}); err != nil {
		h.fail(r.Context(), w, err)
		return
	}

	snap, err := h.sf.ChangePage(r.Context(), page)
	if err != nil {
		h.fail(r.Context(), w, err)
		return
	}
	h.writeCatalog(w, http.StatusOK, snap)
}

// Search starts a search for {"query": "..."} from the first page.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var query string
	if err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		if key == "query" {
			v, err := jsonx.String(d)
			query = v
			return err
		}
		return d.Skip()
	}); err != nil {
		h.fail(r.Context(), w, err)
		return
	}

	snap, err := h.sf.SubmitSearch(r.Context(), query)
	if err != nil {
		h.fail(r.Context(), w, err)
		return
	}
	h.writeCatalog(w, http.StatusOK, snap)
}

// ClearSearch returns to the first browse page.
func (h *Handler) ClearSearch(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sf.ClearSearch(r.Context())
	if err != nil {
		h.fail(r.Context(), w, err)
		return
	}
	h.writeCatalog(w, http.StatusOK, snap)
}

// CreateProduct adds a product from a draft body.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var d product.Draft
	if err := decodeBody(w, r, func(dec *jx.Decoder, key string) error {
		return jsonx.DraftField(dec, key, &d)
	}); err != nil {
		h.fail(r.Context(), w, err)
		return
	}

	snap, err := h.sf.CreateProduct(r.Context(), d)
	if err != nil {
		h.fail(r.Context(), w, err)
		return
	}
	h.writeCatalog(w, http.StatusCreated, snap)
}

// UpdateProduct applies the fields present in the body to product {id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var p product.Patch
	if err := decodeBody(w, r, func(dec *jx.Decoder, key string) error {
		if dec.Next() == jx.Null {
			return dec.Null()
		}
		switch key {
		case "title":
			v, err := dec.Str()
			p.Title = &v
			return err
		case "description":
			v, err := dec.Str()
			p.Description = &v
			return err
		case "price":
			v, err := jsonx.Decimal(dec)
			p.Price = &v
			return err
		case "discountPercentage":
			v, err := jsonx.Decimal(dec)
			p.DiscountPercentage = &v
			return err
		case "thumbnail":
			v, err := dec.Str()
			p.Thumbnail = &v
			return err
		case "images":
			v, err := jsonx.Strings(dec)
			p.Images = v
			return err
		default:
			return dec.Skip()
		}
	}); err != nil {
		h.fail(r.Context(), w, err)
		return
	}

	snap, err := h.sf.UpdateProduct(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		h.fail(r.Context(), w, err)
		return
	}
	h.writeCatalog(w, http.StatusOK, snap)
}

// DeleteProduct removes product {id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sf.DeleteProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(r.Context(), w, err)
		return
	}
	h.writeCatalog(w, http.StatusOK, snap)
}

func (h *Handler) writeCatalog(w http.ResponseWriter, status int, snap catalog.Snapshot) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("products", func(e *jx.Encoder) {
				e.ArrStart()
				for _, p := range snap.Products {
					h.encodeProduct(e, p)
				}
				e.ArrEnd()
			})
			e.Field("total", func(e *jx.Encoder) { e.Int(snap.Total) })
			e.Field("page", func(e *jx.Encoder) { e.Int(snap.Page) })
			e.Field("totalPages", func(e *jx.Encoder) { e.Int(snap.TotalPages()) })
			e.Field("query", func(e *jx.Encoder) { e.Str(snap.Query) })
			e.Field("mode", func(e *jx.Encoder) { e.Str(snap.Mode().String()) })
			e.Field("loading", func(e *jx.Encoder) { e.Bool(snap.Loading) })
			e.Field("hasPrev", func(e *jx.Encoder) { e.Bool(snap.HasPrev()) })
			e.Field("hasNext", func(e *jx.Encoder) { e.Bool(snap.HasNext()) })
		})
	})
}

func (h *Handler) encodeProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("title", func(e *jx.Encoder) { e.Str(p.Title) })
		e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		e.Field("price", func(e *jx.Encoder) { jsonx.EncodeDecimal(e, p.Price) })
		e.Field("discountPercentage", func(e *jx.Encoder) { jsonx.EncodeDecimal(e, p.DiscountPercentage) })
		e.Field("discountedPrice", func(e *jx.Encoder) { jsonx.EncodeMoney(e, p.DiscountedPrice()) })
		e.Field("savings", func(e *jx.Encoder) { jsonx.EncodeMoney(e, p.Savings()) })
		e.Field("thumbnail", func(e *jx.Encoder) { e.Str(h.imageURL(p.Thumbnail)) })
		e.Field("images", func(e *jx.Encoder) {
			e.ArrStart()
			for _, img := range p.Images {
				e.Str(h.imageURL(img))
			}
			e.ArrEnd()
		})
		e.Field("rating", func(e *jx.Encoder) { jsonx.EncodeDecimal(e, p.DisplayRating()) })
	})
}
