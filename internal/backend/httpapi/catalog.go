package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/piyush31508/Flavor-Express/internal/domain/product"
)

// ListPage implements product.Catalog via GET /product/all.
func (c *Client) ListPage(ctx context.Context, page int) (product.Page, error) {
	data, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/product/all",
		query:  url.Values{"page": {strconv.Itoa(page)}},
	})
	if err != nil {
		return product.Page{}, err
	}
	return decodePage(data, "totalProducts")
}

// SearchPage implements product.Catalog via GET /product/search.
func (c *Client) SearchPage(ctx context.Context, query string, page int) (product.Page, error) {
	data, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/product/search",
		query:  url.Values{"q": {query}, "page": {strconv.Itoa(page)}},
	})
	if err != nil {
		return product.Page{}, err
	}
	return decodePage(data, "total")
}

// Create implements product.Admin via POST /product/create.
func (c *Client) Create(ctx context.Context, d product.Draft) error {
	e := &jx.Encoder{}
	encodeDraft(e, d)
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/product/create",
		body:   e,
		token:  c.sessionToken(ctx),
	})
	return err
}

// Update implements product.Admin via PUT /product/{id}.
func (c *Client) Update(ctx context.Context, id string, p product.Patch) error {
	if id == "" {
		return errors.New("product id is required")
	}
	e := &jx.Encoder{}
	encodePatch(e, p)
	_, err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "/product/" + url.PathEscape(id),
		body:   e,
		token:  c.sessionToken(ctx),
	})
	return err
}

// Delete implements product.Admin via DELETE /product/{id}.
func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("product id is required")
	}
	_, err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/product/" + url.PathEscape(id),
		token:  c.sessionToken(ctx),
	})
	return err
}
