package jsonx

import (
	"github.com/go-faster/jx"

	"github.com/piyush31508/Flavor-Express/internal/domain/product"
)

// DraftField decodes the value of key into the matching field of dst.
// Unknown keys are skipped.
func DraftField(d *jx.Decoder, key string, dst *product.Draft) error {
	var err error
	switch key {
	case "title":
		dst.Title, err = String(d)
	case "description":
		dst.Description, err = String(d)
	case "price":
		dst.Price, err = Decimal(d)
	case "discountPercentage":
		dst.DiscountPercentage, err = Decimal(d)
	case "thumbnail":
		dst.Thumbnail, err = String(d)
	case "images":
		dst.Images, err = Strings(d)
	default:
		err = d.Skip()
	}
	return err
}
