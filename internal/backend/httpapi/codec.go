package httpapi

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/piyush31508/Flavor-Express/internal/domain/auth"
	"github.com/piyush31508/Flavor-Express/internal/domain/product"
	"github.com/piyush31508/Flavor-Express/internal/jsonx"
)

func decodeProduct(d *jx.Decoder) (product.Product, error) {
	var (
		p        product.Product
		mongoID  string
		plainID  string
		rating   decimal.Decimal
		hasScore bool
	)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "_id":
			mongoID, err = jsonx.String(d)
		case "id":
			if d.Next() == jx.Number {
				var n jx.Num
				n, err = d.Num()
				plainID = n.String()
			} else {
				plainID, err = jsonx.String(d)
			}
		case "title":
			p.Title, err = jsonx.String(d)
		case "description":
			p.Description, err = jsonx.String(d)
		case "price":
			p.Price, err = jsonx.Decimal(d)
		case "discountPercentage":
			p.DiscountPercentage, err = jsonx.Decimal(d)
		case "thumbnail":
			p.Thumbnail, err = jsonx.String(d)
		case "images":
			p.Images, err = jsonx.Strings(d)
		case "rating":
			hasScore = d.Next() != jx.Null
			rating, err = jsonx.Decimal(d)
		default:
			err = d.Skip()
		}
		return errors.Wrap(err, key)
	})
	if err != nil {
		return product.Product{}, err
	}

	p.ID = mongoID
	if p.ID == "" {
		p.ID = plainID
	}
	if hasScore {
		p.Rating = &rating
	}
	return p, nil
}

// decodePage decodes {products: [...], <totalKey>: N}.
func decodePage(data []byte, totalKey string) (product.Page, error) {
	var page product.Page
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "products":
			return d.Arr(func(d *jx.Decoder) error {
				p, err := decodeProduct(d)
				if err != nil {
					return errors.Wrapf(err, "product %d", len(page.Items))
				}
				page.Items = append(page.Items, p)
				return nil
			})
		case totalKey:
			n, err := jsonx.Int(d)
			page.Total = n
			return errors.Wrap(err, key)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return product.Page{}, errors.Wrap(err, "decode page")
	}
	return page, nil
}

func decodeUser(d *jx.Decoder) (auth.User, error) {
	var (
		u       auth.User
		mongoID string
		plainID string
	)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "_id":
			mongoID, err = jsonx.String(d)
		case "id":
			plainID, err = jsonx.String(d)
		case "name":
			u.Name, err = jsonx.String(d)
		case "email":
			u.Email, err = jsonx.String(d)
		case "isAdmin":
			u.IsAdmin, err = jsonx.Bool(d)
		case "role":
			var role string
			role, err = jsonx.String(d)
			if role == "admin" {
				u.IsAdmin = true
			}
		default:
			err = d.Skip()
		}
		return errors.Wrap(err, key)
	})
	if err != nil {
		return auth.User{}, err
	}
	u.ID = mongoID
	if u.ID == "" {
		u.ID = plainID
	}
	return u, nil
}

// errorMessage extracts {"message": "..."} from an error body, if present.
func errorMessage(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var msg string
	_ = jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		if key == "message" && d.Next() == jx.String {
			s, err := d.Str()
			msg = s
			return err
		}
		return d.Skip()
	})
	return msg
}

func encodeDraft(e *jx.Encoder, d product.Draft) {
	e.ObjStart()
	e.FieldStart("title")
	e.Str(d.Title)
	e.FieldStart("price")
	jsonx.EncodeDecimal(e, d.Price)
	e.FieldStart("description")
	e.Str(d.Description)
	e.FieldStart("discountPercentage")
	jsonx.EncodeDecimal(e, d.DiscountPercentage)
	e.FieldStart("thumbnail")
	e.Str(d.Thumbnail)
	e.FieldStart("images")
	jsonx.EncodeStrings(e, d.Images)
	e.ObjEnd()
}

// encodePatch writes only the fields set on p.
func encodePatch(e *jx.Encoder, p product.Patch) {
	e.ObjStart()
	if p.Price != nil {
		e.FieldStart("price")
		jsonx.EncodeDecimal(e, *p.Price)
	}
	if p.Title != nil {
		e.FieldStart("title")
		e.Str(*p.Title)
	}
	if p.Description != nil {
		e.FieldStart("description")
		e.Str(*p.Description)
	}
	if p.DiscountPercentage != nil {
		e.FieldStart("discountPercentage")
		jsonx.EncodeDecimal(e, *p.DiscountPercentage)
	}
	if p.Thumbnail != nil {
		e.FieldStart("thumbnail")
		e.Str(*p.Thumbnail)
	}
	if len(p.Images) > 0 {
		e.FieldStart("images")
		jsonx.EncodeStrings(e, p.Images)
	}
	e.ObjEnd()
}
