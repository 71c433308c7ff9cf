package product

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/piyush31508/Flavor-Express/internal/pricing"
)

// PageSize is the number of products the backend returns per catalog page.
const PageSize = 12

// MaxImages is the number of additional image URLs a product may carry.
const MaxImages = 3

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

var defaultRating = decimal.RequireFromString("4.5")

// Product represents a dish listed in the storefront catalog.
type Product struct {
	ID                 string
	Title              string
	Description        string
	Price              decimal.Decimal
	DiscountPercentage decimal.Decimal
	Thumbnail          string
	Images             []string
	Rating             *decimal.Decimal
}

// DiscountedPrice returns the per-unit price after discount, rounded to cents.
func (p Product) DiscountedPrice() decimal.Decimal {
	return pricing.Round2(pricing.Discounted(p.Price, p.DiscountPercentage))
}

// Savings returns how much one unit saves versus the list price.
func (p Product) Savings() decimal.Decimal {
	return pricing.Savings(p.Price, p.DiscountPercentage)
}

// DisplayRating returns the product rating, or 4.5 when the product has none.
func (p Product) DisplayRating() decimal.Decimal {
	if p.Rating == nil || !p.Rating.IsPositive() {
		return defaultRating
	}
	return *p.Rating
}

// Page is one page of catalog results as returned by the backend.
type Page struct {
	Items []Product
	// Total counts matching products across every page.
	Total int
}

// TotalPages returns ceil(total / PageSize).
func TotalPages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + PageSize - 1) / PageSize
}

// Catalog is the read side of the remote product backend.
type Catalog interface {
	ListPage(ctx context.Context, page int) (Page, error)
	SearchPage(ctx context.Context, query string, page int) (Page, error)
}

// Admin is the write side of the remote product backend.
type Admin interface {
	Create(ctx context.Context, draft Draft) error
	Update(ctx context.Context, id string, patch Patch) error
	Delete(ctx context.Context, id string) error
}

// Draft holds the fields of a product being created by an administrator.
type Draft struct {
	Title              string
	Description        string
	Price              decimal.Decimal
	DiscountPercentage decimal.Decimal
	Thumbnail          string
	Images             []string
}

// ValidationError describes the first invalid field of a Draft or Patch.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Normalize trims text fields and drops empty image slots.
func (d Draft) Normalize() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Thumbnail = strings.TrimSpace(d.Thumbnail)
	d.Images = compactImages(d.Images)
	return d
}

// Validate checks a normalized draft.
func (d Draft) Validate() error {
	switch {
	case d.Title == "":
		return &ValidationError{Field: "title", Reason: "Product title is required"}
	case d.Description == "":
		return &ValidationError{Field: "description", Reason: "Product description is required"}
	case !d.Price.IsPositive():
		return &ValidationError{Field: "price", Reason: "Please enter a valid price"}
	case !validPercent(d.DiscountPercentage):
		return &ValidationError{Field: "discountPercentage", Reason: "Discount must be between 0 and 100"}
	case d.Thumbnail == "":
		return &ValidationError{Field: "thumbnail", Reason: "Thumbnail image URL is required"}
	case len(d.Images) == 0:
		return &ValidationError{Field: "images", Reason: "At least one product image URL is required"}
	case len(d.Images) > MaxImages:
		return &ValidationError{Field: "images", Reason: "At most 3 product images are allowed"}
	}
	return nil
}

// Patch is a partial product update. Nil fields are left unchanged.
type Patch struct {
	Title              *string
	Description        *string
	Price              *decimal.Decimal
	DiscountPercentage *decimal.Decimal
	Thumbnail          *string
	Images             []string
}

// Normalize trims set text fields and drops blank values, so that only
// meaningful changes are sent to the backend. A zero price or discount counts
// as blank: a patch leaves it unchanged, so an existing discount cannot be
// cleared this way.
func (p Patch) Normalize() Patch {
	p.Title = trimmedOrNil(p.Title)
	p.Description = trimmedOrNil(p.Description)
	p.Thumbnail = trimmedOrNil(p.Thumbnail)
	if p.Price != nil && p.Price.IsZero() {
		p.Price = nil
	}
	if p.DiscountPercentage != nil && p.DiscountPercentage.IsZero() {
		p.DiscountPercentage = nil
	}
	p.Images = compactImages(p.Images)
	return p
}

// Validate checks a normalized patch.
func (p Patch) Validate() error {
	if p.Empty() {
		return &ValidationError{Reason: "Nothing to update"}
	}
	if p.Price != nil && !p.Price.IsPositive() {
		return &ValidationError{Field: "price", Reason: "Please enter a valid price"}
	}
	if p.DiscountPercentage != nil && !validPercent(*p.DiscountPercentage) {
		return &ValidationError{Field: "discountPercentage", Reason: "Discount must be between 0 and 100"}
	}
	if len(p.Images) > MaxImages {
		return &ValidationError{Field: "images", Reason: "At most 3 product images are allowed"}
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Price == nil &&
		p.DiscountPercentage == nil && p.Thumbnail == nil && len(p.Images) == 0
}

func validPercent(pct decimal.Decimal) bool {
	return !pct.IsNegative() && pct.LessThanOrEqual(decimal.NewFromInt(100))
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func compactImages(images []string) []string {
	var out []string
	for _, img := range images {
		if img = strings.TrimSpace(img); img != "" {
			out = append(out, img)
		}
	}
	return out
}
