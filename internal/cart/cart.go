// Package cart holds the shopping cart: one line per product with a snapshot
// of the product's pricing, and the totals derived from those lines.
package cart

import (
	"math"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/piyush31508/Flavor-Express/internal/domain/product"
	"github.com/piyush31508/Flavor-Express/internal/pricing"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrLineNotFound    = errors.New("product is not in the cart")
)

// Line is a single cart entry. Pricing fields are copied from the product at
// the time it was first added.
type Line struct {
	ProductID          string
	Title              string
	Description        string
	Thumbnail          string
	Price              decimal.Decimal
	DiscountPercentage decimal.Decimal
	Quantity           int
}

func lineFrom(p product.Product, quantity int) Line {
	return Line{
		ProductID:          p.ID,
		Title:              p.Title,
		Description:        p.Description,
		Thumbnail:          p.Thumbnail,
		Price:              p.Price,
		DiscountPercentage: p.DiscountPercentage,
		Quantity:           quantity,
	}
}

// UnitPrice returns the discounted price of one unit, rounded to cents.
func (l Line) UnitPrice() decimal.Decimal {
	return pricing.Round2(pricing.Discounted(l.Price, l.DiscountPercentage))
}

// Total returns the rounded line total.
func (l Line) Total() decimal.Decimal {
	return pricing.Round2(l.subtotal())
}

func (l Line) subtotal() decimal.Decimal {
	return pricing.LineTotal(l.Price, l.DiscountPercentage, l.Quantity)
}

// Store is an in-memory cart. It is safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	lines []Line
	index map[string]int
}

// New returns an empty cart.
func New() *Store {
	return &Store{index: make(map[string]int)}
}

// AddItem adds quantity units of p. A product already in the cart has its
// quantity increased; otherwise a new line is appended. A merge that would
// overflow the line quantity is rejected and leaves the cart unchanged.
func (s *Store) AddItem(p product.Product, quantity int) (Line, error) {
	if quantity < 1 {
		return Line{}, ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[p.ID]; ok {
		if quantity > math.MaxInt-s.lines[i].Quantity {
			return Line{}, ErrInvalidQuantity
		}
		s.lines[i].Quantity += quantity
		return s.lines[i], nil
	}

	s.index[p.ID] = len(s.lines)
	s.lines = append(s.lines, lineFrom(p, quantity))
	return s.lines[len(s.lines)-1], nil
}

// UpdateQuantity replaces the quantity of the line for productID.
func (s *Store) UpdateQuantity(productID string, quantity int) (Line, error) {
	if quantity < 1 {
		return Line{}, ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[productID]
	if !ok {
		return Line{}, ErrLineNotFound
	}
	s.lines[i].Quantity = quantity
	return s.lines[i], nil
}

// RemoveItem deletes the line for productID. Removing an absent product does
// nothing.
func (s *Store) RemoveItem(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[productID]
	if !ok {
		return
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	delete(s.index, productID)
	for j := i; j < len(s.lines); j++ {
		s.index[s.lines[j].ProductID] = j
	}
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.index = make(map[string]int)
}

// Lines returns a copy of the cart lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Line(nil), s.lines...)
}

// Line returns the line for productID.
func (s *Store) Line(productID string) (Line, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[productID]
	if !ok {
		return Line{}, false
	}
	return s.lines[i], true
}

// LineTotal returns the rounded total of line.
func (s *Store) LineTotal(line Line) decimal.Decimal {
	return line.Total()
}

// GrandTotal sums the unrounded line totals and rounds the result once.
func (s *Store) GrandTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	return grandTotal(s.lines)
}

// ItemCount returns the number of distinct products in the cart.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.lines)
}

// Snapshot is a consistent view of the cart lines and their total.
type Snapshot struct {
	Lines      []Line
	GrandTotal decimal.Decimal
}

// Snapshot returns the lines and grand total read under a single lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Lines:      append([]Line(nil), s.lines...),
		GrandTotal: grandTotal(s.lines),
	}
}

func grandTotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.subtotal())
	}
	return pricing.Round2(sum)
}
