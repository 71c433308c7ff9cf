// Package storefront ties the catalog, the cart and the user session together
// and enforces the rules that span them: only signed in users may fill the
// cart and only administrators may edit the catalog.
package storefront

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/piyush31508/Flavor-Express/internal/cart"
	"github.com/piyush31508/Flavor-Express/internal/catalog"
	"github.com/piyush31508/Flavor-Express/internal/domain/order"
	"github.com/piyush31508/Flavor-Express/internal/domain/product"
	"github.com/piyush31508/Flavor-Express/internal/notify"
	"github.com/piyush31508/Flavor-Express/internal/session"
)

var (
	ErrLoginRequired = errors.New("login required")
	ErrForbidden     = errors.New("admin access required")
)

const msgLoginRequired = "Please log in to add items to your cart."

// Storefront is the single entry point used by the HTTP layer.
type Storefront struct {
	catalog *catalog.Store
	cart    *cart.Store
	session *session.Manager
	orders  *order.Service
	notify  notify.Notifier
	lg      *zap.Logger
}

// New creates a Storefront over already constructed stores.
func New(
	cat *catalog.Store,
	c *cart.Store,
	sess *session.Manager,
	orders *order.Service,
	n notify.Notifier,
	lg *zap.Logger,
) *Storefront {
	return &Storefront{
		catalog: cat,
		cart:    c,
		session: sess,
		orders:  orders,
		notify:  n,
		lg:      lg,
	}
}

func (s *Storefront) Catalog() catalog.Snapshot { return s.catalog.Snapshot() }
func (s *Storefront) Cart() cart.Snapshot       { return s.cart.Snapshot() }
func (s *Storefront) Session() session.State    { return s.session.State() }

// Start restores a persisted session and loads the first catalog page.
func (s *Storefront) Start(ctx context.Context) error {
	st := s.session.Restore(ctx)
	s.lg.Info("Session restored", zap.Bool("authenticated", st.Authenticated))

	if _, err := s.catalog.LoadPage(ctx, 1); err != nil {
		return errors.Wrap(err, "load first page")
	}
	return nil
}

// SubmitSearch searches for term from the first page. A blank term lists
// every product.
func (s *Storefront) SubmitSearch(ctx context.Context, term string) (catalog.Snapshot, error) {
	return s.catalog.Search(ctx, term, 1)
}

// ClearSearch returns to browsing from the first page.
func (s *Storefront) ClearSearch(ctx context.Context) (catalog.Snapshot, error) {
	return s.catalog.Search(ctx, "", 1)
}

// ChangePage moves to page within the active mode.
func (s *Storefront) ChangePage(ctx context.Context, page int) (catalog.Snapshot, error) {
	return s.catalog.Paginate(ctx, page)
}

// AddToCart adds quantity units of a product from the current catalog page.
func (s *Storefront) AddToCart(productID string, quantity int) (cart.Line, error) {
	if !s.session.State().Authenticated {
		s.notify.Error(msgLoginRequired)
		return cart.Line{}, ErrLoginRequired
	}

	p, ok := s.catalog.Snapshot().Product(productID)
	if !ok {
		return cart.Line{}, errors.Wrapf(product.ErrNotFound, "product %s", productID)
	}
	return s.cart.AddItem(p, quantity)
}

func (s *Storefront) UpdateQuantity(productID string, quantity int) (cart.Line, error) {
	return s.cart.UpdateQuantity(productID, quantity)
}

func (s *Storefront) RemoveFromCart(productID string) {
	s.cart.RemoveItem(productID)
}

func (s *Storefront) ClearCart() {
	s.cart.Clear()
}

// Checkout requests a payment order for the cart total.
func (s *Storefront) Checkout(ctx context.Context) (*order.Order, error) {
	return s.orders.Checkout(ctx, s.cart)
}

func (s *Storefront) requireAdmin() error {
	if !s.session.State().IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func (s *Storefront) CreateProduct(ctx context.Context, d product.Draft) (catalog.Snapshot, error) {
	if err := s.requireAdmin(); err != nil {
		return s.catalog.Snapshot(), err
	}
	return s.catalog.Create(ctx, d)
}

func (s *Storefront) UpdateProduct(ctx context.Context, id string, p product.Patch) (catalog.Snapshot, error) {
	if err := s.requireAdmin(); err != nil {
		return s.catalog.Snapshot(), err
	}
	return s.catalog.Update(ctx, id, p)
}

func (s *Storefront) DeleteProduct(ctx context.Context, id string) (catalog.Snapshot, error) {
	if err := s.requireAdmin(); err != nil {
		return s.catalog.Snapshot(), err
	}
	return s.catalog.Delete(ctx, id)
}

func (s *Storefront) Login(ctx context.Context, email string) error {
	return s.session.Login(ctx, email)
}

func (s *Storefront) Verify(ctx context.Context, otp string) (session.State, error) {
	return s.session.Verify(ctx, otp)
}

func (s *Storefront) Me(ctx context.Context) session.State {
	return s.session.Restore(ctx)
}

func (s *Storefront) Logout(ctx context.Context) error {
	return s.session.Logout(ctx)
}
