package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/piyush31508/Flavor-Express/internal/domain/product"
)

// ErrNoAdmin is returned by editor operations on a Store built without an
// admin backend.
var ErrNoAdmin = errors.New("catalog editor is not configured")

// Create validates draft, creates the product remotely and reloads the first
// browse page.
func (s *Store) Create(ctx context.Context, draft product.Draft) (Snapshot, error) {
	if s.admin == nil {
		return s.Snapshot(), ErrNoAdmin
	}

	d := draft.Normalize()
	if err := d.Validate(); err != nil {
		s.notify.Error(err.Error())
		return s.Snapshot(), err
	}

	if err := s.admin.Create(ctx, d); err != nil {
		s.lg.Warn("Create product failed", zap.String("title", d.Title), zap.Error(err))
		s.notify.Error("Failed to add product")
		return s.Snapshot(), errors.Wrap(err, "create product")
	}
	s.notify.Success("Product added successfully")

	return s.LoadPage(ctx, 1)
}

// Update sends the set fields of patch for product id and reloads the first
// browse page.
func (s *Store) Update(ctx context.Context, id string, patch product.Patch) (Snapshot, error) {
	if s.admin == nil {
		return s.Snapshot(), ErrNoAdmin
	}

	p := patch.Normalize()
	if err := p.Validate(); err != nil {
		s.notify.Error(err.Error())
		return s.Snapshot(), err
	}

	if err := s.admin.Update(ctx, id, p); err != nil {
		s.lg.Warn("Update product failed", zap.String("product_id", id), zap.Error(err))
		s.notify.Error("Failed to update product")
		return s.Snapshot(), errors.Wrapf(err, "update product %s", id)
	}
	s.notify.Success("Product updated successfully")

	return s.LoadPage(ctx, 1)
}

// Delete removes product id remotely, then drops it from the current page
// without refetching.
func (s *Store) Delete(ctx context.Context, id string) (Snapshot, error) {
	if s.admin == nil {
		return s.Snapshot(), ErrNoAdmin
	}

	if err := s.admin.Delete(ctx, id); err != nil {
		s.lg.Warn("Delete product failed", zap.String("product_id", id), zap.Error(err))
		s.notify.Error("Failed to delete product")
		return s.Snapshot(), errors.Wrapf(err, "delete product %s", id)
	}

	s.mu.Lock()
	kept := s.state.Products[:0:0]
	for _, p := range s.state.Products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) < len(s.state.Products) && s.state.Total > 0 {
		s.state.Total--
	}
	s.state.Products = kept
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify.Success("Product deleted successfully")
	return snap, nil
}
