// Package catalog keeps the storefront's view of the remote product catalog:
// the current page of products, the total count, the active search query and
// whether a fetch is in flight.
//
// Two modes exist. Browsing lists every product page by page; searching pages
// through the results of a trimmed, non-empty query. Paginate picks the right
// backend call from the active mode so callers never have to.
//
// Overlapping fetches are fenced by a monotonic sequence number: only the most
// recently issued fetch may replace the page or clear the loading flag. Any
// older response that settles afterwards is dropped and its caller receives
// ErrSuperseded.
package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/piyush31508/Flavor-Express/internal/domain/product"
	"github.com/piyush31508/Flavor-Express/internal/notify"
)

var (
	// ErrInvalidPage is returned when a fetch is requested for a page below 1.
	ErrInvalidPage = errors.New("page must be at least 1")
	// ErrSuperseded is returned to a fetch whose response arrived after a
	// newer fetch had been issued. The response is discarded.
	ErrSuperseded = errors.New("catalog response superseded by a newer request")
)

const (
	msgFetchFailed    = "Failed to fetch products"
	msgSearchFailed   = "Failed to search products"
	msgPaginateFailed = "Failed to load paginated products"
)

// Mode tells whether the catalog is browsing or searching.
type Mode int

const (
	Browsing Mode = iota
	Searching
)

func (m Mode) String() string {
	if m == Searching {
		return "searching"
	}
	return "browsing"
}

// Snapshot is an immutable copy of the catalog state.
type Snapshot struct {
	Products []product.Product
	Total    int
	Page     int
	Query    string
	Loading  bool
}

// Mode derives the catalog mode from the active query.
func (s Snapshot) Mode() Mode {
	if s.Query != "" {
		return Searching
	}
	return Browsing
}

// TotalPages returns ceil(Total / product.PageSize).
func (s Snapshot) TotalPages() int {
	return product.TotalPages(s.Total)
}

// HasPrev reports whether a previous page exists.
func (s Snapshot) HasPrev() bool {
	return s.Page > 1
}

// HasNext reports whether a next page exists.
func (s Snapshot) HasNext() bool {
	return s.Page < s.TotalPages()
}

// Product looks up a product on the current page.
func (s Snapshot) Product(id string) (product.Product, bool) {
	for _, p := range s.Products {
		if p.ID == id {
			return p, true
		}
	}
	return product.Product{}, false
}

// Store owns the catalog state. It is safe for concurrent use.
type Store struct {
	backend product.Catalog
	admin   product.Admin
	notify  notify.Notifier
	lg      *zap.Logger

	mu      sync.Mutex
	state   Snapshot
	loading bool
	seq     uint64
}

// New creates a Store starting on browse page 1 with no products.
// admin may be nil when the catalog editor is not used.
func New(backend product.Catalog, admin product.Admin, n notify.Notifier, lg *zap.Logger) *Store {
	return &Store{
		backend: backend,
		admin:   admin,
		notify:  n,
		lg:      lg,
		state:   Snapshot{Page: 1},
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := s.state
	snap.Products = append([]product.Product(nil), s.state.Products...)
	snap.Loading = s.loading
	return snap
}

// LoadPage fetches page in browse mode, clearing any active search.
func (s *Store) LoadPage(ctx context.Context, page int) (Snapshot, error) {
	return s.browse(ctx, page, msgFetchFailed)
}

// Search fetches page of the results for query. A query that is empty after
// trimming behaves exactly like LoadPage.
func (s *Store) Search(ctx context.Context, query string, page int) (Snapshot, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return s.browse(ctx, page, msgFetchFailed)
	}
	return s.search(ctx, trimmed, page, msgSearchFailed)
}

// Paginate moves to page in whichever mode is active. A page outside
// [1, TotalPages] is ignored: nothing is fetched and the current snapshot is
// returned unchanged.
func (s *Store) Paginate(ctx context.Context, page int) (Snapshot, error) {
	snap := s.Snapshot()
	if page < 1 || page > snap.TotalPages() {
		s.lg.Debug("Ignoring out of range page",
			zap.Int("page", page),
			zap.Int("total_pages", snap.TotalPages()),
		)
		return snap, nil
	}
	if snap.Query != "" {
		return s.search(ctx, snap.Query, page, msgPaginateFailed)
	}
	return s.browse(ctx, page, msgPaginateFailed)
}

func (s *Store) browse(ctx context.Context, page int, failMsg string) (Snapshot, error) {
	if page < 1 {
		return s.Snapshot(), ErrInvalidPage
	}
	return s.fetch(ctx, "", page, failMsg, func(ctx context.Context) (product.Page, error) {
		return s.backend.ListPage(ctx, page)
	})
}

func (s *Store) search(ctx context.Context, query string, page int, failMsg string) (Snapshot, error) {
	if page < 1 {
		return s.Snapshot(), ErrInvalidPage
	}
	return s.fetch(ctx, query, page, failMsg, func(ctx context.Context) (product.Page, error) {
		return s.backend.SearchPage(ctx, query, page)
	})
}

// fetch raises the loading flag, runs call and applies its result if no newer
// fetch was issued in the meantime.
func (s *Store) fetch(
	ctx context.Context,
	query string,
	page int,
	failMsg string,
	call func(ctx context.Context) (product.Page, error),
) (Snapshot, error) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.loading = true
	s.mu.Unlock()

	res, err := call(ctx)

	s.mu.Lock()
	if seq != s.seq {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.lg.Debug("Discarding superseded catalog response",
			zap.Uint64("seq", seq),
			zap.String("query", query),
			zap.Int("page", page),
			zap.Error(err),
		)
		return snap, ErrSuperseded
	}
	s.loading = false
	if err != nil {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.lg.Warn("Catalog fetch failed",
			zap.String("query", query),
			zap.Int("page", page),
			zap.Error(err),
		)
		s.notify.Error(failMsg)
		if query != "" {
			return snap, errors.Wrapf(err, "search %q page %d", query, page)
		}
		return snap, errors.Wrapf(err, "list page %d", page)
	}
	s.state = Snapshot{
		Products: append([]product.Product(nil), res.Items...),
		Total:    res.Total,
		Page:     page,
		Query:    query,
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	return snap, nil
}
