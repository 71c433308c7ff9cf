package catalog

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/piyush31508/Flavor-Express/internal/domain/product"
	"github.com/piyush31508/Flavor-Express/internal/notify"
)

// --- Mock implementations ---

type call struct {
	kind  string
	query string
	page  int
}

type mockCatalog struct {
	mu      sync.Mutex
	calls   []call
	total   int
	listErr error
	findErr error
}

func (m *mockCatalog) ListPage(_ context.Context, page int) (product.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call{kind: "list", page: page})
	if m.listErr != nil {
		return product.Page{}, m.listErr
	}
	return pageOf("dish", page, m.total), nil
}

func (m *mockCatalog) SearchPage(_ context.Context, query string, page int) (product.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call{kind: "search", query: query, page: page})
	if m.findErr != nil {
		return product.Page{}, m.findErr
	}
	return pageOf(query, page, m.total), nil
}

func (m *mockCatalog) recorded() []call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]call(nil), m.calls...)
}

// --- Helpers ---

func pageOf(prefix string, page, total int) product.Page {
	var items []product.Product
	first := (page - 1) * product.PageSize
	for i := first; i < total && i < first+product.PageSize; i++ {
		items = append(items, product.Product{
			ID:    fmt.Sprintf("%s-%d", prefix, i),
			Title: fmt.Sprintf("%s %d", prefix, i),
			Price: decimal.NewFromInt(100),
		})
	}
	return product.Page{Items: items, Total: total}
}

func newStore(backend product.Catalog) (*Store, *notify.Feed) {
	feed := notify.NewFeed(16)
	return New(backend, nil, feed, zap.NewNop()), feed
}

// --- Tests ---

func TestNew_StartsOnFirstBrowsePage(t *testing.T) {
	s, _ := newStore(&mockCatalog{})

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Page)
	assert.Equal(t, Browsing, snap.Mode())
	assert.Equal(t, 0, snap.TotalPages())
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Products)
}

func TestLoadPage(t *testing.T) {
	backend := &mockCatalog{total: 30}
	s, _ := newStore(backend)

	snap, err := s.LoadPage(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, 2, snap.Page)
	assert.Equal(t, 30, snap.Total)
	assert.Equal(t, 3, snap.TotalPages())
	assert.Len(t, snap.Products, 12)
	assert.Equal(t, "dish-12", snap.Products[0].ID)
	assert.Equal(t, Browsing, snap.Mode())
	assert.False(t, snap.Loading)
	assert.Equal(t, []call{{kind: "list", page: 2}}, backend.recorded())
}

func TestLoadPage_InvalidPage(t *testing.T) {
	backend := &mockCatalog{total: 30}
	s, _ := newStore(backend)

	_, err := s.LoadPage(context.Background(), 0)
	require.ErrorIs(t, err, ErrInvalidPage)
	assert.Empty(t, backend.recorded())
}

func TestLoadPage_FailureKeepsPriorState(t *testing.T) {
	backend := &mockCatalog{total: 30}
	s, feed := newStore(backend)

	_, err := s.LoadPage(context.Background(), 1)
	require.NoError(t, err)

	backend.listErr = errors.New("connection refused")
	snap, err := s.LoadPage(context.Background(), 2)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "list page 2")
	assert.Equal(t, 1, snap.Page)
	assert.Equal(t, "dish-0", snap.Products[0].ID)
	assert.False(t, snap.Loading)

	notices := feed.Drain()
	require.Len(t, notices, 1)
	assert.Equal(t, notify.LevelError, notices[0].Level)
	assert.Equal(t, "Failed to fetch products", notices[0].Message)
}

func TestSearch_TrimsQuery(t *testing.T) {
	backend := &mockCatalog{total: 5}
	s, _ := newStore(backend)

	snap, err := s.Search(context.Background(), "  biryani \t", 1)
	require.NoError(t, err)

	assert.Equal(t, "biryani", snap.Query)
	assert.Equal(t, Searching, snap.Mode())
	assert.Equal(t, []call{{kind: "search", query: "biryani", page: 1}}, backend.recorded())
}

func TestSearch_BlankQueryBehavesAsLoadPage(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		t.Run(fmt.Sprintf("%q", q), func(t *testing.T) {
			searched := &mockCatalog{total: 30}
			s1, _ := newStore(searched)
			_, err := s1.Search(context.Background(), "pizza", 1)
			require.NoError(t, err)
			got, err := s1.Search(context.Background(), q, 2)
			require.NoError(t, err)

			loaded := &mockCatalog{total: 30}
			s2, _ := newStore(loaded)
			_, err = s2.Search(context.Background(), "pizza", 1)
			require.NoError(t, err)
			want, err := s2.LoadPage(context.Background(), 2)
			require.NoError(t, err)

			assert.Equal(t, want, got)
			assert.Equal(t, loaded.recorded(), searched.recorded())
			assert.Equal(t, Browsing, got.Mode())
		})
	}
}

func TestSearch_Failure(t *testing.T) {
	backend := &mockCatalog{total: 30, findErr: errors.New("timeout")}
	s, feed := newStore(backend)

	_, err := s.LoadPage(context.Background(), 1)
	require.NoError(t, err)

	snap, err := s.Search(context.Background(), "naan", 1)
	require.Error(t, err)
	assert.Equal(t, Browsing, snap.Mode())
	assert.Equal(t, "Failed to search products", feed.Drain()[0].Message)
}

func TestPaginate_BrowseMode(t *testing.T) {
	backend := &mockCatalog{total: 30}
	s, _ := newStore(backend)

	_, err := s.LoadPage(context.Background(), 1)
	require.NoError(t, err)

	snap, err := s.Paginate(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Page)
	assert.Len(t, snap.Products, 6)
	assert.Equal(t, call{kind: "list", page: 3}, backend.recorded()[1])
}

func TestPaginate_SearchModeReissuesSearch(t *testing.T) {
	backend := &mockCatalog{total: 30}
	s, _ := newStore(backend)

	_, err := s.Search(context.Background(), "curry", 1)
	require.NoError(t, err)

	snap, err := s.Paginate(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, "curry", snap.Query)
	assert.Equal(t, 2, snap.Page)
	assert.Equal(t, call{kind: "search", query: "curry", page: 2}, backend.recorded()[1])
}

func TestPaginate_OutOfRangeIsNoop(t *testing.T) {
	backend := &mockCatalog{total: 30}
	s, feed := newStore(backend)

	before, err := s.LoadPage(context.Background(), 2)
	require.NoError(t, err)

	for _, page := range []int{0, -1, before.TotalPages() + 1} {
		snap, err := s.Paginate(context.Background(), page)
		require.NoError(t, err)
		assert.Equal(t, before, snap, "page %d", page)
	}

	assert.Len(t, backend.recorded(), 1)
	assert.Empty(t, feed.Drain())
}

func TestPaginate_EmptyCatalogHasNoPages(t *testing.T) {
	backend := &mockCatalog{total: 0}
	s, _ := newStore(backend)

	_, err := s.LoadPage(context.Background(), 1)
	require.NoError(t, err)

	snap, err := s.Paginate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.TotalPages())
	assert.Len(t, backend.recorded(), 1)
}

func TestPaginate_Failure(t *testing.T) {
	backend := &mockCatalog{total: 30}
	s, feed := newStore(backend)

	_, err := s.LoadPage(context.Background(), 1)
	require.NoError(t, err)

	backend.listErr = errors.New("502")
	snap, err := s.Paginate(context.Background(), 2)
	require.Error(t, err)
	assert.Equal(t, 1, snap.Page)
	assert.Equal(t, "Failed to load paginated products", feed.Drain()[0].Message)
}

func TestModeTransitions(t *testing.T) {
	backend := &mockCatalog{total: 30}
	s, _ := newStore(backend)
	ctx := context.Background()

	snap, err := s.LoadPage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Browsing, snap.Mode())

	snap, err = s.Search(ctx, "tandoori", 1)
	require.NoError(t, err)
	assert.Equal(t, Searching, snap.Mode())

	snap, err = s.Search(ctx, "", 1)
	require.NoError(t, err)
	assert.Equal(t, Browsing, snap.Mode())

	_, err = s.Search(ctx, "tandoori", 1)
	require.NoError(t, err)
	snap, err = s.LoadPage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Browsing, snap.Mode())
	assert.Empty(t, snap.Query)
}

func TestSnapshot_IsACopy(t *testing.T) {
	s, _ := newStore(&mockCatalog{total: 3})

	snap, err := s.LoadPage(context.Background(), 1)
	require.NoError(t, err)
	snap.Products[0].Title = "mutated"

	assert.NotEqual(t, "mutated", s.Snapshot().Products[0].Title)
}

func TestSnapshot_Navigation(t *testing.T) {
	snap := Snapshot{Total: 25, Page: 1}
	assert.False(t, snap.HasPrev())
	assert.True(t, snap.HasNext())

	snap.Page = 3
	assert.True(t, snap.HasPrev())
	assert.False(t, snap.HasNext())

	snap.Products = []product.Product{{ID: "a"}}
	_, ok := snap.Product("a")
	assert.True(t, ok)
	_, ok = snap.Product("b")
	assert.False(t, ok)
}

// --- Overlapping fetches ---

type result struct {
	page product.Page
	err  error
}

type pending struct {
	call    call
	release chan result
}

// gatedCatalog parks every call until the test releases it.
type gatedCatalog struct {
	started chan *pending
}

func newGatedCatalog() *gatedCatalog {
	return &gatedCatalog{started: make(chan *pending)}
}

func (g *gatedCatalog) park(c call) (product.Page, error) {
	p := &pending{call: c, release: make(chan result, 1)}
	g.started <- p
	r := <-p.release
	return r.page, r.err
}

func (g *gatedCatalog) ListPage(_ context.Context, page int) (product.Page, error) {
	return g.park(call{kind: "list", page: page})
}

func (g *gatedCatalog) SearchPage(_ context.Context, query string, page int) (product.Page, error) {
	return g.park(call{kind: "search", query: query, page: page})
}

type outcome struct {
	snap Snapshot
	err  error
}

func start(f func() (Snapshot, error)) <-chan outcome {
	ch := make(chan outcome, 1)
	go func() {
		snap, err := f()
		ch <- outcome{snap: snap, err: err}
	}()
	return ch
}

func waitOutcome(t *testing.T, ch <-chan outcome) outcome {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("fetch did not settle")
		return outcome{}
	}
}

func TestOverlappingFetches_LatestSettlesFirst(t *testing.T) {
	g := newGatedCatalog()
	s, _ := newStore(g)
	ctx := context.Background()

	first := start(func() (Snapshot, error) { return s.LoadPage(ctx, 1) })
	p1 := <-g.started
	assert.True(t, s.Snapshot().Loading)

	second := start(func() (Snapshot, error) { return s.LoadPage(ctx, 2) })
	p2 := <-g.started

	p2.release <- result{page: pageOf("dish", 2, 30)}
	o2 := waitOutcome(t, second)
	require.NoError(t, o2.err)
	assert.Equal(t, 2, o2.snap.Page)
	assert.False(t, o2.snap.Loading)

	p1.release <- result{page: pageOf("dish", 1, 30)}
	o1 := waitOutcome(t, first)
	require.ErrorIs(t, o1.err, ErrSuperseded)

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.Page)
	assert.Equal(t, "dish-12", snap.Products[0].ID)
	assert.False(t, snap.Loading)
}

func TestOverlappingFetches_StaleSettlesFirst(t *testing.T) {
	g := newGatedCatalog()
	s, _ := newStore(g)
	ctx := context.Background()

	first := start(func() (Snapshot, error) { return s.LoadPage(ctx, 1) })
	p1 := <-g.started
	second := start(func() (Snapshot, error) { return s.Search(ctx, "dal", 1) })
	p2 := <-g.started

	p1.release <- result{page: pageOf("dish", 1, 30)}
	o1 := waitOutcome(t, first)
	require.ErrorIs(t, o1.err, ErrSuperseded)
	assert.True(t, o1.snap.Loading, "newer fetch still in flight")
	assert.Empty(t, s.Snapshot().Products)

	p2.release <- result{page: pageOf("dal", 1, 4)}
	o2 := waitOutcome(t, second)
	require.NoError(t, o2.err)
	assert.Equal(t, "dal", o2.snap.Query)
	assert.Len(t, o2.snap.Products, 4)
	assert.False(t, o2.snap.Loading)
}

func TestOverlappingFetches_StaleFailureIsSilent(t *testing.T) {
	g := newGatedCatalog()
	s, feed := newStore(g)
	ctx := context.Background()

	first := start(func() (Snapshot, error) { return s.LoadPage(ctx, 1) })
	p1 := <-g.started
	second := start(func() (Snapshot, error) { return s.LoadPage(ctx, 1) })
	p2 := <-g.started

	p1.release <- result{err: errors.New("reset by peer")}
	o1 := waitOutcome(t, first)
	require.ErrorIs(t, o1.err, ErrSuperseded)
	assert.True(t, s.Snapshot().Loading)
	assert.Empty(t, feed.Drain())

	p2.release <- result{err: errors.New("reset by peer")}
	o2 := waitOutcome(t, second)
	require.Error(t, o2.err)
	assert.NotErrorIs(t, o2.err, ErrSuperseded)
	assert.False(t, s.Snapshot().Loading)
	assert.Len(t, feed.Drain(), 1)
}
