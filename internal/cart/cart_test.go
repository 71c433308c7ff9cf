package cart

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piyush31508/Flavor-Express/internal/domain/product"
)

func newTestProduct(id, price, discount string) product.Product {
	return product.Product{
		ID:                 id,
		Title:              "Dish " + id,
		Description:        "Tasty " + id,
		Thumbnail:          id + ".jpg",
		Price:              decimal.RequireFromString(price),
		DiscountPercentage: decimal.RequireFromString(discount),
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	w := decimal.RequireFromString(want)
	assert.True(t, w.Equal(got), "expected %s, got %s", w, got)
}

func TestAddItem_NewLine(t *testing.T) {
	c := New()
	p := newTestProduct("p1", "120", "25")

	line, err := c.AddItem(p, 2)
	require.NoError(t, err)

	assert.Equal(t, "p1", line.ProductID)
	assert.Equal(t, "Dish p1", line.Title)
	assert.Equal(t, "Tasty p1", line.Description)
	assert.Equal(t, "p1.jpg", line.Thumbnail)
	assert.Equal(t, 2, line.Quantity)
	assertDecimal(t, "90", line.UnitPrice())
	assertDecimal(t, "180", line.Total())
	assert.Equal(t, 1, c.ItemCount())
}

func TestAddItem_MergesExistingLine(t *testing.T) {
	c := New()
	p := newTestProduct("p1", "100", "0")

	_, err := c.AddItem(p, 2)
	require.NoError(t, err)
	line, err := c.AddItem(p, 3)
	require.NoError(t, err)

	assert.Equal(t, 5, line.Quantity)
	assert.Equal(t, 1, c.ItemCount())
	require.Len(t, c.Lines(), 1)
	assert.Equal(t, 5, c.Lines()[0].Quantity)
}

func TestAddItem_MergeOverflowRejected(t *testing.T) {
	c := New()
	p := newTestProduct("p1", "10", "0")

	_, err := c.AddItem(p, math.MaxInt)
	require.NoError(t, err)
	before := c.GrandTotal()

	_, err = c.AddItem(p, 2)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	require.Len(t, c.Lines(), 1)
	assert.Equal(t, math.MaxInt, c.Lines()[0].Quantity)
	assert.True(t, before.Equal(c.GrandTotal()))
	assert.True(t, c.GrandTotal().IsPositive())
}

func TestAddItem_KeepsFirstPriceSnapshot(t *testing.T) {
	c := New()

	_, err := c.AddItem(newTestProduct("p1", "100", "0"), 1)
	require.NoError(t, err)
	line, err := c.AddItem(newTestProduct("p1", "80", "0"), 1)
	require.NoError(t, err)

	assertDecimal(t, "100", line.Price)
	assertDecimal(t, "200", line.Total())
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
	}{
		{name: "zero", quantity: 0},
		{name: "negative", quantity: -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			_, err := c.AddItem(newTestProduct("p1", "10", "0"), 1)
			require.NoError(t, err)

			_, err = c.AddItem(newTestProduct("p1", "10", "0"), tt.quantity)
			require.ErrorIs(t, err, ErrInvalidQuantity)

			_, err = c.AddItem(newTestProduct("p2", "10", "0"), tt.quantity)
			require.ErrorIs(t, err, ErrInvalidQuantity)

			assert.Equal(t, 1, c.ItemCount())
			assert.Equal(t, 1, c.Lines()[0].Quantity)
		})
	}
}

func TestAddItem_PreservesInsertionOrder(t *testing.T) {
	c := New()
	for _, id := range []string{"c", "a", "b"} {
		_, err := c.AddItem(newTestProduct(id, "1", "0"), 1)
		require.NoError(t, err)
	}
	_, err := c.AddItem(newTestProduct("a", "1", "0"), 1)
	require.NoError(t, err)

	var ids []string
	for _, l := range c.Lines() {
		ids = append(ids, l.ProductID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestUpdateQuantity(t *testing.T) {
	c := New()
	_, err := c.AddItem(newTestProduct("p1", "10", "0"), 2)
	require.NoError(t, err)

	line, err := c.UpdateQuantity("p1", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, line.Quantity)
	assertDecimal(t, "70", c.GrandTotal())
}

func TestUpdateQuantity_RejectsNonPositive(t *testing.T) {
	c := New()
	_, err := c.AddItem(newTestProduct("p1", "10", "0"), 4)
	require.NoError(t, err)

	for _, q := range []int{0, -1} {
		_, err := c.UpdateQuantity("p1", q)
		require.ErrorIs(t, err, ErrInvalidQuantity)
	}

	line, ok := c.Line("p1")
	require.True(t, ok)
	assert.Equal(t, 4, line.Quantity)
}

func TestUpdateQuantity_UnknownProduct(t *testing.T) {
	c := New()

	_, err := c.UpdateQuantity("missing", 3)
	require.ErrorIs(t, err, ErrLineNotFound)
	assert.Equal(t, 0, c.ItemCount())
}

func TestRemoveItem(t *testing.T) {
	c := New()
	for _, id := range []string{"a", "b", "c"} {
		_, err := c.AddItem(newTestProduct(id, "1", "0"), 1)
		require.NoError(t, err)
	}

	c.RemoveItem("a")
	c.RemoveItem("absent")

	require.Len(t, c.Lines(), 2)
	_, err := c.UpdateQuantity("c", 9)
	require.NoError(t, err)
	line, ok := c.Line("c")
	require.True(t, ok)
	assert.Equal(t, 9, line.Quantity)
	_, ok = c.Line("a")
	assert.False(t, ok)
}

func TestRemoveThenAdd_StartsFreshLine(t *testing.T) {
	c := New()
	p := newTestProduct("p1", "10", "0")

	_, err := c.AddItem(p, 4)
	require.NoError(t, err)
	c.RemoveItem("p1")

	line, err := c.AddItem(p, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)
}

func TestClear(t *testing.T) {
	c := New()
	_, err := c.AddItem(newTestProduct("p1", "10", "0"), 1)
	require.NoError(t, err)

	c.Clear()

	assert.Equal(t, 0, c.ItemCount())
	assert.Empty(t, c.Lines())
	assertDecimal(t, "0", c.GrandTotal())

	_, err = c.AddItem(newTestProduct("p1", "10", "0"), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, c.ItemCount())
}

func TestGrandTotal(t *testing.T) {
	tests := []struct {
		name  string
		lines []struct {
			price, discount string
			qty             int
		}
		want string
	}{
		{
			name: "empty cart",
			want: "0",
		},
		{
			name: "mixed discounts",
			lines: []struct {
				price, discount string
				qty             int
			}{
				{"100", "10", 2},
				{"50", "0", 1},
			},
			want: "230.00",
		},
		{
			name: "rounds once after summing",
			lines: []struct {
				price, discount string
				qty             int
			}{
				{"0.01", "50", 1},
				{"0.01", "50", 1},
			},
			want: "0.01",
		},
		{
			name: "fractional discount",
			lines: []struct {
				price, discount string
				qty             int
			}{
				{"19.99", "12.5", 3},
			},
			want: "52.47",
		},
		{
			name: "full discount",
			lines: []struct {
				price, discount string
				qty             int
			}{
				{"80", "100", 2},
			},
			want: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			for i, l := range tt.lines {
				_, err := c.AddItem(newTestProduct(fmt.Sprintf("p%d", i), l.price, l.discount), l.qty)
				require.NoError(t, err)
			}
			assertDecimal(t, tt.want, c.GrandTotal())
		})
	}
}

func TestLineTotal_RoundsEachLine(t *testing.T) {
	c := New()
	line, err := c.AddItem(newTestProduct("p1", "0.01", "50"), 1)
	require.NoError(t, err)

	assertDecimal(t, "0.01", c.LineTotal(line))
}

func TestSnapshot(t *testing.T) {
	c := New()
	_, err := c.AddItem(newTestProduct("p1", "100", "10"), 2)
	require.NoError(t, err)
	_, err = c.AddItem(newTestProduct("p2", "50", "0"), 1)
	require.NoError(t, err)

	snap := c.Snapshot()
	require.Len(t, snap.Lines, 2)
	assertDecimal(t, "230", snap.GrandTotal)

	snap.Lines[0].Quantity = 99
	line, _ := c.Line("p1")
	assert.Equal(t, 2, line.Quantity)
}

func TestConcurrentAdds(t *testing.T) {
	c := New()
	p := newTestProduct("p1", "1", "0")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.AddItem(p, 1)
		}()
	}
	wg.Wait()

	line, ok := c.Line("p1")
	require.True(t, ok)
	assert.Equal(t, 50, line.Quantity)
	assertDecimal(t, "50", c.GrandTotal())
}
