package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestDiscounted(t *testing.T) {
	tests := []struct {
		name  string
		price decimal.Decimal
		pct   decimal.Decimal
		want  decimal.Decimal
	}{
		{name: "no discount", price: d("50"), pct: d("0"), want: d("50")},
		{name: "ten percent", price: d("100"), pct: d("10"), want: d("90")},
		{name: "fractional percent", price: d("199.99"), pct: d("12.5"), want: d("174.99125")},
		{name: "full discount", price: d("42"), pct: d("100"), want: d("0")},
		{name: "percent above range is clamped", price: d("42"), pct: d("150"), want: d("0")},
		{name: "negative percent is clamped", price: d("42"), pct: d("-5"), want: d("42")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Discounted(tt.price, tt.pct)
			assert.True(t, tt.want.Equal(got), "expected %s, got %s", tt.want, got)
		})
	}
}

func TestSavings(t *testing.T) {
	assert.True(t, d("10").Equal(Savings(d("100"), d("10"))))
	assert.True(t, d("25").Equal(Savings(d("199.99"), d("12.5"))))
	assert.True(t, decimal.Zero.Equal(Savings(d("10"), decimal.Zero)))
}

func TestLineTotal_NotRounded(t *testing.T) {
	got := LineTotal(d("10.005"), decimal.Zero, 3)
	assert.True(t, d("30.015").Equal(got), "got %s", got)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, "230.01", Round2(d("230.005")).StringFixed(2))
	assert.Equal(t, "230.00", Round2(d("230")).StringFixed(2))
	assert.Equal(t, "0.33", Round2(d("0.3333")).StringFixed(2))
}
