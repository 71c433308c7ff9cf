package jsonx

import (
	"testing"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piyush31508/Flavor-Express/internal/domain/product"
)

func TestDecimal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "integer", input: `120`, want: "120"},
		{name: "fraction", input: `19.99`, want: "19.99"},
		{name: "numeric string", input: `"12.5"`, want: "12.5"},
		{name: "empty string", input: `""`, want: "0"},
		{name: "null", input: `null`, want: "0"},
		{name: "garbage string", input: `"abc"`, wantErr: true},
		{name: "object", input: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decimal(jx.DecodeStr(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestNullableScalars(t *testing.T) {
	s, err := String(jx.DecodeStr(`null`))
	require.NoError(t, err)
	assert.Empty(t, s)

	n, err := Int(jx.DecodeStr(`null`))
	require.NoError(t, err)
	assert.Zero(t, n)

	b, err := Bool(jx.DecodeStr(`true`))
	require.NoError(t, err)
	assert.True(t, b)

	ss, err := Strings(jx.DecodeStr(`["a", null, "b"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "", "b"}, ss)
}

func TestEncode(t *testing.T) {
	e := &jx.Encoder{}
	e.ArrStart()
	EncodeDecimal(e, decimal.RequireFromString("12.50"))
	EncodeMoney(e, decimal.RequireFromString("230"))
	EncodeStrings(e, nil)
	e.ArrEnd()

	assert.Equal(t, `[12.5,230.00,[]]`, e.String())
}

func TestDraftField(t *testing.T) {
	var d product.Draft
	err := jx.DecodeStr(`{
		"title": " Paneer Tikka ",
		"description": "Smoky cottage cheese",
		"price": "249.50",
		"discountPercentage": 10,
		"thumbnail": "paneer.jpg",
		"images": ["a.jpg", "b.jpg"],
		"category": "starters"
	}`).Obj(func(dec *jx.Decoder, key string) error {
		return DraftField(dec, key, &d)
	})
	require.NoError(t, err)

	assert.Equal(t, " Paneer Tikka ", d.Title)
	assert.Equal(t, "Smoky cottage cheese", d.Description)
	assert.True(t, d.Price.Equal(decimal.RequireFromString("249.50")))
	assert.True(t, d.DiscountPercentage.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "paneer.jpg", d.Thumbnail)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, d.Images)
}
