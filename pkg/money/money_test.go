package money_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja-pay/opsdash/pkg/money"
)

func TestMinorFactor(t *testing.T) {
	tests := []struct {
		name     string
		currency string
		want     int64
	}{
		{"blank defaults to cents", "", 100},
		{"CLP is zero-fraction", "CLP", 1},
		{"JPY is zero-fraction", "JPY", 1},
		{"USD has cents", "USD", 100},
		{"BHD has mils", "BHD", 1000},
		{"lowercase accepted", "clp", 1},
		{"non-ISO falls back to cents", "MIXED", 100},
		{"garbage falls back to cents", "??", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, money.MinorFactor(tt.currency))
		})
	}
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		currency string
		opts     []money.Options
		want     int64
	}{
		{"integral CLP stays verbatim", float64(150000), "CLP", nil, 150000},
		{"fractional USD scales to cents", 1234.56, "USD", nil, 123456},
		{"string amount parses", "99.95", "USD", nil, 9995},
		{"half cents round away from zero", 0.005, "USD", nil, 1},
		{"negative rounds away from zero", -0.005, "USD", nil, -1},
		{"nil reads as zero", nil, "USD", nil, 0},
		{"unparseable string reads as zero", "n/a", "USD", nil, 0},
		{"blank currency treated as CLP",
			float64(2500), "", nil, 2500},
		{"trusted values bypass scaling",
			1234.0, "USD", []money.Options{{TrustMinorUnits: true}}, 1234},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, money.ToMinorUnits(tt.value, tt.currency, tt.opts...))
		})
	}
}

func TestToMinorUnitsMajorCandidates(t *testing.T) {
	// The server reports amountMinor 1200 but also amount 1200 for a USD
	// payment: the value is actually major units repeated under two keys,
	// so the scaled candidate (120000) wins.
	got := money.ToMinorUnits(float64(1200), "USD", money.Options{
		MajorCandidates: []any{float64(1200)},
	})
	assert.Equal(t, int64(120000), got)

	// A candidate scaling below the primary value is ignored.
	got = money.ToMinorUnits(float64(120000), "USD", money.Options{
		MajorCandidates: []any{float64(1200)},
	})
	assert.Equal(t, int64(12000000), got)
}

func TestNumber(t *testing.T) {
	value, ok := money.Number("42.5")
	require.True(t, ok)
	assert.Equal(t, 42.5, value)

	_, ok = money.Number("not-a-number")
	assert.False(t, ok)

	_, ok = money.Number(nil)
	assert.False(t, ok)
}

func TestIsISOCurrency(t *testing.T) {
	assert.True(t, money.IsISOCurrency("CLP"))
	assert.True(t, money.IsISOCurrency("usd"))
	assert.False(t, money.IsISOCurrency("MIXED"))
	assert.False(t, money.IsISOCurrency(""))
}
