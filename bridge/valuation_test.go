package bridge

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func bigFromString(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok)
	return v
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name      string
		amount    string
		srcPrice  string
		destPrice string
		want      string
	}{
		{
			// 1 CXS at $0.05 buys half a REVO at $0.10
			name:      "one token half value",
			amount:    "1000000000000000000",
			srcPrice:  "0.05",
			destPrice: "0.10",
			want:      "500000000000000000",
		},
		{
			name:      "equal prices identity",
			amount:    "123456789012345678",
			srcPrice:  "1",
			destPrice: "1",
			want:      "123456789012345678",
		},
		{
			name:      "truncates toward zero",
			amount:    "1",
			srcPrice:  "1",
			destPrice: "3",
			want:      "0",
		},
		{
			name:      "sub-cent source price",
			amount:    "1000000000000000000",
			srcPrice:  "0.000123",
			destPrice: "0.10",
			want:      "1230000000000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(bigFromString(t, tt.amount), 18, dec(t, tt.srcPrice), dec(t, tt.destPrice), 18)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestConvertInvalidPrice(t *testing.T) {
	amount := big.NewInt(1000)

	_, err := Convert(amount, 18, decimal.Zero, dec(t, "0.10"), 18)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = Convert(amount, 18, dec(t, "0.05"), decimal.Zero, 18)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = Convert(amount, 18, dec(t, "-1"), dec(t, "0.10"), 18)
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestConvertDeterministic(t *testing.T) {
	amount := bigFromString(t, "987654321987654321")
	first, err := Convert(amount, 18, dec(t, "0.0731"), dec(t, "0.119"), 18)
	require.NoError(t, err)
	second, err := Convert(amount, 18, dec(t, "0.0731"), dec(t, "0.119"), 18)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestConvertMonotonic(t *testing.T) {
	base := bigFromString(t, "5000000000000000000")

	// non-decreasing in amount
	small, err := Convert(base, 18, dec(t, "0.05"), dec(t, "0.10"), 18)
	require.NoError(t, err)
	larger, err := Convert(new(big.Int).Mul(base, big.NewInt(2)), 18, dec(t, "0.05"), dec(t, "0.10"), 18)
	require.NoError(t, err)
	assert.True(t, larger.Cmp(small) >= 0)

	// non-decreasing in source price
	cheap, err := Convert(base, 18, dec(t, "0.05"), dec(t, "0.10"), 18)
	require.NoError(t, err)
	pricey, err := Convert(base, 18, dec(t, "0.07"), dec(t, "0.10"), 18)
	require.NoError(t, err)
	assert.True(t, pricey.Cmp(cheap) >= 0)

	// non-increasing in destination price
	cheapDest, err := Convert(base, 18, dec(t, "0.05"), dec(t, "0.10"), 18)
	require.NoError(t, err)
	priceyDest, err := Convert(base, 18, dec(t, "0.05"), dec(t, "0.20"), 18)
	require.NoError(t, err)
	assert.True(t, priceyDest.Cmp(cheapDest) <= 0)
}
