package bridge

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPrice     = errors.New("price must be greater than zero")
	ErrUnsupportedAsset = errors.New("unsupported asset")
)

// conversionPrecision matches the 28 significant digits the valuation
// chain is specified to carry through the multiply/divide steps.
const conversionPrecision = 28

// Convert turns a deposited amount into REVO base units at the given
// USD prices: amount / 10^srcDecimals * srcPrice / destPrice, scaled
// to destDecimals and truncated toward zero. Truncation means the
// bridge can only ever under-mint by less than one base unit.
func Convert(amount *big.Int, srcDecimals int32, srcPriceUSD, destPriceUSD decimal.Decimal, destDecimals int32) (*big.Int, error) {
	if srcPriceUSD.Sign() <= 0 || destPriceUSD.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}

	tokens := decimal.NewFromBigInt(amount, -srcDecimals)
	usd := tokens.Mul(srcPriceUSD)
	revo := usd.DivRound(destPriceUSD, conversionPrecision)

	return revo.Shift(destDecimals).Truncate(0).BigInt(), nil
}
