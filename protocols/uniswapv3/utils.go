package uniswapv3

import (
	"fmt"
	"math"
	"math/big"

	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/fullmath"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/tickmath"
)

// Standard fee tiers in pips.
const (
	FeeLowest uint32 = 100
	FeeLow    uint32 = 500
	FeeMedium uint32 = 3000
	FeeHigh   uint32 = 10000
)

// TickSpacings maps the standard fee tiers to their tick spacing.
var TickSpacings = map[uint32]int{
	FeeLowest: 1,
	FeeLow:    10,
	FeeMedium: 60,
	FeeHigh:   200,
}

// NearestUsableTick rounds tick to the closest multiple of tickSpacing that lies within the tick range.
func NearestUsableTick(tick, tickSpacing int) (int, error) {
	if tickSpacing <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrTickSpacing, tickSpacing)
	}
	if tick < tickmath.MIN_TICK || tick > tickmath.MAX_TICK {
		return 0, fmt.Errorf("%w: %d", tickmath.ErrTickOutOfBounds, tick)
	}

	// halves round up, toward positive infinity
	rounded := int(math.Floor(float64(tick)/float64(tickSpacing)+0.5)) * tickSpacing
	if rounded < tickmath.MIN_TICK {
		return rounded + tickSpacing, nil
	}
	if rounded > tickmath.MAX_TICK {
		return rounded - tickSpacing, nil
	}
	return rounded, nil
}

// EncodeSqrtRatioX96 returns sqrt(amount1/amount0) as a Q64.96 number.
func EncodeSqrtRatioX96(amount1, amount0 *big.Int) (*big.Int, error) {
	if amount0.Sign() == 0 {
		return nil, ErrZeroDenominator
	}
	ratioX192 := new(big.Int).Lsh(amount1, 192)
	ratioX192.Quo(ratioX192, amount0)
	return fullmath.Sqrt(ratioX192)
}

// TickToPrice returns the price of base in terms of quote at the given tick.
func TickToPrice(base, quote *Token, tick int) (*Price, error) {
	sqrtRatioX96, err := tickmath.GetSqrtRatioAtTick(tick)
	if err != nil {
		return nil, err
	}
	ratioX192 := new(big.Int).Mul(sqrtRatioX96, sqrtRatioX96)

	sorted, err := base.SortsBefore(quote)
	if err != nil {
		return nil, err
	}
	if sorted {
		return NewPrice(base, quote, fullmath.Q192, ratioX192), nil
	}
	return NewPrice(base, quote, ratioX192, fullmath.Q192), nil
}

// PriceToClosestTick returns the first tick whose price is at or below the given price.
func PriceToClosestTick(price *Price) (int, error) {
	sorted, err := price.BaseCurrency.SortsBefore(price.QuoteCurrency)
	if err != nil {
		return 0, err
	}

	var sqrtRatioX96 *big.Int
	if sorted {
		sqrtRatioX96, err = EncodeSqrtRatioX96(price.Numerator, price.Denominator)
	} else {
		sqrtRatioX96, err = EncodeSqrtRatioX96(price.Denominator, price.Numerator)
	}
	if err != nil {
		return 0, err
	}

	tick, err := tickmath.GetTickAtSqrtRatio(sqrtRatioX96)
	if err != nil {
		return 0, err
	}
	nextTickPrice, err := TickToPrice(price.BaseCurrency, price.QuoteCurrency, tick+1)
	if err != nil {
		return 0, err
	}

	if sorted {
		if !price.LessThan(nextTickPrice.Fraction) {
			tick++
		}
	} else if !price.GreaterThan(nextTickPrice.Fraction) {
		tick++
	}
	return tick, nil
}
