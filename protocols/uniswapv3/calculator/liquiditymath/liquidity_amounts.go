package liquiditymath

import (
	"math/big"

	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/fullmath"
)

// maxLiquidityForAmount0Imprecise returns amount0 * (A*B/Q96) / (B-A). The intermediate
// product is truncated to Q96 first, which is what the periphery contract computes.
func maxLiquidityForAmount0Imprecise(sqrtRatioAX96, sqrtRatioBX96, amount0 *big.Int) *big.Int {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	intermediate := fullmath.MulDiv(sqrtRatioAX96, sqrtRatioBX96, fullmath.Q96)
	return fullmath.MulDiv(amount0, intermediate, new(big.Int).Sub(sqrtRatioBX96, sqrtRatioAX96))
}

// maxLiquidityForAmount0Precise returns amount0*A*B / (Q96*(B-A)) without intermediate truncation.
func maxLiquidityForAmount0Precise(sqrtRatioAX96, sqrtRatioBX96, amount0 *big.Int) *big.Int {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	numerator := new(big.Int).Mul(amount0, sqrtRatioAX96)
	numerator.Mul(numerator, sqrtRatioBX96)
	denominator := new(big.Int).Sub(sqrtRatioBX96, sqrtRatioAX96)
	denominator.Mul(denominator, fullmath.Q96)
	return numerator.Quo(numerator, denominator)
}

func maxLiquidityForAmount1(sqrtRatioAX96, sqrtRatioBX96, amount1 *big.Int) *big.Int {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	return fullmath.MulDiv(amount1, fullmath.Q96, new(big.Int).Sub(sqrtRatioBX96, sqrtRatioAX96))
}

// MaxLiquidityForAmounts computes the maximum liquidity received for the given amounts of
// token0 and token1, the current pool price and the prices at the range boundaries.
// useFullPrecision selects the exact amount0 formula instead of the truncated one.
func MaxLiquidityForAmounts(
	sqrtRatioCurrentX96, sqrtRatioAX96, sqrtRatioBX96, amount0, amount1 *big.Int,
	useFullPrecision bool,
) *big.Int {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}

	forAmount0 := maxLiquidityForAmount0Imprecise
	if useFullPrecision {
		forAmount0 = maxLiquidityForAmount0Precise
	}

	switch {
	case sqrtRatioCurrentX96.Cmp(sqrtRatioAX96) <= 0:
		return forAmount0(sqrtRatioAX96, sqrtRatioBX96, amount0)
	case sqrtRatioCurrentX96.Cmp(sqrtRatioBX96) < 0:
		liquidity0 := forAmount0(sqrtRatioCurrentX96, sqrtRatioBX96, amount0)
		liquidity1 := maxLiquidityForAmount1(sqrtRatioAX96, sqrtRatioCurrentX96, amount1)
		if liquidity0.Cmp(liquidity1) < 0 {
			return liquidity0
		}
		return liquidity1
	default:
		return maxLiquidityForAmount1(sqrtRatioAX96, sqrtRatioBX96, amount1)
	}
}
