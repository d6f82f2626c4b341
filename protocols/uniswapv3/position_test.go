package uniswapv3

import (
	"math/big"
	"testing"

	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/fullmath"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/tickmath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const daiUSDCTickSpacing = 10

// daiUSDCPool is an empty DAI/USDC 0.05% pool at 1 DAI = 1 USDC.
func daiUSDCPool(t *testing.T) (*Pool, int) {
	t.Helper()
	sqrtRatioX96, err := EncodeSqrtRatioX96(big.NewInt(100e6), mustBig(t, "100000000000000000000"))
	require.NoError(t, err)
	tick, err := tickmath.GetTickAtSqrtRatio(sqrtRatioX96)
	require.NoError(t, err)
	require.Equal(t, -276325, tick)

	pool, err := NewPool(dai, usdc, FeeLow, sqrtRatioX96, big.NewInt(0), tick, nil)
	require.NoError(t, err)

	nearest, err := NearestUsableTick(tick, daiUSDCTickSpacing)
	require.NoError(t, err)
	return pool, nearest
}

func TestNewPosition(t *testing.T) {
	pool, _ := daiUSDCPool(t)
	one := big.NewInt(1)

	_, err := NewPosition(pool, one, -10, 10)
	assert.NoError(t, err)

	testCases := []struct {
		name                 string
		tickLower, tickUpper int
		err                  error
	}{
		{"lower equal to upper", 10, 10, ErrTickOrder},
		{"lower above upper", 10, -10, ErrTickOrder},
		{"lower off spacing", -5, 10, ErrTickLower},
		{"upper off spacing", -10, 15, ErrTickUpper},
		{"lower below the minimum tick", tickmath.MIN_TICK - 8, 10, ErrTickLower},
		{"upper above the maximum tick", -10, tickmath.MAX_TICK + 8, ErrTickUpper},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPosition(pool, one, tc.tickLower, tc.tickUpper)
			assert.ErrorIs(t, err, tc.err)
		})
	}

	t.Run("negative liquidity", func(t *testing.T) {
		_, err := NewPosition(pool, big.NewInt(-1), -10, 10)
		assert.ErrorIs(t, err, ErrNegativeLiquidity)
	})
}

func TestPosition_Amounts(t *testing.T) {
	pool, nearest := daiUSDCPool(t)
	sp := daiUSDCTickSpacing

	testCases := []struct {
		name                 string
		liquidity            string
		tickLower, tickUpper int
		amount0, amount1     string
	}{
		{"range above the price holds only token0", "100000000000000", nearest + sp, nearest + 2*sp, "49949961958869841", "0"},
		{"range below the price holds only token1", "100000000000000000000", nearest - 2*sp, nearest - sp, "0", "49970077052"},
		{"range around the price holds both", "100000000000000000000", nearest - 2*sp, nearest + 2*sp, "120054069145287995769396", "79831926242"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			position, err := NewPosition(pool, mustBig(t, tc.liquidity), tc.tickLower, tc.tickUpper)
			require.NoError(t, err)

			amount0, err := position.Amount0()
			require.NoError(t, err)
			amount1, err := position.Amount1()
			require.NoError(t, err)

			assert.Equal(t, tc.amount0, amount0.Quotient().String())
			assert.Equal(t, tc.amount1, amount1.Quotient().String())
			assert.True(t, amount0.Currency.Equal(dai))
			assert.True(t, amount1.Currency.Equal(usdc))

			// cached on first access
			again, err := position.Amount0()
			require.NoError(t, err)
			assert.Same(t, amount0, again)
		})
	}
}

func TestPosition_MintAmounts(t *testing.T) {
	pool, nearest := daiUSDCPool(t)
	sp := daiUSDCTickSpacing
	liquidity := mustBig(t, "100000000000000000000")

	testCases := []struct {
		name                 string
		tickLower, tickUpper int
		amount0, amount1     string
	}{
		{"range above the price", nearest + sp, nearest + 2*sp, "49949961958869841754182", "0"},
		{"range below the price", nearest - 2*sp, nearest - sp, "0", "49970077053"},
		{"range around the price", nearest - 2*sp, nearest + 2*sp, "120054069145287995769397", "79831926243"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			position, err := NewPosition(pool, liquidity, tc.tickLower, tc.tickUpper)
			require.NoError(t, err)

			mint, err := position.MintAmounts()
			require.NoError(t, err)
			assert.Equal(t, tc.amount0, mint.Amount0.String())
			assert.Equal(t, tc.amount1, mint.Amount1.String())
		})
	}
}

func TestPosition_Slippage(t *testing.T) {
	pool, nearest := daiUSDCPool(t)
	sp := daiUSDCTickSpacing
	liquidity := mustBig(t, "100000000000000000000")
	tolerance := NewPercent(big.NewInt(5), big.NewInt(10_000))
	zero := NewPercent(big.NewInt(0), big.NewInt(1))

	testCases := []struct {
		name                 string
		tickLower, tickUpper int
		tolerance            *Percent
		mint0, mint1         string
		burn0, burn1         string
	}{
		{"range above the price", nearest + sp, nearest + 2*sp, tolerance,
			"49949961958869841738198", "0", "49949961958869841754181", "0"},
		{"range below the price", nearest - 2*sp, nearest - sp, tolerance,
			"0", "49970077053", "0", "49970077052"},
		{"range around the price", nearest - 2*sp, nearest + 2*sp, tolerance,
			"95063440240746211432007", "54828800461", "95063440240746211454822", "54828800460"},
		{"range around the price without slippage", nearest - 2*sp, nearest + 2*sp, zero,
			"120054069145287995740584", "79831926243", "120054069145287995769396", "79831926242"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			position, err := NewPosition(pool, liquidity, tc.tickLower, tc.tickUpper)
			require.NoError(t, err)

			mint, err := position.MintAmountsWithSlippage(tc.tolerance)
			require.NoError(t, err)
			assert.Equal(t, tc.mint0, mint.Amount0.String())
			assert.Equal(t, tc.mint1, mint.Amount1.String())

			burn0, burn1, err := position.BurnAmountsWithSlippage(tc.tolerance)
			require.NoError(t, err)
			assert.Equal(t, tc.burn0, burn0.String())
			assert.Equal(t, tc.burn1, burn1.String())
		})
	}

	t.Run("ratios", func(t *testing.T) {
		position, err := NewPosition(pool, liquidity, nearest-2*sp, nearest+2*sp)
		require.NoError(t, err)

		lower, upper, err := position.RatiosAfterSlippage(tolerance)
		require.NoError(t, err)
		assert.Equal(t, "79208352997136529422884", lower.String())
		assert.Equal(t, "79247967079631601766366", upper.String())
	})

	t.Run("ratios clamp to the price bounds", func(t *testing.T) {
		position, err := NewPosition(pool, liquidity, nearest-2*sp, nearest+2*sp)
		require.NoError(t, err)

		lower, _, err := position.RatiosAfterSlippage(NewPercent(big.NewInt(1), big.NewInt(1)))
		require.NoError(t, err)
		assert.Equal(t, new(big.Int).Add(tickmath.MIN_SQRT_RATIO, big.NewInt(1)), lower)

		_, upper, err := position.RatiosAfterSlippage(NewPercent(new(big.Int).Exp(big.NewInt(10), big.NewInt(60), nil), big.NewInt(1)))
		require.NoError(t, err)
		assert.Equal(t, new(big.Int).Sub(tickmath.MAX_SQRT_RATIO, big.NewInt(1)), upper)
	})

	t.Run("negative tolerance", func(t *testing.T) {
		position, err := NewPosition(pool, liquidity, nearest-2*sp, nearest+2*sp)
		require.NoError(t, err)
		_, err = position.MintAmountsWithSlippage(NewPercent(big.NewInt(-1), big.NewInt(100)))
		assert.ErrorIs(t, err, ErrSlippage)
	})
}

func TestPosition_FromAmounts(t *testing.T) {
	pool, nearest := daiUSDCPool(t)
	lower, upper := nearest-2*daiUSDCTickSpacing, nearest+2*daiUSDCTickSpacing
	amount0 := mustBig(t, "100000000000000000000")
	amount1 := big.NewInt(100e6)

	for _, full := range []bool{false, true} {
		position, err := FromAmounts(pool, lower, upper, amount0, amount1, full)
		require.NoError(t, err)
		assert.Equal(t, "83295802226396173", position.Liquidity.String())
	}

	position, err := FromAmount0(pool, lower, upper, amount0, false)
	require.NoError(t, err)
	assert.Equal(t, "83295802226396173", position.Liquidity.String())

	position, err = FromAmount1(pool, lower, upper, amount1)
	require.NoError(t, err)
	assert.Equal(t, "125263168142396725", position.Liquidity.String())

	// minting the derived liquidity never needs more than was offered
	position, err = FromAmounts(pool, lower, upper, amount0, amount1, true)
	require.NoError(t, err)
	mint, err := position.MintAmounts()
	require.NoError(t, err)
	assert.LessOrEqual(t, mint.Amount0.Cmp(amount0), 0)
	assert.LessOrEqual(t, mint.Amount1.Cmp(amount1), 0)
}

func TestPosition_OutOfRange(t *testing.T) {
	pool, nearest := daiUSDCPool(t)

	for i := 1; i <= 50; i++ {
		liquidity := new(big.Int).Lsh(big.NewInt(int64(i)), 60)

		below, err := NewPosition(pool, liquidity, nearest+i*daiUSDCTickSpacing, nearest+(i+3)*daiUSDCTickSpacing)
		require.NoError(t, err)
		a0, err := below.Amount0()
		require.NoError(t, err)
		a1, err := below.Amount1()
		require.NoError(t, err)
		assert.Positive(t, a0.Quotient().Sign())
		assert.Zero(t, a1.Quotient().Sign())

		above, err := NewPosition(pool, liquidity, nearest-(i+3)*daiUSDCTickSpacing, nearest-i*daiUSDCTickSpacing)
		require.NoError(t, err)
		a0, err = above.Amount0()
		require.NoError(t, err)
		a1, err = above.Amount1()
		require.NoError(t, err)
		assert.Zero(t, a0.Quotient().Sign())
		assert.Positive(t, a1.Quotient().Sign())
	}
}

func TestPosition_TokenPrices(t *testing.T) {
	pool, nearest := daiUSDCPool(t)
	position, err := NewPosition(pool, fullmath.Q96, nearest-daiUSDCTickSpacing, nearest+daiUSDCTickSpacing)
	require.NoError(t, err)

	lower, err := position.TokenPriceLower()
	require.NoError(t, err)
	upper, err := position.TokenPriceUpper()
	require.NoError(t, err)

	assert.True(t, lower.BaseCurrency.Equal(dai))
	assert.True(t, lower.LessThan(pool.Token0Price().Fraction))
	assert.True(t, upper.GreaterThan(pool.Token0Price().Fraction))
}
