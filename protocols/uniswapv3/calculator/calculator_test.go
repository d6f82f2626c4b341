package calculator

import (
	"context"
	"encoding/json"
	"math/big"
	"os"
	"testing"

	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/ticklist"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/tickmath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// USDC/WETH 0.05% pool state captured alongside testdata/usdc_weth_500_ticks.json.
const (
	poolFee         = 500
	poolTickSpacing = 10
	poolTick        = 193540
	poolSqrtPrice   = "1262831046415630070062062910819682"
	poolLiquidity   = "4411461329627947710"
)

func bigFromString(t *testing.T, s string) *big.Int {
	t.Helper()
	n, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok, "invalid integer %q", s)
	return n
}

func loadTicks(t *testing.T) []ticklist.Tick {
	t.Helper()
	raw, err := os.ReadFile("testdata/usdc_weth_500_ticks.json")
	require.NoError(t, err)

	var ticks []ticklist.Tick
	require.NoError(t, json.Unmarshal(raw, &ticks))
	require.NotEmpty(t, ticks)
	return ticks
}

func newPoolParams(t *testing.T) SwapParams {
	t.Helper()
	provider, err := ticklist.NewListProvider(loadTicks(t), poolTickSpacing)
	require.NoError(t, err)

	return SwapParams{
		FeePips:          poolFee,
		SqrtPriceX96:     bigFromString(t, poolSqrtPrice),
		TickCurrent:      poolTick,
		Liquidity:        bigFromString(t, poolLiquidity),
		TickSpacing:      poolTickSpacing,
		TickDataProvider: provider,
	}
}

func TestSwap_ExactInput(t *testing.T) {
	testCases := []struct {
		name         string
		zeroForOne   bool
		amountIn     string
		amountOut    string
		tickAfter    int
		liquidityOut string
	}{
		{
			name:         "small token0 input stays in the current range",
			zeroForOne:   true,
			amountIn:     "1000000000",
			amountOut:    "253929152598427169",
			tickAfter:    193540,
			liquidityOut: poolLiquidity,
		},
		{
			name:         "token0 input moves the tick within the range",
			zeroForOne:   true,
			amountIn:     "100000000000",
			amountOut:    "25383840044540399331",
			tickAfter:    193533,
			liquidityOut: poolLiquidity,
		},
		{
			name:         "large token0 input crosses initialized ticks",
			zeroForOne:   true,
			amountIn:     "1000000000000",
			amountOut:    "253013356124110867237",
			tickAfter:    193467,
			liquidityOut: "4489295621468091208",
		},
		{
			name:         "small token1 input stays on the current tick",
			zeroForOne:   false,
			amountIn:     "100000000000000000",
			amountOut:    "393414939",
			tickAfter:    193540,
			liquidityOut: poolLiquidity,
		},
		{
			name:         "token1 input moves the tick within the range",
			zeroForOne:   false,
			amountIn:     "10000000000000000000",
			amountOut:    "39335958431",
			tickAfter:    193543,
			liquidityOut: poolLiquidity,
		},
		{
			name:         "large token1 input crosses initialized ticks",
			zeroForOne:   false,
			amountIn:     "100000000000000000000",
			amountOut:    "392859669777",
			tickAfter:    193568,
			liquidityOut: "4459016266851030936",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := newPoolParams(t)
			p.ZeroForOne = tc.zeroForOne
			p.AmountSpecified = bigFromString(t, tc.amountIn)

			res, err := Swap(context.Background(), p)
			require.NoError(t, err)

			assert.Equal(t, "-"+tc.amountOut, res.AmountCalculated.String())
			assert.Zero(t, res.AmountSpecifiedRemaining.Sign())
			assert.Equal(t, tc.tickAfter, res.TickCurrent)
			assert.Equal(t, tc.liquidityOut, res.Liquidity.String())

			// the resulting tick always brackets the resulting price
			lower, err := tickmath.GetSqrtRatioAtTick(res.TickCurrent)
			require.NoError(t, err)
			upper, err := tickmath.GetSqrtRatioAtTick(res.TickCurrent + 1)
			require.NoError(t, err)
			assert.True(t, lower.Cmp(res.SqrtPriceX96) <= 0)
			assert.True(t, upper.Cmp(res.SqrtPriceX96) > 0)
		})
	}

	t.Run("final price of a single-step swap", func(t *testing.T) {
		p := newPoolParams(t)
		p.ZeroForOne = true
		p.AmountSpecified = big.NewInt(1_000_000_000)

		res, err := Swap(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, "1262826485944922991609732334706364", res.SqrtPriceX96.String())
	})
}

func TestSwap_ExactOutput(t *testing.T) {
	testCases := []struct {
		name       string
		zeroForOne bool
		amountOut  string
		amountIn   string
	}{
		{"tiny token1 output", true, "253930068700864", "1000000"},
		{"token1 output within the range", true, "253929152598427169", "1000000000"},
		{"token1 output within the range, larger", true, "25383840044540399331", "100000000000"},
		{"token1 output crossing ticks", true, "253013356124110867237", "1000000000000"},
		{"tiny token0 output", false, "393415", "99999873354112"},
		{"token0 output within the range", false, "393414939", "99999999852530586"},
		{"token0 output moving the tick", false, "39335958431", "9999999999980855129"},
		{"token0 output crossing ticks", false, "392859669777", "99999999999949360508"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := newPoolParams(t)
			p.ZeroForOne = tc.zeroForOne
			p.AmountSpecified = new(big.Int).Neg(bigFromString(t, tc.amountOut))

			res, err := Swap(context.Background(), p)
			require.NoError(t, err)
			assert.Equal(t, tc.amountIn, res.AmountCalculated.String())
		})
	}

	t.Run("lands on the same state as the matching exact input", func(t *testing.T) {
		p := newPoolParams(t)
		p.ZeroForOne = true
		p.AmountSpecified = bigFromString(t, "-253013356124110867237")

		res, err := Swap(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, "1000000000000", res.AmountCalculated.String())
		assert.Equal(t, "1258264504338337082256602722926996", res.SqrtPriceX96.String())
		assert.Equal(t, "4489295621468091208", res.Liquidity.String())
		assert.Equal(t, 193467, res.TickCurrent)
	})
}

func TestSwap_PriceLimit(t *testing.T) {
	t.Run("token0 input stops at the limit", func(t *testing.T) {
		limit, err := tickmath.GetSqrtRatioAtTick(193500)
		require.NoError(t, err)

		p := newPoolParams(t)
		p.ZeroForOne = true
		p.AmountSpecified = bigFromString(t, "1000000000000000")
		p.SqrtPriceLimitX96 = limit

		res, err := Swap(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, "-141450866221809099723", res.AmountCalculated.String())
		assert.Positive(t, res.AmountSpecifiedRemaining.Sign())
		assert.Zero(t, limit.Cmp(res.SqrtPriceX96))
		assert.Equal(t, 193499, res.TickCurrent)
		assert.Equal(t, "4367819468981580348", res.Liquidity.String())
	})

	t.Run("token1 input stops at the limit", func(t *testing.T) {
		limit, err := tickmath.GetSqrtRatioAtTick(193600)
		require.NoError(t, err)

		p := newPoolParams(t)
		p.ZeroForOne = false
		p.AmountSpecified = bigFromString(t, "1000000000000000000000")
		p.SqrtPriceLimitX96 = limit

		res, err := Swap(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, "-831372804964", res.AmountCalculated.String())
		assert.Zero(t, limit.Cmp(res.SqrtPriceX96))
		assert.Equal(t, 193600, res.TickCurrent)
		assert.Equal(t, "4459069098943989660", res.Liquidity.String())
	})

	invalid := []struct {
		name       string
		zeroForOne bool
		limit      func(p SwapParams) *big.Int
	}{
		{"zero for one at the minimum ratio", true, func(SwapParams) *big.Int { return tickmath.MIN_SQRT_RATIO }},
		{"zero for one at the current price", true, func(p SwapParams) *big.Int { return p.SqrtPriceX96 }},
		{"zero for one above the current price", true, func(p SwapParams) *big.Int { return new(big.Int).Add(p.SqrtPriceX96, big.NewInt(1)) }},
		{"one for zero at the maximum ratio", false, func(SwapParams) *big.Int { return tickmath.MAX_SQRT_RATIO }},
		{"one for zero at the current price", false, func(p SwapParams) *big.Int { return p.SqrtPriceX96 }},
		{"one for zero below the current price", false, func(p SwapParams) *big.Int { return new(big.Int).Sub(p.SqrtPriceX96, big.NewInt(1)) }},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			p := newPoolParams(t)
			p.ZeroForOne = tc.zeroForOne
			p.AmountSpecified = big.NewInt(1000)
			p.SqrtPriceLimitX96 = tc.limit(p)

			_, err := Swap(context.Background(), p)
			assert.ErrorIs(t, err, ErrInvalidPriceLimit)
		})
	}
}

func TestSwap_DoesNotMutateInputs(t *testing.T) {
	p := newPoolParams(t)
	p.ZeroForOne = true
	p.AmountSpecified = big.NewInt(1_000_000_000_000)

	first, err := Swap(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, poolSqrtPrice, p.SqrtPriceX96.String())
	assert.Equal(t, poolLiquidity, p.Liquidity.String())
	assert.Equal(t, "1000000000000", p.AmountSpecified.String())

	// repeated simulations on the same state are identical
	second, err := Swap(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSwap_ZeroAmount(t *testing.T) {
	p := newPoolParams(t)
	p.AmountSpecified = big.NewInt(0)

	res, err := Swap(context.Background(), p)
	require.NoError(t, err)
	assert.Zero(t, res.AmountCalculated.Sign())
	assert.Equal(t, poolSqrtPrice, res.SqrtPriceX96.String())
	assert.Equal(t, poolTick, res.TickCurrent)
}

func TestSwap_Errors(t *testing.T) {
	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		p := newPoolParams(t)
		p.AmountSpecified = big.NewInt(1000)

		_, err := Swap(ctx, p)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("nil amount", func(t *testing.T) {
		p := newPoolParams(t)
		_, err := Swap(context.Background(), p)
		assert.ErrorIs(t, err, ErrNilAmount)
	})

	t.Run("nil provider", func(t *testing.T) {
		p := newPoolParams(t)
		p.TickDataProvider = nil
		p.AmountSpecified = big.NewInt(1)
		_, err := Swap(context.Background(), p)
		assert.ErrorIs(t, err, ErrNilProvider)
	})

	t.Run("liquidity underflow when crossing", func(t *testing.T) {
		p := newPoolParams(t)
		p.Liquidity = big.NewInt(1)
		p.ZeroForOne = true
		p.AmountSpecified = big.NewInt(1_000_000_000_000)

		_, err := Swap(context.Background(), p)
		require.Error(t, err)
	})
}

// Without tick data a swap may move the price inside the current range but not out of it.
func TestSwap_WithoutTickData(t *testing.T) {
	ctx := context.Background()

	bare := func(t *testing.T, zeroForOne bool, amount *big.Int) SwapParams {
		p := newPoolParams(t)
		p.TickDataProvider = ticklist.NoTickDataProvider{}
		p.ZeroForOne = zeroForOne
		p.AmountSpecified = amount
		return p
	}

	t.Run("stays inside the range", func(t *testing.T) {
		res, err := Swap(ctx, bare(t, true, big.NewInt(1_000_000)))
		require.NoError(t, err)
		assert.Equal(t, "-253930068700864", res.AmountCalculated.String())
		assert.Equal(t, poolTick, res.TickCurrent)
		assert.Equal(t, poolLiquidity, res.Liquidity.String())

		// identical to the same swap with the full tick list
		withTicks := newPoolParams(t)
		withTicks.ZeroForOne = true
		withTicks.AmountSpecified = big.NewInt(1_000_000)
		want, err := Swap(ctx, withTicks)
		require.NoError(t, err)
		assert.Equal(t, want.AmountCalculated.String(), res.AmountCalculated.String())
		assert.Equal(t, want.SqrtPriceX96.String(), res.SqrtPriceX96.String())
		assert.Equal(t, want.TickCurrent, res.TickCurrent)
	})

	t.Run("exact output inside the range", func(t *testing.T) {
		p := bare(t, false, big.NewInt(-1_000_000))
		res, err := Swap(ctx, p)
		require.NoError(t, err)
		assert.Zero(t, res.AmountSpecifiedRemaining.Sign())
		assert.Positive(t, res.AmountCalculated.Sign())
	})

	t.Run("price limit inside the range", func(t *testing.T) {
		p := bare(t, true, big.NewInt(1_000_000_000_000))
		limit := new(big.Int).Sub(bigFromString(t, poolSqrtPrice), big.NewInt(1_000_000))
		p.SqrtPriceLimitX96 = limit
		res, err := Swap(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, limit.String(), res.SqrtPriceX96.String())
		assert.Positive(t, res.AmountSpecifiedRemaining.Sign())
	})

	t.Run("leaving the range needs tick data", func(t *testing.T) {
		// about 5154.83 USDC reaches tick 193540
		_, err := Swap(ctx, bare(t, true, big.NewInt(10_000_000_000)))
		assert.ErrorIs(t, err, ticklist.ErrNoTickData)
	})

	t.Run("price on the range edge", func(t *testing.T) {
		p := SwapParams{
			FeePips:          3000,
			SqrtPriceX96:     new(big.Int).Lsh(big.NewInt(1), 96),
			TickCurrent:      0,
			Liquidity:        bigFromString(t, "1000000000000000000000"),
			TickSpacing:      60,
			TickDataProvider: ticklist.NoTickDataProvider{},
			AmountSpecified:  big.NewInt(1000),
		}

		// token1 in moves the price up towards tick 60
		res, err := Swap(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, "-996", res.AmountCalculated.String())
		assert.Equal(t, 0, res.TickCurrent)

		// token0 in crosses tick 0 at once
		p.ZeroForOne = true
		_, err = Swap(ctx, p)
		assert.ErrorIs(t, err, ticklist.ErrNoTickData)
	})
}

func TestRangeBoundary(t *testing.T) {
	testCases := []struct {
		tick, spacing int
		lte           bool
		want          int
	}{
		{tick: 0, spacing: 60, lte: true, want: 0},
		{tick: 0, spacing: 60, lte: false, want: 60},
		{tick: 59, spacing: 60, lte: true, want: 0},
		{tick: -1, spacing: 60, lte: true, want: -60},
		{tick: -1, spacing: 60, lte: false, want: 0},
		{tick: -60, spacing: 60, lte: true, want: -60},
		{tick: 193545, spacing: 10, lte: false, want: 193550},
	}
	for _, tc := range testCases {
		got, err := rangeBoundary(tc.tick, tc.lte, tc.spacing)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "tick %d spacing %d lte %v", tc.tick, tc.spacing, tc.lte)
	}

	_, err := rangeBoundary(5, true, 0)
	assert.ErrorIs(t, err, ticklist.ErrTickSpacing)
}
