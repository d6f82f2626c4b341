package router

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/fullmath"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/ticklist"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/tickmath"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	token0 = uniswapv3.NewToken(1, common.HexToAddress("0x0000000000000000000000000000000000000001"), 18, "t0", "token0")
	token1 = uniswapv3.NewToken(1, common.HexToAddress("0x0000000000000000000000000000000000000002"), 18, "t1", "token1")
	token2 = uniswapv3.NewToken(1, common.HexToAddress("0x0000000000000000000000000000000000000003"), 18, "t2", "token2")
	token3 = uniswapv3.NewToken(1, common.HexToAddress("0x0000000000000000000000000000000000000004"), 18, "t3", "token3")
)

// fullRangePool builds a pool holding reserve0/reserve1 of the sorted pair with
// liquidity over the whole usable tick range.
func fullRangePool(t *testing.T, a, b *uniswapv3.Token, reserve0, reserve1 int64) *uniswapv3.Pool {
	t.Helper()

	sqrtRatioX96, err := uniswapv3.EncodeSqrtRatioX96(big.NewInt(reserve1), big.NewInt(reserve0))
	require.NoError(t, err)
	liquidity, err := fullmath.Sqrt(new(big.Int).Mul(big.NewInt(reserve0), big.NewInt(reserve1)))
	require.NoError(t, err)
	tick, err := tickmath.GetTickAtSqrtRatio(sqrtRatioX96)
	require.NoError(t, err)

	spacing := uniswapv3.TickSpacings[uniswapv3.FeeMedium]
	lower, err := uniswapv3.NearestUsableTick(tickmath.MIN_TICK, spacing)
	require.NoError(t, err)
	upper, err := uniswapv3.NearestUsableTick(tickmath.MAX_TICK, spacing)
	require.NoError(t, err)

	provider, err := ticklist.NewListProvider([]ticklist.Tick{
		{Index: lower, LiquidityGross: liquidity, LiquidityNet: liquidity},
		{Index: upper, LiquidityGross: liquidity, LiquidityNet: new(big.Int).Neg(liquidity)},
	}, spacing)
	require.NoError(t, err)

	pool, err := uniswapv3.NewPool(a, b, uniswapv3.FeeMedium, sqrtRatioX96, liquidity, tick, provider)
	require.NoError(t, err)
	return pool
}

type testPools struct {
	p01, p02, p03, p12, p13 *uniswapv3.Pool
}

func newTestPools(t *testing.T) testPools {
	return testPools{
		p01: fullRangePool(t, token0, token1, 100000, 100000),
		p02: fullRangePool(t, token0, token2, 100000, 110000),
		p03: fullRangePool(t, token0, token3, 100000, 90000),
		p12: fullRangePool(t, token1, token2, 120000, 100000),
		p13: fullRangePool(t, token1, token3, 120000, 130000),
	}
}

func (p testPools) all() []*uniswapv3.Pool {
	return []*uniswapv3.Pool{p.p01, p.p02, p.p03, p.p12, p.p13}
}

func amount(token *uniswapv3.Token, raw int64) *uniswapv3.CurrencyAmount {
	return uniswapv3.FromRawAmount(token, big.NewInt(raw))
}

type wantTrade struct {
	input  string
	output string
	pools  []*uniswapv3.Pool
}

func assertTrades(t *testing.T, want []wantTrade, got []*uniswapv3.Trade) {
	t.Helper()
	require.Len(t, got, len(want))
	for i, w := range want {
		trade := got[i]
		assert.Equal(t, w.input, trade.InputAmount().Quotient().String(), "trade %d input", i)
		assert.Equal(t, w.output, trade.OutputAmount().Quotient().String(), "trade %d output", i)
		require.Len(t, trade.Swaps, 1)
		route := trade.Route()
		require.NotNil(t, route)
		require.Len(t, route.Pools, len(w.pools), "trade %d hops", i)
		for j, pool := range w.pools {
			assert.Same(t, pool, route.Pools[j], "trade %d pool %d", i, j)
		}
	}
}

func TestBestTradeExactIn(t *testing.T) {
	ctx := context.Background()
	p := newTestPools(t)
	pools := []*uniswapv3.Pool{p.p01, p.p02, p.p12}

	t.Run("finds direct and two hop trades best first", func(t *testing.T) {
		trades, err := BestTradeExactIn(ctx, pools, amount(token0, 10000), token2, nil)
		require.NoError(t, err)
		assertTrades(t, []wantTrade{
			{input: "10000", output: "9971", pools: []*uniswapv3.Pool{p.p02}},
			{input: "10000", output: "7004", pools: []*uniswapv3.Pool{p.p01, p.p12}},
		}, trades)
	})

	t.Run("respects max hops", func(t *testing.T) {
		trades, err := BestTradeExactIn(ctx, pools, amount(token0, 10000), token2, &BestTradeOptions{MaxHops: 1})
		require.NoError(t, err)
		assertTrades(t, []wantTrade{
			{input: "10000", output: "9971", pools: []*uniswapv3.Pool{p.p02}},
		}, trades)
	})

	t.Run("respects max num results", func(t *testing.T) {
		trades, err := BestTradeExactIn(ctx, pools, amount(token0, 10000), token2, &BestTradeOptions{MaxNumResults: 1})
		require.NoError(t, err)
		assertTrades(t, []wantTrade{
			{input: "10000", output: "9971", pools: []*uniswapv3.Pool{p.p02}},
		}, trades)
	})

	t.Run("three hop trade can win", func(t *testing.T) {
		trades, err := BestTradeExactIn(ctx, p.all(), amount(token0, 10000), token3, nil)
		require.NoError(t, err)
		assertTrades(t, []wantTrade{
			{input: "10000", output: "10747", pools: []*uniswapv3.Pool{p.p02, p.p12, p.p13}},
			{input: "10000", output: "9105", pools: []*uniswapv3.Pool{p.p01, p.p13}},
			{input: "10000", output: "8159", pools: []*uniswapv3.Pool{p.p03}},
		}, trades)
	})

	t.Run("dust input yields no trades", func(t *testing.T) {
		trades, err := BestTradeExactIn(ctx, pools, amount(token0, 1), token2, nil)
		require.NoError(t, err)
		assert.Empty(t, trades)
	})

	t.Run("unreachable output yields no trades", func(t *testing.T) {
		trades, err := BestTradeExactIn(ctx, []*uniswapv3.Pool{p.p01, p.p12}, amount(token0, 10000), token3, nil)
		require.NoError(t, err)
		assert.Empty(t, trades)
	})

	t.Run("rejects bad arguments", func(t *testing.T) {
		_, err := BestTradeExactIn(ctx, nil, amount(token0, 10000), token2, nil)
		assert.ErrorIs(t, err, uniswapv3.ErrEmptyPools)

		_, err = BestTradeExactIn(ctx, pools, amount(token0, 10000), token0, nil)
		assert.ErrorIs(t, err, uniswapv3.ErrSameAddress)

		_, err = BestTradeExactIn(ctx, pools, nil, token2, nil)
		assert.ErrorIs(t, err, ErrNilArgument)
	})

	t.Run("negative limits", func(t *testing.T) {
		_, err := BestTradeExactIn(ctx, pools, amount(token0, 10000), token2, &BestTradeOptions{MaxNumResults: -1})
		assert.ErrorIs(t, err, ErrInvalidOptions)
		_, err = BestTradeExactIn(ctx, pools, amount(token0, 10000), token2, &BestTradeOptions{MaxHops: -2})
		assert.ErrorIs(t, err, ErrInvalidOptions)
		_, err = BestTradeExactOut(ctx, pools, token0, amount(token2, 100), &BestTradeOptions{MaxNumResults: -1})
		assert.ErrorIs(t, err, ErrInvalidOptions)
		_, err = BestTradeExactOut(ctx, pools, token0, amount(token2, 100), &BestTradeOptions{MaxHops: -1})
		assert.ErrorIs(t, err, ErrInvalidOptions)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := BestTradeExactIn(cctx, pools, amount(token0, 10000), token2, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("pool without tick data", func(t *testing.T) {
		bare, err := uniswapv3.NewPool(token0, token2, uniswapv3.FeeMedium,
			p.p02.SqrtRatioX96, p.p02.Liquidity, p.p02.TickCurrent, nil)
		require.NoError(t, err)

		trades, err := BestTradeExactIn(ctx, []*uniswapv3.Pool{bare}, amount(token0, 100), token2, nil)
		require.NoError(t, err)
		require.Len(t, trades, 1)
		assert.Equal(t, "108", trades[0].OutputAmount().Quotient().String())

		// leaving the current range aborts the search
		_, err = BestTradeExactIn(ctx, []*uniswapv3.Pool{bare}, amount(token0, 10000), token2, nil)
		assert.ErrorIs(t, err, ticklist.ErrNoTickData)
	})
}

func TestBestTradeExactOut(t *testing.T) {
	ctx := context.Background()
	p := newTestPools(t)
	pools := []*uniswapv3.Pool{p.p01, p.p02, p.p12}

	t.Run("finds direct and two hop trades best first", func(t *testing.T) {
		trades, err := BestTradeExactOut(ctx, pools, token0, amount(token2, 10000), nil)
		require.NoError(t, err)
		assertTrades(t, []wantTrade{
			{input: "10032", output: "10000", pools: []*uniswapv3.Pool{p.p02}},
			{input: "15488", output: "10000", pools: []*uniswapv3.Pool{p.p01, p.p12}},
		}, trades)
	})

	t.Run("respects max hops", func(t *testing.T) {
		trades, err := BestTradeExactOut(ctx, pools, token0, amount(token2, 10000), &BestTradeOptions{MaxHops: 1})
		require.NoError(t, err)
		assertTrades(t, []wantTrade{
			{input: "10032", output: "10000", pools: []*uniswapv3.Pool{p.p02}},
		}, trades)
	})

	t.Run("routes are ordered from input to output", func(t *testing.T) {
		trades, err := BestTradeExactOut(ctx, p.all(), token0, amount(token3, 10000), nil)
		require.NoError(t, err)
		assertTrades(t, []wantTrade{
			{input: "9103", output: "10000", pools: []*uniswapv3.Pool{p.p02, p.p12, p.p13}},
			{input: "11185", output: "10000", pools: []*uniswapv3.Pool{p.p01, p.p13}},
			{input: "12539", output: "10000", pools: []*uniswapv3.Pool{p.p03}},
		}, trades)
		assert.Equal(t, "t0 -> t2 -> t1 -> t3", trades[0].Route().String())
	})

	t.Run("output larger than reserves yields no trades", func(t *testing.T) {
		trades, err := BestTradeExactOut(ctx, pools, token0, amount(token2, 1_000_000), nil)
		require.NoError(t, err)
		assert.Empty(t, trades)
	})
}

// Searches agree with simulating the found routes from scratch.
func TestBestTrades_MatchRouteSimulation(t *testing.T) {
	ctx := context.Background()
	p := newTestPools(t)

	in, err := BestTradeExactIn(ctx, p.all(), amount(token0, 10000), token3, nil)
	require.NoError(t, err)
	for _, trade := range in {
		sim, err := uniswapv3.FromRoute(ctx, trade.Route(), trade.InputAmount(), uniswapv3.ExactInput)
		require.NoError(t, err)
		assert.True(t, sim.OutputAmount().EqualTo(trade.OutputAmount().Fraction))
	}

	out, err := BestTradeExactOut(ctx, p.all(), token0, amount(token3, 10000), nil)
	require.NoError(t, err)
	for _, trade := range out {
		sim, err := uniswapv3.FromRoute(ctx, trade.Route(), trade.OutputAmount(), uniswapv3.ExactOutput)
		require.NoError(t, err)
		assert.True(t, sim.InputAmount().EqualTo(trade.InputAmount().Fraction))
	}
}

func newTestRouter(t *testing.T, cfg Config) (*Router, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	cfg.Registry = reg
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	r, err := New(&cfg)
	require.NoError(t, err)
	return r, reg
}

func TestNew_ValidatesConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	testCases := []struct {
		name string
		cfg  Config
		msg  string
	}{
		{name: "nil registry", cfg: Config{Logger: logger}, msg: "Registry cannot be nil"},
		{name: "nil logger", cfg: Config{Registry: prometheus.NewRegistry()}, msg: "Logger cannot be nil"},
		{name: "negative hops", cfg: Config{Logger: logger, Registry: prometheus.NewRegistry(), MaxHops: -1}, msg: "MaxHops"},
		{name: "negative results", cfg: Config{Logger: logger, Registry: prometheus.NewRegistry(), MaxNumResults: -2}, msg: "MaxNumResults"},
		{name: "negative concurrency", cfg: Config{Logger: logger, Registry: prometheus.NewRegistry(), Concurrency: -1}, msg: "Concurrency"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(&tc.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestRouter_BestTradeUsesConfiguredLimits(t *testing.T) {
	ctx := context.Background()
	p := newTestPools(t)
	r, _ := newTestRouter(t, Config{MaxHops: 1})

	trades, err := r.BestTradeExactIn(ctx, p.all(), amount(token0, 10000), token3, nil)
	require.NoError(t, err)
	assertTrades(t, []wantTrade{
		{input: "10000", output: "8159", pools: []*uniswapv3.Pool{p.p03}},
	}, trades)

	// per call options override the router's limits
	trades, err = r.BestTradeExactIn(ctx, p.all(), amount(token0, 10000), token3, &BestTradeOptions{MaxHops: 3, MaxNumResults: 2})
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "10747", trades[0].OutputAmount().Quotient().String())

	_, err = r.BestTradeExactIn(ctx, p.all(), amount(token0, 10000), token3, &BestTradeOptions{MaxNumResults: -1})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestRouter_Metrics(t *testing.T) {
	ctx := context.Background()
	p := newTestPools(t)
	r, reg := newTestRouter(t, Config{})
	pools := []*uniswapv3.Pool{p.p01, p.p02, p.p12}

	_, err := r.BestTradeExactIn(ctx, pools, amount(token0, 10000), token2, nil)
	require.NoError(t, err)

	// p01, then p12 from t1, then p02 directly
	assert.Equal(t, 3.0, testutil.ToFloat64(r.metrics.hopsSimulated.WithLabelValues("exact_input")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.metrics.tradesFound.WithLabelValues("exact_input")))

	_, err = r.BestTradeExactIn(ctx, pools, amount(token0, 1), token2, nil)
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(r.metrics.branchesPruned.WithLabelValues(pruneInsufficientInput)))

	_, err = r.BestTradeExactOut(ctx, pools, token0, amount(token2, 1_000_000), nil)
	require.NoError(t, err)
	assert.Positive(t, testutil.ToFloat64(r.metrics.branchesPruned.WithLabelValues(pruneInsufficientReserves)))

	count, err := testutil.GatherAndCount(reg, "uniswapv3_router_search_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRouter_QuoteRoutes(t *testing.T) {
	ctx := context.Background()
	p := newTestPools(t)
	r, _ := newTestRouter(t, Config{Concurrency: 2})

	direct, err := uniswapv3.NewRoute([]*uniswapv3.Pool{p.p02}, token0, token2)
	require.NoError(t, err)
	twoHop, err := uniswapv3.NewRoute([]*uniswapv3.Pool{p.p01, p.p12}, token0, token2)
	require.NoError(t, err)
	threeHop, err := uniswapv3.NewRoute([]*uniswapv3.Pool{p.p03, p.p13, p.p12}, token0, token2)
	require.NoError(t, err)
	routes := []*uniswapv3.Route{twoHop, direct, threeHop}

	t.Run("exact input keeps route order", func(t *testing.T) {
		quotes, err := r.QuoteRoutes(ctx, routes, amount(token0, 10000), uniswapv3.ExactInput)
		require.NoError(t, err)
		require.Len(t, quotes, 3)
		for i, q := range quotes {
			assert.Same(t, routes[i], q.Route)
			require.NoError(t, q.Err)
			want, err := uniswapv3.FromRoute(ctx, routes[i], amount(token0, 10000), uniswapv3.ExactInput)
			require.NoError(t, err)
			assert.True(t, want.OutputAmount().EqualTo(q.Trade.OutputAmount().Fraction))
		}
		assert.Equal(t, "7004", quotes[0].Trade.OutputAmount().Quotient().String())
		assert.Equal(t, "9971", quotes[1].Trade.OutputAmount().Quotient().String())
	})

	t.Run("unfillable routes are reported per quote", func(t *testing.T) {
		quotes, err := r.QuoteRoutes(ctx, routes, amount(token2, 1_000_000), uniswapv3.ExactOutput)
		require.NoError(t, err)
		require.Len(t, quotes, 3)
		for _, q := range quotes {
			assert.Nil(t, q.Trade)
			assert.ErrorIs(t, q.Err, uniswapv3.ErrInsufficientReserves)
		}
	})

	t.Run("pool without tick data is reported per quote", func(t *testing.T) {
		bare, err := uniswapv3.NewPool(token0, token2, uniswapv3.FeeMedium,
			p.p02.SqrtRatioX96, p.p02.Liquidity, p.p02.TickCurrent, nil)
		require.NoError(t, err)
		bareRoute, err := uniswapv3.NewRoute([]*uniswapv3.Pool{bare}, token0, token2)
		require.NoError(t, err)

		// 100 token0 stays above tick 900, 10000 does not
		quotes, err := r.QuoteRoutes(ctx, []*uniswapv3.Route{bareRoute, direct}, amount(token0, 100), uniswapv3.ExactInput)
		require.NoError(t, err)
		require.NoError(t, quotes[0].Err)
		assert.Equal(t, "108", quotes[0].Trade.OutputAmount().Quotient().String())

		quotes, err = r.QuoteRoutes(ctx, []*uniswapv3.Route{bareRoute, direct}, amount(token0, 10000), uniswapv3.ExactInput)
		require.NoError(t, err)
		assert.ErrorIs(t, quotes[0].Err, ticklist.ErrNoTickData)
		require.NoError(t, quotes[1].Err)
		assert.Equal(t, "9971", quotes[1].Trade.OutputAmount().Quotient().String())
	})

	t.Run("currency mismatch fails the batch", func(t *testing.T) {
		_, err := r.QuoteRoutes(ctx, routes, amount(token1, 10000), uniswapv3.ExactInput)
		assert.ErrorIs(t, err, uniswapv3.ErrInputCurrency)
	})
}
