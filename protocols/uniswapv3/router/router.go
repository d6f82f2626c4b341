// Package router searches pools for the best trades between two tokens and quotes
// fixed routes concurrently.
package router

import (
	"context"
	"errors"
	"time"

	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/ticklist"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

var ErrNilArgument = errors.New("amount and token are required")

// Router runs best trade searches with logging and metrics.
type Router struct {
	logger  Logger
	metrics *Metrics

	maxNumResults int
	maxHops       int
	concurrency   int
}

// RouteQuote is the result of quoting one route. Err is set when the route's pools
// cannot quote the amount; Trade is nil in that case.
type RouteQuote struct {
	Route *uniswapv3.Route
	Trade *uniswapv3.Trade
	Err   error
}

func New(cfg *Config) (*Router, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Router{
		logger:        cfg.Logger,
		metrics:       NewMetrics(cfg.Registry),
		maxNumResults: orDefault(cfg.MaxNumResults, DefaultMaxNumResults),
		maxHops:       orDefault(cfg.MaxHops, DefaultMaxHops),
		concurrency:   orDefault(cfg.Concurrency, DefaultConcurrency),
	}, nil
}

// BestTradeExactIn runs the exact input search, taking any zero option from the router's limits.
func (r *Router) BestTradeExactIn(
	ctx context.Context,
	pools []*uniswapv3.Pool,
	amountIn *uniswapv3.CurrencyAmount,
	tokenOut *uniswapv3.Token,
	opts *BestTradeOptions,
) ([]*uniswapv3.Trade, error) {
	timer := prometheus.NewTimer(r.metrics.searchDuration.WithLabelValues(uniswapv3.ExactInput.String()))
	defer timer.ObserveDuration()

	start := time.Now()
	trades, err := bestTradeExactIn(ctx, pools, amountIn, tokenOut, r.options(opts), r)
	return r.finish(uniswapv3.ExactInput, len(pools), start, trades, err)
}

// BestTradeExactOut runs the exact output search, taking any zero option from the router's limits.
func (r *Router) BestTradeExactOut(
	ctx context.Context,
	pools []*uniswapv3.Pool,
	tokenIn *uniswapv3.Token,
	amountOut *uniswapv3.CurrencyAmount,
	opts *BestTradeOptions,
) ([]*uniswapv3.Trade, error) {
	timer := prometheus.NewTimer(r.metrics.searchDuration.WithLabelValues(uniswapv3.ExactOutput.String()))
	defer timer.ObserveDuration()

	start := time.Now()
	trades, err := bestTradeExactOut(ctx, pools, tokenIn, amountOut, r.options(opts), r)
	return r.finish(uniswapv3.ExactOutput, len(pools), start, trades, err)
}

// QuoteRoutes simulates amount through every route in parallel. Quotes are returned
// in the order of routes. A route that cannot fill the amount, or that leaves the
// tick range of a pool without tick data, gets a quote with Err set; any other
// failure cancels the remaining work and is returned.
func (r *Router) QuoteRoutes(
	ctx context.Context,
	routes []*uniswapv3.Route,
	amount *uniswapv3.CurrencyAmount,
	tradeType uniswapv3.TradeType,
) ([]RouteQuote, error) {
	quotes := make([]RouteQuote, len(routes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, route := range routes {
		g.Go(func() error {
			trade, err := uniswapv3.FromRoute(gctx, route, amount, tradeType)
			if err != nil {
				if reason, ok := pruneReason(err); ok {
					r.branchPruned(reason)
					quotes[i] = RouteQuote{Route: route, Err: err}
					return nil
				}
				if errors.Is(err, ticklist.ErrNoTickData) {
					r.branchPruned(routeNoTickData)
					quotes[i] = RouteQuote{Route: route, Err: err}
					return nil
				}
				return err
			}
			quotes[i] = RouteQuote{Route: route, Trade: trade}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		r.logger.Error("route quoting failed", "routes", len(routes), "tradeType", tradeType, "error", err)
		return nil, err
	}
	r.logger.Debug("routes quoted", "routes", len(routes), "tradeType", tradeType)
	return quotes, nil
}

func (r *Router) options(opts *BestTradeOptions) *BestTradeOptions {
	o := BestTradeOptions{MaxNumResults: r.maxNumResults, MaxHops: r.maxHops}
	if opts != nil {
		o.MaxNumResults = orDefault(opts.MaxNumResults, r.maxNumResults)
		o.MaxHops = orDefault(opts.MaxHops, r.maxHops)
	}
	return &o
}

func (r *Router) finish(
	tradeType uniswapv3.TradeType,
	numPools int,
	start time.Time,
	trades []*uniswapv3.Trade,
	err error,
) ([]*uniswapv3.Trade, error) {
	if err != nil {
		r.logger.Error("best trade search failed", "tradeType", tradeType, "pools", numPools, "error", err)
		return nil, err
	}
	r.metrics.tradesFound.WithLabelValues(tradeType.String()).Add(float64(len(trades)))
	r.logger.Debug("best trade search finished",
		"tradeType", tradeType,
		"pools", numPools,
		"results", len(trades),
		"duration", time.Since(start),
	)
	return trades, nil
}

func (r *Router) hopSimulated(tradeType uniswapv3.TradeType) {
	r.metrics.hopsSimulated.WithLabelValues(tradeType.String()).Inc()
}

func (r *Router) branchPruned(reason string) {
	r.metrics.branchesPruned.WithLabelValues(reason).Inc()
}
