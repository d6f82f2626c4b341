package router

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	pruneInsufficientInput    = "insufficient_input"
	pruneInsufficientReserves = "insufficient_reserves"
	routeNoTickData           = "no_tick_data"
)

// Metrics holds the router's collectors.
type Metrics struct {
	searchDuration *prometheus.HistogramVec
	hopsSimulated  *prometheus.CounterVec
	branchesPruned *prometheus.CounterVec
	tradesFound    *prometheus.CounterVec
}

// NewMetrics creates the router collectors and registers them on reg.
// It panics if they are already registered there.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		searchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "uniswapv3",
				Subsystem: "router",
				Name:      "search_duration_seconds",
				Help:      "Time spent searching for the best trades",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"trade_type"},
		),
		hopsSimulated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "uniswapv3",
				Subsystem: "router",
				Name:      "hops_simulated_total",
				Help:      "Total pool swaps simulated during trade search",
			},
			[]string{"trade_type"},
		),
		branchesPruned: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "uniswapv3",
				Subsystem: "router",
				Name:      "branches_pruned_total",
				Help:      "Total search branches abandoned because a pool could not fill the hop",
			},
			[]string{"reason"},
		),
		tradesFound: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "uniswapv3",
				Subsystem: "router",
				Name:      "trades_found_total",
				Help:      "Total trades returned by best trade searches",
			},
			[]string{"trade_type"},
		),
	}
}
