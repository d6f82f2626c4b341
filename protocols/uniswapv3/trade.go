package uniswapv3

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
)

// TradeType says which side of a trade is fixed.
type TradeType int

const (
	ExactInput TradeType = iota
	ExactOutput
)

func (t TradeType) String() string {
	if t == ExactOutput {
		return "exact_output"
	}
	return "exact_input"
}

// RouteSwap is one route of a trade together with the amounts it swaps.
type RouteSwap struct {
	Route        *Route
	InputAmount  *CurrencyAmount
	OutputAmount *CurrencyAmount
}

// RouteAmount is a route with the fixed amount to send through it.
type RouteAmount struct {
	Route  *Route
	Amount *CurrencyAmount
}

// Trade is a set of swaps between the same input and output tokens.
// No pool is used by more than one swap.
type Trade struct {
	Swaps     []RouteSwap
	TradeType TradeType

	inputAmount  *CurrencyAmount
	outputAmount *CurrencyAmount

	executionPriceOnce sync.Once
	executionPrice     *Price

	priceImpactOnce sync.Once
	priceImpact     *Percent
	priceImpactErr  error
}

// FromRoute simulates amount through every pool of route.
func FromRoute(ctx context.Context, route *Route, amount *CurrencyAmount, tradeType TradeType) (*Trade, error) {
	swap, err := simulateRoute(ctx, route, amount, tradeType)
	if err != nil {
		return nil, err
	}
	return newTrade([]RouteSwap{swap}, tradeType)
}

// FromRoutes simulates each amount through its route. Routes must not share pools.
func FromRoutes(ctx context.Context, routes []RouteAmount, tradeType TradeType) (*Trade, error) {
	swaps := make([]RouteSwap, 0, len(routes))
	for _, ra := range routes {
		swap, err := simulateRoute(ctx, ra.Route, ra.Amount, tradeType)
		if err != nil {
			return nil, err
		}
		swaps = append(swaps, swap)
	}
	return newTrade(swaps, tradeType)
}

// CreateUncheckedTrade builds a trade from amounts computed elsewhere.
func CreateUncheckedTrade(route *Route, inputAmount, outputAmount *CurrencyAmount, tradeType TradeType) (*Trade, error) {
	return newTrade([]RouteSwap{{Route: route, InputAmount: inputAmount, OutputAmount: outputAmount}}, tradeType)
}

// CreateUncheckedTradeWithMultipleRoutes builds a trade from swaps computed elsewhere.
func CreateUncheckedTradeWithMultipleRoutes(swaps []RouteSwap, tradeType TradeType) (*Trade, error) {
	return newTrade(swaps, tradeType)
}

func simulateRoute(ctx context.Context, route *Route, amount *CurrencyAmount, tradeType TradeType) (RouteSwap, error) {
	current := amount
	if tradeType == ExactInput {
		if !amount.Currency.Equal(route.Input) {
			return RouteSwap{}, fmt.Errorf("%w: %s", ErrInputCurrency, amount.Currency)
		}
		for i, pool := range route.Pools {
			out, _, err := pool.GetOutputAmount(ctx, current, nil)
			if err != nil {
				return RouteSwap{}, fmt.Errorf("hop %d (%s): %w", i, pool, err)
			}
			current = out
		}
		return RouteSwap{
			Route:        route,
			InputAmount:  FromFractionalAmount(route.Input, amount.Numerator, amount.Denominator),
			OutputAmount: FromFractionalAmount(route.Output, current.Numerator, current.Denominator),
		}, nil
	}

	if !amount.Currency.Equal(route.Output) {
		return RouteSwap{}, fmt.Errorf("%w: %s", ErrOutputCurrency, amount.Currency)
	}
	for i := len(route.Pools) - 1; i >= 0; i-- {
		pool := route.Pools[i]
		in, _, err := pool.GetInputAmount(ctx, current, nil)
		if err != nil {
			return RouteSwap{}, fmt.Errorf("hop %d (%s): %w", i, pool, err)
		}
		current = in
	}
	return RouteSwap{
		Route:        route,
		InputAmount:  FromFractionalAmount(route.Input, current.Numerator, current.Denominator),
		OutputAmount: FromFractionalAmount(route.Output, amount.Numerator, amount.Denominator),
	}, nil
}

func newTrade(swaps []RouteSwap, tradeType TradeType) (*Trade, error) {
	if len(swaps) == 0 {
		return nil, ErrEmptyRoutes
	}

	input, output := swaps[0].Route.Input, swaps[0].Route.Output
	for _, s := range swaps {
		if !s.Route.Input.Equal(input) || !s.InputAmount.Currency.Equal(input) {
			return nil, fmt.Errorf("%w: routes do not share input %s", ErrInputCurrency, input)
		}
		if !s.Route.Output.Equal(output) || !s.OutputAmount.Currency.Equal(output) {
			return nil, fmt.Errorf("%w: routes do not share output %s", ErrOutputCurrency, output)
		}
	}

	seen := mapset.NewThreadUnsafeSet[common.Address]()
	for _, s := range swaps {
		for _, pool := range s.Route.Pools {
			if !seen.Add(pool.Address()) {
				return nil, fmt.Errorf("%w: %s", ErrPoolsDuplicated, pool.Address())
			}
		}
	}

	inputAmount := swaps[0].InputAmount
	outputAmount := swaps[0].OutputAmount
	for _, s := range swaps[1:] {
		var err error
		if inputAmount, err = inputAmount.Add(s.InputAmount); err != nil {
			return nil, err
		}
		if outputAmount, err = outputAmount.Add(s.OutputAmount); err != nil {
			return nil, err
		}
	}

	return &Trade{
		Swaps:        swaps,
		TradeType:    tradeType,
		inputAmount:  inputAmount,
		outputAmount: outputAmount,
	}, nil
}

// Route returns the route of a single-route trade, nil otherwise.
func (t *Trade) Route() *Route {
	if len(t.Swaps) != 1 {
		return nil
	}
	return t.Swaps[0].Route
}

func (t *Trade) InputAmount() *CurrencyAmount  { return t.inputAmount }
func (t *Trade) OutputAmount() *CurrencyAmount { return t.outputAmount }

// Hops counts the pools used across all swaps.
func (t *Trade) Hops() int {
	n := 0
	for _, s := range t.Swaps {
		n += len(s.Route.Pools)
	}
	return n
}

// ExecutionPrice is the average price the trade executes at.
func (t *Trade) ExecutionPrice() *Price {
	t.executionPriceOnce.Do(func() {
		t.executionPrice = NewPrice(t.inputAmount.Currency, t.outputAmount.Currency, t.inputAmount.Quotient(), t.outputAmount.Quotient())
	})
	return t.executionPrice
}

// PriceImpact is the relative shortfall of the output against the routes' mid prices.
func (t *Trade) PriceImpact() (*Percent, error) {
	t.priceImpactOnce.Do(func() {
		spotOutput := FromRawAmount(t.outputAmount.Currency, new(big.Int))
		for _, s := range t.Swaps {
			midPrice, err := s.Route.MidPrice()
			if err != nil {
				t.priceImpactErr = err
				return
			}
			quoted, err := midPrice.Quote(s.InputAmount)
			if err != nil {
				t.priceImpactErr = err
				return
			}
			if spotOutput, err = spotOutput.Add(quoted); err != nil {
				t.priceImpactErr = err
				return
			}
		}
		if spotOutput.Numerator.Sign() == 0 {
			t.priceImpactErr = fmt.Errorf("%w: zero spot output", ErrZeroDenominator)
			return
		}

		diff, err := spotOutput.Subtract(t.outputAmount)
		if err != nil {
			t.priceImpactErr = err
			return
		}
		impact := diff.Fraction.Divide(spotOutput.Fraction)
		t.priceImpact = NewPercent(impact.Numerator, impact.Denominator)
	})
	return t.priceImpact, t.priceImpactErr
}

// MinimumAmountOut is the least output accepted under the slippage tolerance.
func (t *Trade) MinimumAmountOut(slippageTolerance *Percent) (*CurrencyAmount, error) {
	if slippageTolerance.Numerator.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSlippage, slippageTolerance)
	}
	if t.TradeType == ExactOutput {
		return t.outputAmount, nil
	}
	adjusted := NewFraction(big.NewInt(1), nil).Add(slippageTolerance.Fraction).Invert().
		Multiply(NewFraction(t.outputAmount.Quotient(), nil)).Quotient()
	return FromRawAmount(t.outputAmount.Currency, adjusted), nil
}

// MaximumAmountIn is the most input spent under the slippage tolerance.
func (t *Trade) MaximumAmountIn(slippageTolerance *Percent) (*CurrencyAmount, error) {
	if slippageTolerance.Numerator.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSlippage, slippageTolerance)
	}
	if t.TradeType == ExactInput {
		return t.inputAmount, nil
	}
	adjusted := NewFraction(big.NewInt(1), nil).Add(slippageTolerance.Fraction).
		Multiply(NewFraction(t.inputAmount.Quotient(), nil)).Quotient()
	return FromRawAmount(t.inputAmount.Currency, adjusted), nil
}

// WorstExecutionPrice is the execution price at the slippage bounds.
func (t *Trade) WorstExecutionPrice(slippageTolerance *Percent) (*Price, error) {
	in, err := t.MaximumAmountIn(slippageTolerance)
	if err != nil {
		return nil, err
	}
	out, err := t.MinimumAmountOut(slippageTolerance)
	if err != nil {
		return nil, err
	}
	return NewPrice(in.Currency, out.Currency, in.Quotient(), out.Quotient()), nil
}

// CompareTrades orders trades best first: more output, then less input, then fewer hops.
// Both trades must share input and output currencies.
func CompareTrades(a, b *Trade) int {
	if c := a.outputAmount.Cmp(b.outputAmount.Fraction); c != 0 {
		return -c
	}
	if c := a.inputAmount.Cmp(b.inputAmount.Fraction); c != 0 {
		return c
	}
	return a.Hops() - b.Hops()
}
