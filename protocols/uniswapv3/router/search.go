package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/defistate/uniswapv3-sdk-go/bitset"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3"
)

// BestTradeOptions bounds a best trade search. Zero values use the defaults.
type BestTradeOptions struct {
	MaxNumResults int
	MaxHops       int
}

var ErrInvalidOptions = errors.New("invalid best trade options")

func (o *BestTradeOptions) limits() (maxNumResults, maxHops int, err error) {
	if o == nil {
		return DefaultMaxNumResults, DefaultMaxHops, nil
	}
	if o.MaxNumResults < 0 {
		return 0, 0, fmt.Errorf("%w: MaxNumResults cannot be negative, got %d", ErrInvalidOptions, o.MaxNumResults)
	}
	if o.MaxHops < 0 {
		return 0, 0, fmt.Errorf("%w: MaxHops cannot be negative, got %d", ErrInvalidOptions, o.MaxHops)
	}
	return orDefault(o.MaxNumResults, DefaultMaxNumResults), orDefault(o.MaxHops, DefaultMaxHops), nil
}

// searchObserver receives search events. The package level searches use noopObserver.
type searchObserver interface {
	hopSimulated(tradeType uniswapv3.TradeType)
	branchPruned(reason string)
}

type noopObserver struct{}

func (noopObserver) hopSimulated(uniswapv3.TradeType) {}
func (noopObserver) branchPruned(string)              {}

// frame is one level of the depth-first search. Frames sit on an explicit stack; the
// child pushed for a hop is fully explored before its parent resumes at next, so
// pools are visited in the same order as a recursive walk over the remaining pools.
type frame struct {
	amount *uniswapv3.CurrencyAmount
	// path holds pool indices in route order.
	path     []int
	used     bitset.BitSet
	hopsLeft int
	next     int
}

// BestTradeExactIn returns up to MaxNumResults trades that swap exactly amountIn for
// tokenOut through at most MaxHops of the given pools, best first.
func BestTradeExactIn(
	ctx context.Context,
	pools []*uniswapv3.Pool,
	amountIn *uniswapv3.CurrencyAmount,
	tokenOut *uniswapv3.Token,
	opts *BestTradeOptions,
) ([]*uniswapv3.Trade, error) {
	return bestTradeExactIn(ctx, pools, amountIn, tokenOut, opts, noopObserver{})
}

// BestTradeExactOut returns up to MaxNumResults trades that buy exactly amountOut with
// tokenIn through at most MaxHops of the given pools, best first.
func BestTradeExactOut(
	ctx context.Context,
	pools []*uniswapv3.Pool,
	tokenIn *uniswapv3.Token,
	amountOut *uniswapv3.CurrencyAmount,
	opts *BestTradeOptions,
) ([]*uniswapv3.Trade, error) {
	return bestTradeExactOut(ctx, pools, tokenIn, amountOut, opts, noopObserver{})
}

func bestTradeExactIn(
	ctx context.Context,
	pools []*uniswapv3.Pool,
	amountIn *uniswapv3.CurrencyAmount,
	tokenOut *uniswapv3.Token,
	opts *BestTradeOptions,
	obs searchObserver,
) ([]*uniswapv3.Trade, error) {
	if err := checkSearch(pools, amountIn, tokenOut); err != nil {
		return nil, err
	}
	maxNumResults, maxHops, err := opts.limits()
	if err != nil {
		return nil, err
	}

	var best []*uniswapv3.Trade
	stack := []*frame{{
		amount:   amountIn,
		used:     bitset.NewBitSet(uint64(len(pools))),
		hopsLeft: maxHops,
	}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f := stack[len(stack)-1]
		if f.next >= len(pools) {
			stack = stack[:len(stack)-1]
			continue
		}
		i := f.next
		f.next++

		pool := pools[i]
		if f.used.IsSet(uint64(i)) || !pool.InvolvesToken(f.amount.Currency) {
			continue
		}

		obs.hopSimulated(uniswapv3.ExactInput)
		amountOut, _, err := pool.GetOutputAmount(ctx, f.amount, nil)
		if err != nil {
			if reason, ok := pruneReason(err); ok {
				obs.branchPruned(reason)
				continue
			}
			return nil, fmt.Errorf("pool %s: %w", pool.Address(), err)
		}

		path := append(append(make([]int, 0, len(f.path)+1), f.path...), i)

		if amountOut.Currency.Equal(tokenOut) {
			route, err := uniswapv3.NewRoute(selectPools(pools, path), amountIn.Currency, tokenOut)
			if err != nil {
				return nil, err
			}
			trade, err := uniswapv3.CreateUncheckedTrade(route, amountIn, amountOut, uniswapv3.ExactInput)
			if err != nil {
				return nil, err
			}
			if best, _, _, err = uniswapv3.SortedInsert(best, trade, maxNumResults, uniswapv3.CompareTrades); err != nil {
				return nil, err
			}
			continue
		}

		if f.hopsLeft > 1 && len(pools)-f.used.Count() > 1 {
			used := f.used.Clone()
			used.Set(uint64(i))
			stack = append(stack, &frame{amount: amountOut, path: path, used: used, hopsLeft: f.hopsLeft - 1})
		}
	}

	return best, nil
}

func bestTradeExactOut(
	ctx context.Context,
	pools []*uniswapv3.Pool,
	tokenIn *uniswapv3.Token,
	amountOut *uniswapv3.CurrencyAmount,
	opts *BestTradeOptions,
	obs searchObserver,
) ([]*uniswapv3.Trade, error) {
	if err := checkSearch(pools, amountOut, tokenIn); err != nil {
		return nil, err
	}
	maxNumResults, maxHops, err := opts.limits()
	if err != nil {
		return nil, err
	}

	var best []*uniswapv3.Trade
	stack := []*frame{{
		amount:   amountOut,
		used:     bitset.NewBitSet(uint64(len(pools))),
		hopsLeft: maxHops,
	}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f := stack[len(stack)-1]
		if f.next >= len(pools) {
			stack = stack[:len(stack)-1]
			continue
		}
		i := f.next
		f.next++

		pool := pools[i]
		if f.used.IsSet(uint64(i)) || !pool.InvolvesToken(f.amount.Currency) {
			continue
		}

		obs.hopSimulated(uniswapv3.ExactOutput)
		amountIn, _, err := pool.GetInputAmount(ctx, f.amount, nil)
		if err != nil {
			if reason, ok := pruneReason(err); ok {
				obs.branchPruned(reason)
				continue
			}
			return nil, fmt.Errorf("pool %s: %w", pool.Address(), err)
		}

		// Exact output routes grow backwards from the output token.
		path := append(append(make([]int, 0, len(f.path)+1), i), f.path...)

		if amountIn.Currency.Equal(tokenIn) {
			route, err := uniswapv3.NewRoute(selectPools(pools, path), tokenIn, amountOut.Currency)
			if err != nil {
				return nil, err
			}
			trade, err := uniswapv3.CreateUncheckedTrade(route, amountIn, amountOut, uniswapv3.ExactOutput)
			if err != nil {
				return nil, err
			}
			if best, _, _, err = uniswapv3.SortedInsert(best, trade, maxNumResults, uniswapv3.CompareTrades); err != nil {
				return nil, err
			}
			continue
		}

		if f.hopsLeft > 1 && len(pools)-f.used.Count() > 1 {
			used := f.used.Clone()
			used.Set(uint64(i))
			stack = append(stack, &frame{amount: amountIn, path: path, used: used, hopsLeft: f.hopsLeft - 1})
		}
	}

	return best, nil
}

func checkSearch(pools []*uniswapv3.Pool, amount *uniswapv3.CurrencyAmount, other *uniswapv3.Token) error {
	if len(pools) == 0 {
		return uniswapv3.ErrEmptyPools
	}
	if amount == nil || amount.Currency == nil || other == nil {
		return ErrNilArgument
	}
	if amount.Currency.Equal(other) {
		return fmt.Errorf("%w: %s", uniswapv3.ErrSameAddress, other)
	}
	return nil
}

// pruneReason reports whether err only means the pool cannot fill this hop.
func pruneReason(err error) (string, bool) {
	switch {
	case errors.Is(err, uniswapv3.ErrInsufficientInputAmount):
		return pruneInsufficientInput, true
	case errors.Is(err, uniswapv3.ErrInsufficientReserves):
		return pruneInsufficientReserves, true
	}
	return "", false
}

func selectPools(pools []*uniswapv3.Pool, path []int) []*uniswapv3.Pool {
	out := make([]*uniswapv3.Pool, len(path))
	for j, i := range path {
		out[j] = pools[i]
	}
	return out
}
