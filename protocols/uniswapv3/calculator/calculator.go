// Package calculator simulates a swap across initialized ticks of a concentrated-liquidity pool.
package calculator

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/liquiditymath"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/swapmath"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/ticklist"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/tickmath"
)

var (
	ErrInvalidPriceLimit = errors.New("invalid sqrt price limit")
	ErrNilAmount         = errors.New("amount specified must not be nil")
	ErrNilProvider       = errors.New("tick data provider must not be nil")

	one = big.NewInt(1)

	// DefaultMinSqrtPriceLimit is the limit used for token0 -> token1 swaps when none is given.
	DefaultMinSqrtPriceLimit = new(big.Int).Add(tickmath.MIN_SQRT_RATIO, one)
	// DefaultMaxSqrtPriceLimit is the limit used for token1 -> token0 swaps when none is given.
	DefaultMaxSqrtPriceLimit = new(big.Int).Sub(tickmath.MAX_SQRT_RATIO, one)
)

// SwapParams describes the pool state and the swap to simulate.
type SwapParams struct {
	FeePips          uint32
	SqrtPriceX96     *big.Int
	TickCurrent      int
	Liquidity        *big.Int
	TickSpacing      int
	TickDataProvider ticklist.TickDataProvider

	// ZeroForOne is true when token0 is swapped for token1.
	ZeroForOne bool
	// AmountSpecified is an exact input when non-negative and an exact output when negative.
	AmountSpecified *big.Int
	// SqrtPriceLimitX96 is optional; nil selects the default limit for the direction.
	SqrtPriceLimitX96 *big.Int
}

// SwapResult is the pool state after the swap together with the calculated amount.
type SwapResult struct {
	// AmountCalculated is the negated output for exact input swaps and the
	// required input (fees included) for exact output swaps.
	AmountCalculated *big.Int
	// AmountSpecifiedRemaining is the part of AmountSpecified left unfilled
	// when the price limit was reached first.
	AmountSpecifiedRemaining *big.Int
	SqrtPriceX96             *big.Int
	Liquidity                *big.Int
	TickCurrent              int
}

// swapState represents the state of a swap as it progresses.
type swapState struct {
	amountSpecifiedRemaining *big.Int
	amountCalculated         *big.Int
	sqrtPriceX96             *big.Int
	tick                     int
	liquidity                *big.Int

	sqrtPriceStartX96 *big.Int
	targetPrice       *big.Int
	consumed          *big.Int
}

// swapStatePool manages a pool of swapState objects for safe concurrent use.
var swapStatePool = sync.Pool{
	New: func() any {
		return &swapState{
			amountSpecifiedRemaining: new(big.Int),
			amountCalculated:         new(big.Int),
			sqrtPriceX96:             new(big.Int),
			liquidity:                new(big.Int),
			sqrtPriceStartX96:        new(big.Int),
			targetPrice:              new(big.Int),
			consumed:                 new(big.Int),
		}
	},
}

func validatePriceLimit(p SwapParams, limit *big.Int) error {
	if p.ZeroForOne {
		if limit.Cmp(tickmath.MIN_SQRT_RATIO) <= 0 || limit.Cmp(p.SqrtPriceX96) >= 0 {
			return fmt.Errorf("%w: %s must lie in (%s, %s)", ErrInvalidPriceLimit, limit, tickmath.MIN_SQRT_RATIO, p.SqrtPriceX96)
		}
		return nil
	}
	if limit.Cmp(tickmath.MAX_SQRT_RATIO) >= 0 || limit.Cmp(p.SqrtPriceX96) <= 0 {
		return fmt.Errorf("%w: %s must lie in (%s, %s)", ErrInvalidPriceLimit, limit, p.SqrtPriceX96, tickmath.MAX_SQRT_RATIO)
	}
	return nil
}

// Swap walks initialized ticks from the current price until the specified amount is
// filled or the price limit is reached. Provider failures abort the swap. A provider
// without tick data (ticklist.ErrNoTickData) supports swaps that stay between the
// spacing-aligned ticks around the current tick; reaching either of them fails with
// ticklist.ErrNoTickData, since crossing needs the tick's net liquidity.
func Swap(ctx context.Context, p SwapParams) (SwapResult, error) {
	if p.AmountSpecified == nil {
		return SwapResult{}, ErrNilAmount
	}
	if p.TickDataProvider == nil {
		return SwapResult{}, ErrNilProvider
	}

	limit := p.SqrtPriceLimitX96
	if limit == nil {
		if p.ZeroForOne {
			limit = DefaultMinSqrtPriceLimit
		} else {
			limit = DefaultMaxSqrtPriceLimit
		}
	}
	if err := validatePriceLimit(p, limit); err != nil {
		return SwapResult{}, err
	}

	state := swapStatePool.Get().(*swapState)
	defer swapStatePool.Put(state)

	state.amountSpecifiedRemaining.Set(p.AmountSpecified)
	state.amountCalculated.SetInt64(0)
	state.sqrtPriceX96.Set(p.SqrtPriceX96)
	state.tick = p.TickCurrent
	state.liquidity.Set(p.Liquidity)

	if err := state.run(ctx, p, limit); err != nil {
		return SwapResult{}, err
	}

	return SwapResult{
		AmountCalculated:         new(big.Int).Set(state.amountCalculated),
		AmountSpecifiedRemaining: new(big.Int).Set(state.amountSpecifiedRemaining),
		SqrtPriceX96:             new(big.Int).Set(state.sqrtPriceX96),
		Liquidity:                new(big.Int).Set(state.liquidity),
		TickCurrent:              state.tick,
	}, nil
}

func (state *swapState) run(ctx context.Context, p SwapParams, sqrtPriceLimitX96 *big.Int) error {
	exactInput := p.AmountSpecified.Sign() >= 0

	for state.amountSpecifiedRemaining.Sign() != 0 && state.sqrtPriceX96.Cmp(sqrtPriceLimitX96) != 0 {
		state.sqrtPriceStartX96.Set(state.sqrtPriceX96)

		tickNext, initialized, err := p.TickDataProvider.NextInitializedTickWithinOneWord(ctx, state.tick, p.ZeroForOne, p.TickSpacing)
		noTickData := errors.Is(err, ticklist.ErrNoTickData)
		if noTickData {
			// Without tick data the swap may only move inside the current spacing range.
			if tickNext, err = rangeBoundary(state.tick, p.ZeroForOne, p.TickSpacing); err != nil {
				return err
			}
		} else if err != nil {
			return fmt.Errorf("next initialized tick from %d: %w", state.tick, err)
		}
		tickNext = max(tickmath.MIN_TICK, min(tickmath.MAX_TICK, tickNext))

		sqrtPriceNextX96, err := tickmath.GetSqrtRatioAtTick(tickNext)
		if err != nil {
			return err
		}

		if (p.ZeroForOne && sqrtPriceNextX96.Cmp(sqrtPriceLimitX96) < 0) ||
			(!p.ZeroForOne && sqrtPriceNextX96.Cmp(sqrtPriceLimitX96) > 0) {
			state.targetPrice.Set(sqrtPriceLimitX96)
		} else {
			state.targetPrice.Set(sqrtPriceNextX96)
		}

		step, err := swapmath.ComputeSwapStep(
			state.sqrtPriceX96,
			state.targetPrice,
			state.liquidity,
			state.amountSpecifiedRemaining,
			p.FeePips,
		)
		if err != nil {
			return err
		}
		state.sqrtPriceX96.Set(step.SqrtRatioNextX96)

		state.consumed.Add(step.AmountIn, step.FeeAmount)
		if exactInput {
			state.amountSpecifiedRemaining.Sub(state.amountSpecifiedRemaining, state.consumed)
			state.amountCalculated.Sub(state.amountCalculated, step.AmountOut)
		} else {
			state.amountSpecifiedRemaining.Add(state.amountSpecifiedRemaining, step.AmountOut)
			state.amountCalculated.Add(state.amountCalculated, state.consumed)
		}

		if state.sqrtPriceX96.Cmp(sqrtPriceNextX96) == 0 {
			if noTickData {
				return fmt.Errorf("cross tick %d: %w", tickNext, ticklist.ErrNoTickData)
			}
			// crossed into the next range
			if initialized {
				tick, err := p.TickDataProvider.GetTick(ctx, tickNext)
				if err != nil {
					return fmt.Errorf("get tick %d: %w", tickNext, err)
				}
				liquidityNet := tick.LiquidityNet
				if p.ZeroForOne {
					liquidityNet = new(big.Int).Neg(liquidityNet)
				}
				liquidity, err := liquiditymath.AddDelta(state.liquidity, liquidityNet)
				if err != nil {
					return fmt.Errorf("cross tick %d: %w", tickNext, err)
				}
				state.liquidity.Set(liquidity)
			}

			if p.ZeroForOne {
				state.tick = tickNext - 1
			} else {
				state.tick = tickNext
			}
		} else if state.sqrtPriceX96.Cmp(state.sqrtPriceStartX96) != 0 {
			// the price moved but stopped inside the range
			state.tick, err = tickmath.GetTickAtSqrtRatio(state.sqrtPriceX96)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// rangeBoundary is the spacing-aligned tick the price meets first when leaving the
// range that holds tick. No initialized tick can lie strictly inside that range.
func rangeBoundary(tick int, lte bool, tickSpacing int) (int, error) {
	if tickSpacing <= 0 {
		return 0, fmt.Errorf("%w: %d", ticklist.ErrTickSpacing, tickSpacing)
	}
	compressed := tick / tickSpacing
	if tick < 0 && tick%tickSpacing != 0 {
		compressed--
	}
	if lte {
		return compressed * tickSpacing, nil
	}
	return (compressed + 1) * tickSpacing, nil
}
