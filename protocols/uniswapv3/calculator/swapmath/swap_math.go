package swapmath

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/fullmath"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/sqrtpricemath"
)

// FeeDenominator is 100% expressed in pips (hundredths of a basis point).
const FeeDenominator = 1_000_000

var (
	ErrInvalidFee = errors.New("fee must be below 1,000,000 pips")

	feeDenominator = big.NewInt(FeeDenominator)
)

// Step is the outcome of a single swap step within one price range.
type Step struct {
	SqrtRatioNextX96 *big.Int
	AmountIn         *big.Int
	AmountOut        *big.Int
	FeeAmount        *big.Int
}

// swapMath holds reusable intermediates for a single ComputeSwapStep call.
// Instances are managed by a sync.Pool for safe concurrent use.
type swapMath struct {
	amountRemainingLessFee *big.Int
	amountRemainingAbs     *big.Int
	feeComplement          *big.Int
	feePips                *big.Int
}

var swapMathPool = sync.Pool{
	New: func() any {
		return &swapMath{
			amountRemainingLessFee: new(big.Int),
			amountRemainingAbs:     new(big.Int),
			feeComplement:          new(big.Int),
			feePips:                new(big.Int),
		}
	},
}

// ComputeSwapStep calculates the result of swapping amountRemaining within a single price range.
// A non-negative amountRemaining is an exact input, a negative one an exact output.
// The direction is derived from the price ordering: the price falls (token0 in) when
// sqrtRatioCurrentX96 >= sqrtRatioTargetX96.
func ComputeSwapStep(
	sqrtRatioCurrentX96 *big.Int,
	sqrtRatioTargetX96 *big.Int,
	liquidity *big.Int,
	amountRemaining *big.Int,
	feePips uint32,
) (Step, error) {
	if feePips >= FeeDenominator {
		return Step{}, fmt.Errorf("%w: %d", ErrInvalidFee, feePips)
	}

	s := swapMathPool.Get().(*swapMath)
	defer swapMathPool.Put(s)

	return s.computeSwapStep(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, amountRemaining, feePips)
}

func (s *swapMath) computeSwapStep(
	sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, amountRemaining *big.Int, feePips uint32,
) (Step, error) {
	zeroForOne := sqrtRatioCurrentX96.Cmp(sqrtRatioTargetX96) >= 0
	exactIn := amountRemaining.Sign() >= 0

	s.feePips.SetUint64(uint64(feePips))
	s.feeComplement.Sub(feeDenominator, s.feePips)

	var (
		step = Step{}
		err  error
	)

	if exactIn {
		s.amountRemainingLessFee.Set(fullmath.MulDiv(amountRemaining, s.feeComplement, feeDenominator))

		if zeroForOne {
			step.AmountIn, err = sqrtpricemath.GetAmount0Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, true)
			if err != nil {
				return Step{}, err
			}
		} else {
			step.AmountIn = sqrtpricemath.GetAmount1Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, true)
		}

		if s.amountRemainingLessFee.Cmp(step.AmountIn) >= 0 {
			step.SqrtRatioNextX96 = new(big.Int).Set(sqrtRatioTargetX96)
		} else {
			step.SqrtRatioNextX96, err = sqrtpricemath.GetNextSqrtPriceFromInput(sqrtRatioCurrentX96, liquidity, s.amountRemainingLessFee, zeroForOne)
			if err != nil {
				return Step{}, err
			}
		}
	} else {
		s.amountRemainingAbs.Neg(amountRemaining)

		if zeroForOne {
			step.AmountOut = sqrtpricemath.GetAmount1Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, false)
		} else {
			step.AmountOut, err = sqrtpricemath.GetAmount0Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, false)
			if err != nil {
				return Step{}, err
			}
		}

		if s.amountRemainingAbs.Cmp(step.AmountOut) >= 0 {
			step.SqrtRatioNextX96 = new(big.Int).Set(sqrtRatioTargetX96)
		} else {
			step.SqrtRatioNextX96, err = sqrtpricemath.GetNextSqrtPriceFromOutput(sqrtRatioCurrentX96, liquidity, s.amountRemainingAbs, zeroForOne)
			if err != nil {
				return Step{}, err
			}
		}
	}

	reachedTarget := sqrtRatioTargetX96.Cmp(step.SqrtRatioNextX96) == 0

	// Recompute the amounts against the price actually reached.
	if zeroForOne {
		if !(reachedTarget && exactIn) {
			step.AmountIn, err = sqrtpricemath.GetAmount0Delta(step.SqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, true)
			if err != nil {
				return Step{}, err
			}
		}
		if !(reachedTarget && !exactIn) {
			step.AmountOut = sqrtpricemath.GetAmount1Delta(step.SqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, false)
		}
	} else {
		if !(reachedTarget && exactIn) {
			step.AmountIn = sqrtpricemath.GetAmount1Delta(sqrtRatioCurrentX96, step.SqrtRatioNextX96, liquidity, true)
		}
		if !(reachedTarget && !exactIn) {
			step.AmountOut, err = sqrtpricemath.GetAmount0Delta(sqrtRatioCurrentX96, step.SqrtRatioNextX96, liquidity, false)
			if err != nil {
				return Step{}, err
			}
		}
	}

	if !exactIn && step.AmountOut.Cmp(s.amountRemainingAbs) > 0 {
		step.AmountOut = new(big.Int).Set(s.amountRemainingAbs)
	}

	if exactIn && step.SqrtRatioNextX96.Cmp(sqrtRatioTargetX96) != 0 {
		// The target was not reached, so the whole remainder is spent and the dust goes to the fee.
		step.FeeAmount = new(big.Int).Sub(amountRemaining, step.AmountIn)
	} else {
		step.FeeAmount = fullmath.MulDivRoundingUp(step.AmountIn, s.feePips, s.feeComplement)
	}

	return step, nil
}
