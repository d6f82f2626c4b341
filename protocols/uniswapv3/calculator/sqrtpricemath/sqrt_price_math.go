package sqrtpricemath

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/fullmath"
)

var (
	// Resolution is the number of fractional bits in the Q96 format.
	Resolution = uint(96)

	ErrLiquidityZero   = errors.New("liquidity must be greater than zero")
	ErrSqrtPriceZero   = errors.New("sqrt price must be greater than zero")
	ErrProductOverflow = errors.New("product overflow or denominator underflow")
	ErrPriceUnderflow  = errors.New("sqrt price must be greater than quotient")

	one = big.NewInt(1)
)

// sqrtPriceMath holds reusable big.Int scratch values.
// Instances are managed by a sync.Pool for safe concurrent use.
type sqrtPriceMath struct {
	product     *big.Int
	numerator1  *big.Int
	numerator2  *big.Int
	denominator *big.Int
	quotient    *big.Int
	term        *big.Int
	rem         *big.Int
}

var pool = sync.Pool{
	New: func() any {
		return &sqrtPriceMath{
			product:     new(big.Int),
			numerator1:  new(big.Int),
			numerator2:  new(big.Int),
			denominator: new(big.Int),
			quotient:    new(big.Int),
			term:        new(big.Int),
			rem:         new(big.Int),
		}
	},
}

// mulDiv writes floor(a * b / c) into dest.
func (s *sqrtPriceMath) mulDiv(dest, a, b, c *big.Int) {
	s.product.Mul(a, b)
	dest.Div(s.product, c)
}

// mulDivRoundingUp writes ceil(a * b / c) into dest.
func (s *sqrtPriceMath) mulDivRoundingUp(dest, a, b, c *big.Int) {
	s.product.Mul(a, b)
	dest.Div(s.product, c)
	if s.rem.Rem(s.product, c).Sign() > 0 {
		dest.Add(dest, one)
	}
}

// divRoundingUp writes ceil(a / b) into dest.
func (s *sqrtPriceMath) divRoundingUp(dest, a, b *big.Int) {
	dest.Div(a, b)
	if s.rem.Rem(a, b).Sign() > 0 {
		dest.Add(dest, one)
	}
}

// GetNextSqrtPriceFromAmount0RoundingUp returns the next sqrt price given a delta of token0,
// always rounding up so the price moves far enough on input and not too far on output.
func GetNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amount *big.Int, add bool) (*big.Int, error) {
	s := pool.Get().(*sqrtPriceMath)
	defer pool.Put(s)

	dest := new(big.Int)
	if err := s.nextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX96, liquidity, amount, add); err != nil {
		return nil, err
	}
	return dest, nil
}

// GetNextSqrtPriceFromAmount1RoundingDown returns the next sqrt price given a delta of token1,
// always rounding down.
func GetNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amount *big.Int, add bool) (*big.Int, error) {
	s := pool.Get().(*sqrtPriceMath)
	defer pool.Put(s)

	dest := new(big.Int)
	if err := s.nextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX96, liquidity, amount, add); err != nil {
		return nil, err
	}
	return dest, nil
}

// GetNextSqrtPriceFromInput returns the next sqrt price after adding amountIn of the input token.
func GetNextSqrtPriceFromInput(sqrtPX96, liquidity, amountIn *big.Int, zeroForOne bool) (*big.Int, error) {
	if sqrtPX96.Sign() <= 0 {
		return nil, ErrSqrtPriceZero
	}
	if liquidity.Sign() <= 0 {
		return nil, ErrLiquidityZero
	}

	if zeroForOne {
		return GetNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountIn, true)
	}
	return GetNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountIn, true)
}

// GetNextSqrtPriceFromOutput returns the next sqrt price after removing amountOut of the output token.
func GetNextSqrtPriceFromOutput(sqrtPX96, liquidity, amountOut *big.Int, zeroForOne bool) (*big.Int, error) {
	if sqrtPX96.Sign() <= 0 {
		return nil, ErrSqrtPriceZero
	}
	if liquidity.Sign() <= 0 {
		return nil, ErrLiquidityZero
	}

	if zeroForOne {
		return GetNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountOut, false)
	}
	return GetNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountOut, false)
}

// GetAmount0Delta returns the amount of token0 between two prices for the given liquidity.
func GetAmount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) (*big.Int, error) {
	s := pool.Get().(*sqrtPriceMath)
	defer pool.Put(s)

	dest := new(big.Int)
	if err := s.amount0Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity, roundUp); err != nil {
		return nil, err
	}
	return dest, nil
}

// GetAmount1Delta returns the amount of token1 between two prices for the given liquidity.
func GetAmount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) *big.Int {
	s := pool.Get().(*sqrtPriceMath)
	defer pool.Put(s)

	dest := new(big.Int)
	s.amount1Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity, roundUp)
	return dest
}

func (s *sqrtPriceMath) nextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX96, liquidity, amount *big.Int, add bool) error {
	if amount.Sign() == 0 {
		dest.Set(sqrtPX96)
		return nil
	}

	s.numerator1.Lsh(liquidity, Resolution)

	// The product wraps at 256 bits; a wrapped product fails the division check below.
	s.product.Set(fullmath.MultiplyIn256(amount, sqrtPX96))

	if add {
		if s.quotient.Div(s.product, amount).Cmp(sqrtPX96) == 0 {
			s.denominator.Set(fullmath.AddIn256(s.numerator1, s.product))
			if s.denominator.Cmp(s.numerator1) >= 0 {
				s.mulDivRoundingUp(dest, s.numerator1, sqrtPX96, s.denominator)
				return nil
			}
		}
		// numerator1 / (numerator1 / sqrtP + amount)
		s.denominator.Div(s.numerator1, sqrtPX96)
		s.denominator.Add(s.denominator, amount)
		s.divRoundingUp(dest, s.numerator1, s.denominator)
		return nil
	}

	if s.quotient.Div(s.product, amount).Cmp(sqrtPX96) != 0 || s.numerator1.Cmp(s.product) <= 0 {
		return ErrProductOverflow
	}
	s.denominator.Sub(s.numerator1, s.product)
	s.mulDivRoundingUp(dest, s.numerator1, sqrtPX96, s.denominator)
	return nil
}

func (s *sqrtPriceMath) nextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX96, liquidity, amount *big.Int, add bool) error {
	if add {
		if amount.Cmp(fullmath.MaxUint160) <= 0 {
			s.quotient.Lsh(amount, Resolution)
			s.quotient.Div(s.quotient, liquidity)
		} else {
			s.mulDiv(s.quotient, amount, fullmath.Q96, liquidity)
		}
		dest.Add(sqrtPX96, s.quotient)
		return nil
	}

	s.mulDivRoundingUp(s.quotient, amount, fullmath.Q96, liquidity)
	if sqrtPX96.Cmp(s.quotient) <= 0 {
		return fmt.Errorf("%w: sqrtP %s, quotient %s", ErrPriceUnderflow, sqrtPX96, s.quotient)
	}
	dest.Sub(sqrtPX96, s.quotient)
	return nil
}

func (s *sqrtPriceMath) amount0Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) error {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	if sqrtRatioAX96.Sign() <= 0 {
		return ErrSqrtPriceZero
	}

	s.numerator1.Lsh(liquidity, Resolution)
	s.numerator2.Sub(sqrtRatioBX96, sqrtRatioAX96)

	if roundUp {
		s.mulDivRoundingUp(s.term, s.numerator1, s.numerator2, sqrtRatioBX96)
		s.divRoundingUp(dest, s.term, sqrtRatioAX96)
	} else {
		s.mulDiv(s.term, s.numerator1, s.numerator2, sqrtRatioBX96)
		dest.Div(s.term, sqrtRatioAX96)
	}
	return nil
}

func (s *sqrtPriceMath) amount1Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}

	s.numerator1.Sub(sqrtRatioBX96, sqrtRatioAX96)
	if roundUp {
		s.mulDivRoundingUp(dest, liquidity, s.numerator1, fullmath.Q96)
	} else {
		s.mulDiv(dest, liquidity, s.numerator1, fullmath.Q96)
	}
}
