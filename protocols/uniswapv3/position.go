package uniswapv3

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/fullmath"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/liquiditymath"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/sqrtpricemath"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/tickmath"
)

// Position is liquidity provided to a pool over [TickLower, TickUpper).
type Position struct {
	Pool      *Pool
	TickLower int
	TickUpper int
	Liquidity *big.Int

	sqrtRatioLowerX96 *big.Int
	sqrtRatioUpperX96 *big.Int

	amount0Once sync.Once
	amount0     *CurrencyAmount
	amount0Err  error

	amount1Once sync.Once
	amount1     *CurrencyAmount
	amount1Err  error

	mintOnce    sync.Once
	mintAmount0 *big.Int
	mintAmount1 *big.Int
	mintErr     error
}

// MintAmounts are the token amounts required to mint a position, rounded up.
type MintAmounts struct {
	Amount0 *big.Int
	Amount1 *big.Int
}

func NewPosition(pool *Pool, liquidity *big.Int, tickLower, tickUpper int) (*Position, error) {
	if tickLower >= tickUpper {
		return nil, fmt.Errorf("%w: %d >= %d", ErrTickOrder, tickLower, tickUpper)
	}
	if tickLower < tickmath.MIN_TICK || tickLower%pool.TickSpacing != 0 {
		return nil, fmt.Errorf("%w: %d with spacing %d", ErrTickLower, tickLower, pool.TickSpacing)
	}
	if tickUpper > tickmath.MAX_TICK || tickUpper%pool.TickSpacing != 0 {
		return nil, fmt.Errorf("%w: %d with spacing %d", ErrTickUpper, tickUpper, pool.TickSpacing)
	}
	if liquidity.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegativeLiquidity, liquidity)
	}

	lower, err := tickmath.GetSqrtRatioAtTick(tickLower)
	if err != nil {
		return nil, err
	}
	upper, err := tickmath.GetSqrtRatioAtTick(tickUpper)
	if err != nil {
		return nil, err
	}

	return &Position{
		Pool:              pool,
		TickLower:         tickLower,
		TickUpper:         tickUpper,
		Liquidity:         new(big.Int).Set(liquidity),
		sqrtRatioLowerX96: lower,
		sqrtRatioUpperX96: upper,
	}, nil
}

// TokenPriceLower is the price of token0 at the lower tick.
func (p *Position) TokenPriceLower() (*Price, error) {
	return TickToPrice(p.Pool.Token0, p.Pool.Token1, p.TickLower)
}

// TokenPriceUpper is the price of token0 at the upper tick.
func (p *Position) TokenPriceUpper() (*Price, error) {
	return TickToPrice(p.Pool.Token0, p.Pool.Token1, p.TickUpper)
}

// Amount0 is the amount of token0 the position is worth at the pool's current price.
func (p *Position) Amount0() (*CurrencyAmount, error) {
	p.amount0Once.Do(func() {
		amount, err := p.token0Delta(false)
		if err != nil {
			p.amount0Err = err
			return
		}
		p.amount0 = FromRawAmount(p.Pool.Token0, amount)
	})
	return p.amount0, p.amount0Err
}

// Amount1 is the amount of token1 the position is worth at the pool's current price.
func (p *Position) Amount1() (*CurrencyAmount, error) {
	p.amount1Once.Do(func() {
		amount, err := p.token1Delta(false)
		if err != nil {
			p.amount1Err = err
			return
		}
		p.amount1 = FromRawAmount(p.Pool.Token1, amount)
	})
	return p.amount1, p.amount1Err
}

// MintAmounts returns the minimum amounts that must be sent to mint the position's liquidity.
func (p *Position) MintAmounts() (MintAmounts, error) {
	p.mintOnce.Do(func() {
		p.mintAmount0, p.mintErr = p.token0Delta(true)
		if p.mintErr != nil {
			return
		}
		p.mintAmount1, p.mintErr = p.token1Delta(true)
	})
	if p.mintErr != nil {
		return MintAmounts{}, p.mintErr
	}
	return MintAmounts{Amount0: p.mintAmount0, Amount1: p.mintAmount1}, nil
}

func (p *Position) token0Delta(roundUp bool) (*big.Int, error) {
	switch {
	case p.Pool.TickCurrent < p.TickLower:
		return sqrtpricemath.GetAmount0Delta(p.sqrtRatioLowerX96, p.sqrtRatioUpperX96, p.Liquidity, roundUp)
	case p.Pool.TickCurrent < p.TickUpper:
		return sqrtpricemath.GetAmount0Delta(p.Pool.SqrtRatioX96, p.sqrtRatioUpperX96, p.Liquidity, roundUp)
	default:
		return new(big.Int), nil
	}
}

func (p *Position) token1Delta(roundUp bool) (*big.Int, error) {
	switch {
	case p.Pool.TickCurrent < p.TickLower:
		return new(big.Int), nil
	case p.Pool.TickCurrent < p.TickUpper:
		return sqrtpricemath.GetAmount1Delta(p.sqrtRatioLowerX96, p.Pool.SqrtRatioX96, p.Liquidity, roundUp), nil
	default:
		return sqrtpricemath.GetAmount1Delta(p.sqrtRatioLowerX96, p.sqrtRatioUpperX96, p.Liquidity, roundUp), nil
	}
}

// RatiosAfterSlippage returns the pool price moved down and up by the tolerance,
// clamped to the open interval (MIN_SQRT_RATIO, MAX_SQRT_RATIO).
func (p *Position) RatiosAfterSlippage(slippageTolerance *Percent) (lower, upper *big.Int, err error) {
	if slippageTolerance.Numerator.Sign() < 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrSlippage, slippageTolerance)
	}

	one := NewFraction(big.NewInt(1), nil)
	price := p.Pool.Token0Price().Fraction
	priceLower := price.Multiply(one.Subtract(slippageTolerance.Fraction))
	priceUpper := price.Multiply(one.Add(slippageTolerance.Fraction))

	if priceLower.Numerator.Sign() <= 0 {
		lower = new(big.Int)
	} else if lower, err = EncodeSqrtRatioX96(priceLower.Numerator, priceLower.Denominator); err != nil {
		return nil, nil, err
	}
	if lower.Cmp(tickmath.MIN_SQRT_RATIO) <= 0 {
		lower = new(big.Int).Add(tickmath.MIN_SQRT_RATIO, big.NewInt(1))
	}

	upper, err = EncodeSqrtRatioX96(priceUpper.Numerator, priceUpper.Denominator)
	if err != nil {
		return nil, nil, err
	}
	if upper.Cmp(tickmath.MAX_SQRT_RATIO) >= 0 {
		upper = new(big.Int).Sub(tickmath.MAX_SQRT_RATIO, big.NewInt(1))
	}
	return lower, upper, nil
}

// slippagePools returns empty pools at the lower and upper slippage prices.
func (p *Position) slippagePools(slippageTolerance *Percent) (poolLower, poolUpper *Pool, err error) {
	lower, upper, err := p.RatiosAfterSlippage(slippageTolerance)
	if err != nil {
		return nil, nil, err
	}
	if poolLower, err = p.Pool.atPrice(lower); err != nil {
		return nil, nil, err
	}
	if poolUpper, err = p.Pool.atPrice(upper); err != nil {
		return nil, nil, err
	}
	return poolLower, poolUpper, nil
}

// MintAmountsWithSlippage returns the amounts to send so the mint succeeds
// anywhere within the slippage tolerance of the current price.
func (p *Position) MintAmountsWithSlippage(slippageTolerance *Percent) (MintAmounts, error) {
	poolLower, poolUpper, err := p.slippagePools(slippageTolerance)
	if err != nil {
		return MintAmounts{}, err
	}

	mint, err := p.MintAmounts()
	if err != nil {
		return MintAmounts{}, err
	}
	created, err := FromAmounts(p.Pool, p.TickLower, p.TickUpper, mint.Amount0, mint.Amount1, false)
	if err != nil {
		return MintAmounts{}, err
	}

	atUpper, err := NewPosition(poolUpper, created.Liquidity, p.TickLower, p.TickUpper)
	if err != nil {
		return MintAmounts{}, err
	}
	atLower, err := NewPosition(poolLower, created.Liquidity, p.TickLower, p.TickUpper)
	if err != nil {
		return MintAmounts{}, err
	}

	upperMint, err := atUpper.MintAmounts()
	if err != nil {
		return MintAmounts{}, err
	}
	lowerMint, err := atLower.MintAmounts()
	if err != nil {
		return MintAmounts{}, err
	}
	return MintAmounts{Amount0: upperMint.Amount0, Amount1: lowerMint.Amount1}, nil
}

// BurnAmountsWithSlippage returns the minimum amounts that burning the whole
// position yields anywhere within the slippage tolerance of the current price.
func (p *Position) BurnAmountsWithSlippage(slippageTolerance *Percent) (amount0, amount1 *big.Int, err error) {
	poolLower, poolUpper, err := p.slippagePools(slippageTolerance)
	if err != nil {
		return nil, nil, err
	}

	atUpper, err := NewPosition(poolUpper, p.Liquidity, p.TickLower, p.TickUpper)
	if err != nil {
		return nil, nil, err
	}
	atLower, err := NewPosition(poolLower, p.Liquidity, p.TickLower, p.TickUpper)
	if err != nil {
		return nil, nil, err
	}

	a0, err := atUpper.Amount0()
	if err != nil {
		return nil, nil, err
	}
	a1, err := atLower.Amount1()
	if err != nil {
		return nil, nil, err
	}
	return a0.Quotient(), a1.Quotient(), nil
}

// FromAmounts returns the largest position that amount0 and amount1 can fund.
// useFullPrecision selects the exact amount0 formula over the cheaper one used on chain.
func FromAmounts(pool *Pool, tickLower, tickUpper int, amount0, amount1 *big.Int, useFullPrecision bool) (*Position, error) {
	sqrtRatioAX96, err := tickmath.GetSqrtRatioAtTick(tickLower)
	if err != nil {
		return nil, err
	}
	sqrtRatioBX96, err := tickmath.GetSqrtRatioAtTick(tickUpper)
	if err != nil {
		return nil, err
	}
	liquidity := liquiditymath.MaxLiquidityForAmounts(pool.SqrtRatioX96, sqrtRatioAX96, sqrtRatioBX96, amount0, amount1, useFullPrecision)
	return NewPosition(pool, liquidity, tickLower, tickUpper)
}

// FromAmount0 funds the position with amount0 and an unbounded amount of token1.
func FromAmount0(pool *Pool, tickLower, tickUpper int, amount0 *big.Int, useFullPrecision bool) (*Position, error) {
	return FromAmounts(pool, tickLower, tickUpper, amount0, fullmath.MaxUint256, useFullPrecision)
}

// FromAmount1 funds the position with amount1 and an unbounded amount of token0.
func FromAmount1(pool *Pool, tickLower, tickUpper int, amount1 *big.Int) (*Position, error) {
	return FromAmounts(pool, tickLower, tickUpper, fullmath.MaxUint256, amount1, true)
}
