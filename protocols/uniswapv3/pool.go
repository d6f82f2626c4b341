package uniswapv3

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/fullmath"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/swapmath"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/ticklist"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/tickmath"
	"github.com/ethereum/go-ethereum/common"
)

// Pool is an immutable snapshot of a pool's state. Quotes return a new Pool.
type Pool struct {
	Token0           *Token
	Token1           *Token
	Fee              uint32
	SqrtRatioX96     *big.Int
	Liquidity        *big.Int
	TickCurrent      int
	TickSpacing      int
	TickDataProvider ticklist.TickDataProvider

	address common.Address

	token0PriceOnce sync.Once
	token0Price     *Price
	token1PriceOnce sync.Once
	token1Price     *Price
}

type poolOptions struct {
	tickSpacing  int
	address      *common.Address
	factory      common.Address
	initCodeHash common.Hash
}

// PoolOption customizes NewPool.
type PoolOption func(*poolOptions)

// WithTickSpacing overrides the tick spacing implied by the fee tier.
func WithTickSpacing(tickSpacing int) PoolOption {
	return func(o *poolOptions) {
		o.tickSpacing = tickSpacing
	}
}

// WithAddress sets the pool address instead of deriving it.
func WithAddress(address common.Address) PoolOption {
	return func(o *poolOptions) {
		o.address = &address
	}
}

// WithFactory derives the pool address from another deployment.
func WithFactory(factory common.Address, initCodeHash common.Hash) PoolOption {
	return func(o *poolOptions) {
		o.factory = factory
		o.initCodeHash = initCodeHash
	}
}

// NewPool validates the pool state. A nil provider means the pool has no tick data,
// which limits it to quotes that stay between the spacing-aligned ticks around
// tickCurrent; leaving that range fails with ticklist.ErrNoTickData.
func NewPool(
	tokenA, tokenB *Token,
	fee uint32,
	sqrtRatioX96, liquidity *big.Int,
	tickCurrent int,
	provider ticklist.TickDataProvider,
	opts ...PoolOption,
) (*Pool, error) {
	if fee >= swapmath.FeeDenominator {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFee, fee)
	}

	o := poolOptions{
		tickSpacing:  TickSpacings[fee],
		factory:      FactoryAddress,
		initCodeHash: PoolInitCodeHash,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tickSpacing <= 0 {
		return nil, fmt.Errorf("%w: no tick spacing for fee %d", ErrTickSpacing, fee)
	}

	token0, token1, err := sortTokens(tokenA, tokenB)
	if err != nil {
		return nil, err
	}
	if liquidity.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegativeLiquidity, liquidity)
	}
	if err := checkPriceBounds(sqrtRatioX96, tickCurrent); err != nil {
		return nil, err
	}

	var address common.Address
	if o.address != nil {
		address = *o.address
	} else {
		address, err = ComputePoolAddress(o.factory, token0, token1, fee, o.initCodeHash)
		if err != nil {
			return nil, err
		}
	}

	switch lp := provider.(type) {
	case nil:
		provider = ticklist.NoTickDataProvider{}
	case *ticklist.ListProvider:
		if lp.TickSpacing() != o.tickSpacing {
			return nil, fmt.Errorf("%w: ticks validated for spacing %d, pool uses %d", ErrTickSpacing, lp.TickSpacing(), o.tickSpacing)
		}
	}

	return &Pool{
		Token0:           token0,
		Token1:           token1,
		Fee:              fee,
		SqrtRatioX96:     new(big.Int).Set(sqrtRatioX96),
		Liquidity:        new(big.Int).Set(liquidity),
		TickCurrent:      tickCurrent,
		TickSpacing:      o.tickSpacing,
		TickDataProvider: provider,
		address:          address,
	}, nil
}

// checkPriceBounds requires the price to lie within [tick, tick+1].
func checkPriceBounds(sqrtRatioX96 *big.Int, tick int) error {
	lower, err := tickmath.GetSqrtRatioAtTick(tick)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPriceBounds, err)
	}
	upper, err := tickmath.GetSqrtRatioAtTick(tick + 1)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPriceBounds, err)
	}
	if sqrtRatioX96.Cmp(lower) < 0 || sqrtRatioX96.Cmp(upper) > 0 {
		return fmt.Errorf("%w: %s at tick %d", ErrPriceBounds, sqrtRatioX96, tick)
	}
	return nil
}

func (p *Pool) Address() common.Address { return p.address }

func (p *Pool) ChainID() uint64 { return p.Token0.ChainID }

// InvolvesToken reports whether token is one of the pool's two tokens.
func (p *Pool) InvolvesToken(token *Token) bool {
	return token.Equal(p.Token0) || token.Equal(p.Token1)
}

// Token0Price is the current mid price of token0 in terms of token1.
func (p *Pool) Token0Price() *Price {
	p.token0PriceOnce.Do(func() {
		p.token0Price = NewPrice(p.Token0, p.Token1, fullmath.Q192, new(big.Int).Mul(p.SqrtRatioX96, p.SqrtRatioX96))
	})
	return p.token0Price
}

// Token1Price is the current mid price of token1 in terms of token0.
func (p *Pool) Token1Price() *Price {
	p.token1PriceOnce.Do(func() {
		p.token1Price = NewPrice(p.Token1, p.Token0, new(big.Int).Mul(p.SqrtRatioX96, p.SqrtRatioX96), fullmath.Q192)
	})
	return p.token1Price
}

// PriceOf returns the price of token in terms of the other token.
func (p *Pool) PriceOf(token *Token) (*Price, error) {
	switch {
	case token.Equal(p.Token0):
		return p.Token0Price(), nil
	case token.Equal(p.Token1):
		return p.Token1Price(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrTokenNotInPool, token)
	}
}

// GetOutputAmount quotes an exact input. sqrtPriceLimitX96 may be nil.
func (p *Pool) GetOutputAmount(ctx context.Context, inputAmount *CurrencyAmount, sqrtPriceLimitX96 *big.Int) (*CurrencyAmount, *Pool, error) {
	if !p.InvolvesToken(inputAmount.Currency) {
		return nil, nil, fmt.Errorf("%w: %s", ErrTokenNotInPool, inputAmount.Currency)
	}
	if err := inputAmount.Validate(); err != nil {
		return nil, nil, err
	}
	amountIn := inputAmount.Quotient()
	if amountIn.Sign() <= 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrInsufficientInputAmount, amountIn)
	}

	zeroForOne := inputAmount.Currency.Equal(p.Token0)
	res, err := p.swap(ctx, zeroForOne, amountIn, sqrtPriceLimitX96)
	if err != nil {
		return nil, nil, err
	}

	amountOut := new(big.Int).Neg(res.AmountCalculated)
	if amountOut.Sign() <= 0 {
		return nil, nil, fmt.Errorf("%w: %s %s yields nothing", ErrInsufficientInputAmount, amountIn, inputAmount.Currency)
	}

	outputToken := p.Token0
	if zeroForOne {
		outputToken = p.Token1
	}
	return FromRawAmount(outputToken, amountOut), p.withState(res), nil
}

// GetInputAmount quotes an exact output. sqrtPriceLimitX96 may be nil, in which case an
// output the pool cannot fill fails with ErrInsufficientReserves. When a limit is given
// and the price reaches it first, the quote is a partial fill: the returned input buys
// only the output available up to the limit, as GetOutputAmount does for inputs.
func (p *Pool) GetInputAmount(ctx context.Context, outputAmount *CurrencyAmount, sqrtPriceLimitX96 *big.Int) (*CurrencyAmount, *Pool, error) {
	if !p.InvolvesToken(outputAmount.Currency) {
		return nil, nil, fmt.Errorf("%w: %s", ErrTokenNotInPool, outputAmount.Currency)
	}
	if err := outputAmount.Validate(); err != nil {
		return nil, nil, err
	}
	amountOut := outputAmount.Quotient()
	if amountOut.Sign() <= 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrInsufficientReserves, amountOut)
	}

	zeroForOne := outputAmount.Currency.Equal(p.Token1)
	res, err := p.swap(ctx, zeroForOne, new(big.Int).Neg(amountOut), sqrtPriceLimitX96)
	if err != nil {
		return nil, nil, err
	}
	if res.AmountSpecifiedRemaining.Sign() != 0 && sqrtPriceLimitX96 == nil {
		return nil, nil, fmt.Errorf("%w: %s %s short of %s", ErrInsufficientReserves,
			new(big.Int).Neg(res.AmountSpecifiedRemaining), outputAmount.Currency, amountOut)
	}

	inputToken := p.Token1
	if zeroForOne {
		inputToken = p.Token0
	}
	return FromRawAmount(inputToken, res.AmountCalculated), p.withState(res), nil
}

func (p *Pool) swap(ctx context.Context, zeroForOne bool, amountSpecified, sqrtPriceLimitX96 *big.Int) (calculator.SwapResult, error) {
	return calculator.Swap(ctx, calculator.SwapParams{
		FeePips:           p.Fee,
		SqrtPriceX96:      p.SqrtRatioX96,
		TickCurrent:       p.TickCurrent,
		Liquidity:         p.Liquidity,
		TickSpacing:       p.TickSpacing,
		TickDataProvider:  p.TickDataProvider,
		ZeroForOne:        zeroForOne,
		AmountSpecified:   amountSpecified,
		SqrtPriceLimitX96: sqrtPriceLimitX96,
	})
}

// withState returns a copy of p moved to the state after a swap.
func (p *Pool) withState(res calculator.SwapResult) *Pool {
	return &Pool{
		Token0:           p.Token0,
		Token1:           p.Token1,
		Fee:              p.Fee,
		SqrtRatioX96:     res.SqrtPriceX96,
		Liquidity:        res.Liquidity,
		TickCurrent:      res.TickCurrent,
		TickSpacing:      p.TickSpacing,
		TickDataProvider: p.TickDataProvider,
		address:          p.address,
	}
}

func (p *Pool) String() string {
	return fmt.Sprintf("%s/%s %d", p.Token0, p.Token1, p.Fee)
}

// atPrice returns an empty pool with the same identity at another price.
func (p *Pool) atPrice(sqrtRatioX96 *big.Int) (*Pool, error) {
	tick, err := tickmath.GetTickAtSqrtRatio(sqrtRatioX96)
	if err != nil {
		return nil, err
	}
	return NewPool(p.Token0, p.Token1, p.Fee, sqrtRatioX96, new(big.Int), tick, nil,
		WithTickSpacing(p.TickSpacing), WithAddress(p.address))
}
