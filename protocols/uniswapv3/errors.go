package uniswapv3

import "errors"

var (
	ErrInvalidFee       = errors.New("fee must be below 1,000,000 pips")
	ErrPriceBounds      = errors.New("sqrt price is not within the current tick")
	ErrTickSpacing      = errors.New("invalid tick spacing")
	ErrTokenNotInPool   = errors.New("token is not in the pool")
	ErrSameAddress      = errors.New("tokens have the same address")
	ErrChainIDs         = errors.New("tokens are on different chains")
	ErrCurrencyMismatch = errors.New("amounts are in different currencies")
	ErrZeroDenominator  = errors.New("denominator must not be zero")
	ErrAmountOverflow   = errors.New("amount exceeds uint256")

	ErrTickOrder         = errors.New("tickLower must be below tickUpper")
	ErrTickLower         = errors.New("tickLower is out of range or not on the tick spacing")
	ErrTickUpper         = errors.New("tickUpper is out of range or not on the tick spacing")
	ErrNegativeLiquidity = errors.New("liquidity must not be negative")

	ErrEmptyPools      = errors.New("route has no pools")
	ErrPath            = errors.New("pools do not form a path between the tokens")
	ErrPoolsDuplicated = errors.New("pool is used by more than one swap")
	ErrEmptyRoutes     = errors.New("trade has no routes")
	ErrInputCurrency   = errors.New("amount is not in the route input currency")
	ErrOutputCurrency  = errors.New("amount is not in the route output currency")
	ErrSlippage        = errors.New("slippage tolerance must not be negative")

	// ErrInsufficientInputAmount is returned when a swap produces no output.
	ErrInsufficientInputAmount = errors.New("insufficient input amount")
	// ErrInsufficientReserves is returned when an exact output cannot be filled.
	ErrInsufficientReserves = errors.New("insufficient reserves")
)
