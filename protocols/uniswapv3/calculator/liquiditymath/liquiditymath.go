package liquiditymath

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// maxUint128 is the maximum value for a uint128 (2^128 - 1).
	maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

	ErrLiquidityOverflow  = errors.New("liquidity overflow")
	ErrLiquidityUnderflow = errors.New("liquidity underflow")
)

// AddDelta adds a signed liquidity delta to an unsigned liquidity value,
// returning an error if the result leaves the uint128 range.
func AddDelta(x, y *big.Int) (*big.Int, error) {
	z := new(big.Int).Add(x, y)

	if z.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s + %s", ErrLiquidityUnderflow, x, y)
	}
	if z.Cmp(maxUint128) > 0 {
		return nil, fmt.Errorf("%w: %s + %s", ErrLiquidityOverflow, x, y)
	}

	return z, nil
}
