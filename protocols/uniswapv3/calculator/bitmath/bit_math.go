package bitmath

import (
	"errors"
	"math/big"
)

var (
	// ErrInputIsZero is returned when a function requires a positive input but receives zero or less.
	ErrInputIsZero = errors.New("input must be greater than zero")
	// ErrInputIsNil is returned when a function receives a nil pointer.
	ErrInputIsNil = errors.New("input cannot be nil")
	// ErrInputTooLarge is returned when the input does not fit in 256 bits.
	ErrInputTooLarge = errors.New("input exceeds uint256")

	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	// powersOfTwo holds the thresholds 2^128, 2^64, ..., 2^1 in descending order.
	powersOfTwo = func() [8]struct {
		power     uint
		threshold *big.Int
	} {
		var out [8]struct {
			power     uint
			threshold *big.Int
		}
		for i, p := range []uint{128, 64, 32, 16, 8, 4, 2, 1} {
			out[i].power = p
			out[i].threshold = new(big.Int).Lsh(big.NewInt(1), p)
		}
		return out
	}()
)

// MostSignificantBit returns the index of the most significant bit of the number,
// where the least significant bit is at index 0.
//
// The result satisfies x >= 2**msb(x) and x < 2**(msb(x)+1). The search tests the
// thresholds 2^128 down to 2^1 and shifts x right whenever it clears one.
func MostSignificantBit(x *big.Int) (uint, error) {
	if x == nil {
		return 0, ErrInputIsNil
	}
	if x.Sign() <= 0 {
		return 0, ErrInputIsZero
	}
	if x.Cmp(maxUint256) > 0 {
		return 0, ErrInputTooLarge
	}

	v := new(big.Int).Set(x)
	var msb uint
	for _, p := range powersOfTwo {
		if v.Cmp(p.threshold) >= 0 {
			v.Rsh(v, p.power)
			msb += p.power
		}
	}
	return msb, nil
}
