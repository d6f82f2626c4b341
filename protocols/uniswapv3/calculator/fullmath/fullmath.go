package fullmath

import (
	"errors"
	"math"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	// Q96 is 2^96, the UQ64.96 representation of 1.
	Q96 = new(big.Int).Lsh(big.NewInt(1), 96)
	// Q192 is 2^192, the square of Q96.
	Q192 = new(big.Int).Lsh(big.NewInt(1), 192)
	// MaxUint256 is 2^256 - 1.
	MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	// MaxUint160 is 2^160 - 1.
	MaxUint160 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 160), big.NewInt(1))

	ErrNegativeSqrt = errors.New("sqrt of negative value")

	one            = big.NewInt(1)
	maxSafeInteger = big.NewInt(1<<53 - 1)
)

// MulDiv returns floor(a * b / denominator). The product is computed at full width,
// so no precision is lost for 256-bit operands. denominator must be nonzero.
func MulDiv(a, b, denominator *big.Int) *big.Int {
	product := new(big.Int).Mul(a, b)
	return product.Quo(product, denominator)
}

// MulDivRoundingUp returns ceil(a * b / denominator) for non-negative operands.
func MulDivRoundingUp(a, b, denominator *big.Int) *big.Int {
	product := new(big.Int).Mul(a, b)
	result, rem := new(big.Int).QuoRem(product, denominator, new(big.Int))
	if rem.Sign() > 0 {
		result.Add(result, one)
	}
	return result
}

// DivRoundingUp returns ceil(a / b) for non-negative operands.
func DivRoundingUp(a, b *big.Int) *big.Int {
	result, rem := new(big.Int).QuoRem(a, b, new(big.Int))
	if rem.Sign() > 0 {
		result.Add(result, one)
	}
	return result
}

// MultiplyIn256 returns (a * b) mod 2^256, matching EVM uint256 multiplication.
// Overflow is discarded, not reported.
func MultiplyIn256(a, b *big.Int) *big.Int {
	x, _ := uint256.FromBig(a)
	y, _ := uint256.FromBig(b)
	return new(uint256.Int).Mul(x, y).ToBig()
}

// AddIn256 returns (a + b) mod 2^256, matching EVM uint256 addition.
func AddIn256(a, b *big.Int) *big.Int {
	x, _ := uint256.FromBig(a)
	y, _ := uint256.FromBig(b)
	return new(uint256.Int).Add(x, y).ToBig()
}

// Sqrt returns floor(sqrt(value)).
func Sqrt(value *big.Int) (*big.Int, error) {
	if value.Sign() < 0 {
		return nil, ErrNegativeSqrt
	}

	if value.Cmp(maxSafeInteger) <= 0 {
		v := value.Uint64()
		z := uint64(math.Sqrt(float64(v)))
		// the float estimate can be off by one in either direction near perfect squares
		for z*z > v {
			z--
		}
		for (z+1)*(z+1) <= v {
			z++
		}
		return new(big.Int).SetUint64(z), nil
	}

	z := new(big.Int).Set(value)
	x := new(big.Int).Rsh(value, 1)
	x.Add(x, one)
	for x.Cmp(z) < 0 {
		z.Set(x)
		x.Quo(value, x)
		x.Add(x, z)
		x.Rsh(x, 1)
	}
	return z, nil
}
