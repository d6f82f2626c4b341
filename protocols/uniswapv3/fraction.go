package uniswapv3

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Fraction is an exact rational number. Values are never mutated after construction.
type Fraction struct {
	Numerator   *big.Int
	Denominator *big.Int
}

// NewFraction copies its arguments. A nil denominator means 1.
func NewFraction(numerator, denominator *big.Int) *Fraction {
	if denominator == nil {
		denominator = big.NewInt(1)
	}
	return &Fraction{
		Numerator:   new(big.Int).Set(numerator),
		Denominator: new(big.Int).Set(denominator),
	}
}

// Quotient is the numerator divided by the denominator, truncated toward zero.
func (f *Fraction) Quotient() *big.Int {
	return new(big.Int).Quo(f.Numerator, f.Denominator)
}

// Remainder is what is left after removing the quotient.
func (f *Fraction) Remainder() *Fraction {
	return NewFraction(new(big.Int).Rem(f.Numerator, f.Denominator), f.Denominator)
}

func (f *Fraction) Invert() *Fraction {
	return NewFraction(f.Denominator, f.Numerator)
}

func (f *Fraction) Add(other *Fraction) *Fraction {
	if f.Denominator.Cmp(other.Denominator) == 0 {
		return NewFraction(new(big.Int).Add(f.Numerator, other.Numerator), f.Denominator)
	}
	num := new(big.Int).Mul(f.Numerator, other.Denominator)
	num.Add(num, new(big.Int).Mul(other.Numerator, f.Denominator))
	return NewFraction(num, new(big.Int).Mul(f.Denominator, other.Denominator))
}

func (f *Fraction) Subtract(other *Fraction) *Fraction {
	if f.Denominator.Cmp(other.Denominator) == 0 {
		return NewFraction(new(big.Int).Sub(f.Numerator, other.Numerator), f.Denominator)
	}
	num := new(big.Int).Mul(f.Numerator, other.Denominator)
	num.Sub(num, new(big.Int).Mul(other.Numerator, f.Denominator))
	return NewFraction(num, new(big.Int).Mul(f.Denominator, other.Denominator))
}

func (f *Fraction) Multiply(other *Fraction) *Fraction {
	return NewFraction(
		new(big.Int).Mul(f.Numerator, other.Numerator),
		new(big.Int).Mul(f.Denominator, other.Denominator),
	)
}

func (f *Fraction) Divide(other *Fraction) *Fraction {
	return NewFraction(
		new(big.Int).Mul(f.Numerator, other.Denominator),
		new(big.Int).Mul(f.Denominator, other.Numerator),
	)
}

// Cmp compares by cross multiplication. Denominators are assumed positive.
func (f *Fraction) Cmp(other *Fraction) int {
	left := new(big.Int).Mul(f.Numerator, other.Denominator)
	right := new(big.Int).Mul(other.Numerator, f.Denominator)
	return left.Cmp(right)
}

func (f *Fraction) LessThan(other *Fraction) bool    { return f.Cmp(other) < 0 }
func (f *Fraction) EqualTo(other *Fraction) bool     { return f.Cmp(other) == 0 }
func (f *Fraction) GreaterThan(other *Fraction) bool { return f.Cmp(other) > 0 }

// Decimal converts the fraction with the given number of decimal places, rounding half up.
func (f *Fraction) Decimal(places int32) (decimal.Decimal, error) {
	if f.Denominator.Sign() == 0 {
		return decimal.Decimal{}, ErrZeroDenominator
	}
	return decimal.NewFromBigInt(f.Numerator, 0).DivRound(decimal.NewFromBigInt(f.Denominator, 0), places), nil
}

// ToFixed formats the fraction with exactly the given number of decimal places.
func (f *Fraction) ToFixed(places int32) string {
	d, err := f.Decimal(places)
	if err != nil {
		return "NaN"
	}
	return d.StringFixed(places)
}

func (f *Fraction) String() string {
	return fmt.Sprintf("%s/%s", f.Numerator, f.Denominator)
}
