package uniswapv3

import (
	"math/big"

	"github.com/shopspring/decimal"
)

var oneHundred = big.NewInt(100)

// Percent is a Fraction that formats as a percentage.
type Percent struct {
	*Fraction
}

func NewPercent(numerator, denominator *big.Int) *Percent {
	return &Percent{Fraction: NewFraction(numerator, denominator)}
}

// NewPercentFromDecimal builds an exact percent from a ratio, so 0.005 is 0.5%.
func NewPercentFromDecimal(d decimal.Decimal) *Percent {
	num := d.Coefficient()
	den := big.NewInt(1)
	if exp := d.Exponent(); exp < 0 {
		den.Exp(big.NewInt(10), big.NewInt(int64(-exp)), nil)
	} else {
		num.Mul(num, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil))
	}
	return NewPercent(num, den)
}

// NewPercentFromBips returns bips / 10,000.
func NewPercentFromBips(bips int64) *Percent {
	return NewPercent(big.NewInt(bips), big.NewInt(10_000))
}

func (p *Percent) Add(other *Percent) *Percent {
	return &Percent{Fraction: p.Fraction.Add(other.Fraction)}
}

func (p *Percent) Subtract(other *Percent) *Percent {
	return &Percent{Fraction: p.Fraction.Subtract(other.Fraction)}
}

func (p *Percent) Multiply(other *Percent) *Percent {
	return &Percent{Fraction: p.Fraction.Multiply(other.Fraction)}
}

func (p *Percent) Divide(other *Percent) *Percent {
	return &Percent{Fraction: p.Fraction.Divide(other.Fraction)}
}

// ToFixed formats the value multiplied by 100.
func (p *Percent) ToFixed(places int32) string {
	return p.Fraction.Multiply(NewFraction(oneHundred, nil)).ToFixed(places)
}
