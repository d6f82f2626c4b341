package uniswapv3

import (
	"fmt"
	"math/big"
)

// Price is the amount of quote currency per unit of base currency, in raw units.
type Price struct {
	*Fraction
	BaseCurrency  *Token
	QuoteCurrency *Token
	// Scalar converts the raw ratio into a ratio of whole tokens.
	Scalar *Fraction
}

// NewPrice returns numerator/denominator quote units per base unit.
func NewPrice(base, quote *Token, denominator, numerator *big.Int) *Price {
	ten := big.NewInt(10)
	return &Price{
		Fraction:      NewFraction(numerator, denominator),
		BaseCurrency:  base,
		QuoteCurrency: quote,
		Scalar: NewFraction(
			new(big.Int).Exp(ten, big.NewInt(int64(base.Decimals)), nil),
			new(big.Int).Exp(ten, big.NewInt(int64(quote.Decimals)), nil),
		),
	}
}

func (p *Price) Invert() *Price {
	return NewPrice(p.QuoteCurrency, p.BaseCurrency, p.Numerator, p.Denominator)
}

// Multiply chains two prices; other must be quoted in p's quote currency as its base.
func (p *Price) Multiply(other *Price) (*Price, error) {
	if !p.QuoteCurrency.Equal(other.BaseCurrency) {
		return nil, fmt.Errorf("%w: %s quote vs %s base", ErrCurrencyMismatch, p.QuoteCurrency, other.BaseCurrency)
	}
	f := p.Fraction.Multiply(other.Fraction)
	return NewPrice(p.BaseCurrency, other.QuoteCurrency, f.Denominator, f.Numerator), nil
}

// Quote converts an amount of the base currency into the quote currency.
func (p *Price) Quote(amount *CurrencyAmount) (*CurrencyAmount, error) {
	if !amount.Currency.Equal(p.BaseCurrency) {
		return nil, fmt.Errorf("%w: %s is not %s", ErrCurrencyMismatch, amount.Currency, p.BaseCurrency)
	}
	f := p.Fraction.Multiply(amount.Fraction)
	return FromFractionalAmount(p.QuoteCurrency, f.Numerator, f.Denominator), nil
}

// AdjustedForDecimals is the price in whole tokens.
func (p *Price) AdjustedForDecimals() *Fraction {
	return p.Fraction.Multiply(p.Scalar)
}

func (p *Price) ToFixed(places int32) string {
	return p.AdjustedForDecimals().ToFixed(places)
}

func (p *Price) String() string {
	return fmt.Sprintf("%s %s/%s", p.ToFixed(8), p.QuoteCurrency, p.BaseCurrency)
}
