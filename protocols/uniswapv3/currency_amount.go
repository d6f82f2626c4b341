package uniswapv3

import (
	"fmt"
	"math/big"

	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/fullmath"
	"github.com/shopspring/decimal"
)

// CurrencyAmount is an amount of a token in its smallest unit. The fraction
// allows intermediate results such as a quoted price times an amount.
type CurrencyAmount struct {
	*Fraction
	Currency *Token
}

// FromRawAmount wraps an integer amount in the token's smallest unit.
func FromRawAmount(currency *Token, raw *big.Int) *CurrencyAmount {
	return &CurrencyAmount{Fraction: NewFraction(raw, nil), Currency: currency}
}

func FromFractionalAmount(currency *Token, numerator, denominator *big.Int) *CurrencyAmount {
	return &CurrencyAmount{Fraction: NewFraction(numerator, denominator), Currency: currency}
}

// Validate reports an amount whose integer part does not fit in a uint256.
func (a *CurrencyAmount) Validate() error {
	if a.Quotient().Cmp(fullmath.MaxUint256) > 0 {
		return fmt.Errorf("%w: %s %s", ErrAmountOverflow, a.Quotient(), a.Currency)
	}
	return nil
}

func (a *CurrencyAmount) Add(other *CurrencyAmount) (*CurrencyAmount, error) {
	if !a.Currency.Equal(other.Currency) {
		return nil, fmt.Errorf("%w: %s + %s", ErrCurrencyMismatch, a.Currency, other.Currency)
	}
	sum := a.Fraction.Add(other.Fraction)
	return FromFractionalAmount(a.Currency, sum.Numerator, sum.Denominator), nil
}

func (a *CurrencyAmount) Subtract(other *CurrencyAmount) (*CurrencyAmount, error) {
	if !a.Currency.Equal(other.Currency) {
		return nil, fmt.Errorf("%w: %s - %s", ErrCurrencyMismatch, a.Currency, other.Currency)
	}
	diff := a.Fraction.Subtract(other.Fraction)
	return FromFractionalAmount(a.Currency, diff.Numerator, diff.Denominator), nil
}

func (a *CurrencyAmount) Multiply(f *Fraction) *CurrencyAmount {
	product := a.Fraction.Multiply(f)
	return FromFractionalAmount(a.Currency, product.Numerator, product.Denominator)
}

func (a *CurrencyAmount) Divide(f *Fraction) *CurrencyAmount {
	quotient := a.Fraction.Divide(f)
	return FromFractionalAmount(a.Currency, quotient.Numerator, quotient.Denominator)
}

// ToExact renders the integer part of the amount in whole tokens.
func (a *CurrencyAmount) ToExact() string {
	return decimal.NewFromBigInt(a.Quotient(), -int32(a.Currency.Decimals)).String()
}

// ToFixed renders the amount in whole tokens with the given number of decimal places.
func (a *CurrencyAmount) ToFixed(places int32) string {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(a.Currency.Decimals)), nil)
	return a.Fraction.Divide(NewFraction(scale, nil)).ToFixed(places)
}

func (a *CurrencyAmount) String() string {
	return a.ToExact() + " " + a.Currency.String()
}
