package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3"
	"github.com/shopspring/decimal"
)

const (
	reset = "\033[0m"
	bold  = "\033[1m"
	red   = "\033[31m"
	green = "\033[32m"
	cyan  = "\033[36m"
)

// header prints a styled section header
func header(w io.Writer, title string) {
	fmt.Fprintln(w, "\n"+bold+cyan+":: "+title+" ::"+reset)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 4, ' ', 0)
}

// parseAmount reads s in whole tokens, or in the smallest unit when raw is set.
func parseAmount(token *uniswapv3.Token, s string, raw bool) (*uniswapv3.CurrencyAmount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !raw {
		d = d.Shift(int32(token.Decimals))
	}
	if !d.IsInteger() {
		return nil, fmt.Errorf("amount %s is finer than the smallest unit of %s", s, token)
	}
	if d.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %s", s)
	}

	amount := uniswapv3.FromRawAmount(token, d.BigInt())
	if err := amount.Validate(); err != nil {
		return nil, err
	}
	return amount, nil
}

func (a *app) formatAmount(amount *uniswapv3.CurrencyAmount) string {
	if a.raw {
		return amount.Quotient().String() + " " + amount.Currency.String()
	}
	return amount.String()
}
