package main

import (
	"fmt"

	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3"
	"github.com/spf13/cobra"
)

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Find the best trades between two tokens",
		RunE:  runQuote,
	}
	cmd.Flags().String("in", "", "input token symbol or address")
	cmd.Flags().String("out", "", "output token symbol or address")
	cmd.Flags().String("amount", "", "amount of the input token, or of the output token with --exact-out")
	cmd.Flags().Bool("exact-out", false, "treat --amount as the exact output")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func runQuote(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	inRef, _ := cmd.Flags().GetString("in")
	outRef, _ := cmd.Flags().GetString("out")
	amountStr, _ := cmd.Flags().GetString("amount")
	exactOut, _ := cmd.Flags().GetBool("exact-out")

	tokenIn, err := a.market.Token(inRef)
	if err != nil {
		return err
	}
	tokenOut, err := a.market.Token(outRef)
	if err != nil {
		return err
	}

	var trades []*uniswapv3.Trade
	if exactOut {
		amount, err := parseAmount(tokenOut, amountStr, a.raw)
		if err != nil {
			return err
		}
		trades, err = a.router.BestTradeExactOut(cmd.Context(), a.market.Pools(), tokenIn, amount, nil)
		if err != nil {
			return err
		}
	} else {
		amount, err := parseAmount(tokenIn, amountStr, a.raw)
		if err != nil {
			return err
		}
		trades, err = a.router.BestTradeExactIn(cmd.Context(), a.market.Pools(), amount, tokenOut, nil)
		if err != nil {
			return err
		}
	}
	if len(trades) == 0 {
		return fmt.Errorf("no route from %s to %s can fill %s", tokenIn, tokenOut, amountStr)
	}

	return a.printTrades(cmd, trades)
}

func (a *app) printTrades(cmd *cobra.Command, trades []*uniswapv3.Trade) error {
	out := cmd.OutOrStdout()
	header(out, fmt.Sprintf("BEST TRADES (%s, slippage %s%%)", trades[0].TradeType, a.slippage.ToFixed(2)))

	w := newTable(out)
	fmt.Fprintln(w, "#\tROUTE\tINPUT\tOUTPUT\tPRICE\tIMPACT\tBOUND\t")
	fmt.Fprintln(w, "-\t-----\t-----\t------\t-----\t------\t-----\t")
	for i, trade := range trades {
		impact := "n/a"
		if p, err := trade.PriceImpact(); err == nil {
			impact = p.ToFixed(2) + "%"
		}

		var bound string
		if trade.TradeType == uniswapv3.ExactInput {
			minOut, err := trade.MinimumAmountOut(a.slippage)
			if err != nil {
				return err
			}
			bound = "min " + a.formatAmount(minOut)
		} else {
			maxIn, err := trade.MaximumAmountIn(a.slippage)
			if err != nil {
				return err
			}
			bound = "max " + a.formatAmount(maxIn)
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			i+1,
			trade.Route(),
			a.formatAmount(trade.InputAmount()),
			a.formatAmount(trade.OutputAmount()),
			trade.ExecutionPrice().ToFixed(6),
			impact,
			bound,
		)
	}
	return w.Flush()
}
