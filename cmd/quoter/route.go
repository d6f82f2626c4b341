package main

import (
	"errors"
	"fmt"

	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/ticklist"
	"github.com/defistate/uniswapv3-sdk-go/snapshot"
	"github.com/spf13/cobra"
)

// maxRouteCandidates bounds the fee tier combinations quoted for one token path.
const maxRouteCandidates = 256

func newRouteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Quote every pool combination along a fixed token path",
		RunE:  runRoute,
	}
	cmd.Flags().StringSlice("path", nil, "token path, first token is the input (comma-separated)")
	cmd.Flags().String("amount", "", "amount of the first token, or of the last token with --exact-out")
	cmd.Flags().Bool("exact-out", false, "treat --amount as the exact output")
	_ = cmd.MarkFlagRequired("path")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func runRoute(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	refs, _ := cmd.Flags().GetStringSlice("path")
	amountStr, _ := cmd.Flags().GetString("amount")
	exactOut, _ := cmd.Flags().GetBool("exact-out")

	if len(refs) < 2 {
		return fmt.Errorf("path needs at least two tokens, got %d", len(refs))
	}
	path := make([]*uniswapv3.Token, len(refs))
	for i, ref := range refs {
		if path[i], err = a.market.Token(ref); err != nil {
			return err
		}
	}

	routes, err := candidateRoutes(a.market, path)
	if err != nil {
		return err
	}

	tradeType := uniswapv3.ExactInput
	amountToken := path[0]
	if exactOut {
		tradeType = uniswapv3.ExactOutput
		amountToken = path[len(path)-1]
	}
	amount, err := parseAmount(amountToken, amountStr, a.raw)
	if err != nil {
		return err
	}

	quotes, err := a.router.QuoteRoutes(cmd.Context(), routes, amount, tradeType)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	header(out, fmt.Sprintf("ROUTE QUOTES (%s)", tradeType))
	w := newTable(out)
	fmt.Fprintln(w, "#\tFEES\tINPUT\tOUTPUT\tSTATUS\t")
	fmt.Fprintln(w, "-\t----\t-----\t------\t------\t")
	for i, q := range quotes {
		if q.Err != nil {
			status := "UNFILLABLE"
			if errors.Is(q.Err, ticklist.ErrNoTickData) {
				status = "NO TICK DATA"
			}
			fmt.Fprintf(w, "%d\t%s\t-\t-\t%s\t\n", i+1, routeFees(q.Route), red+status+reset)
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t\n",
			i+1,
			routeFees(q.Route),
			a.formatAmount(q.Trade.InputAmount()),
			a.formatAmount(q.Trade.OutputAmount()),
			green+"OK"+reset,
		)
	}
	return w.Flush()
}

// candidateRoutes returns one route per combination of pools joining consecutive path tokens.
func candidateRoutes(market *snapshot.Market, path []*uniswapv3.Token) ([]*uniswapv3.Route, error) {
	hops := make([][]*uniswapv3.Pool, len(path)-1)
	total := 1
	for i := range hops {
		for _, pool := range market.AllPools() {
			if pool.InvolvesToken(path[i]) && pool.InvolvesToken(path[i+1]) {
				hops[i] = append(hops[i], pool)
			}
		}
		if len(hops[i]) == 0 {
			return nil, fmt.Errorf("no pool between %s and %s", path[i], path[i+1])
		}
		total *= len(hops[i])
		if total > maxRouteCandidates {
			return nil, fmt.Errorf("path has more than %d pool combinations", maxRouteCandidates)
		}
	}

	routes := make([]*uniswapv3.Route, 0, total)
	choice := make([]int, len(hops))
	for {
		pools := make([]*uniswapv3.Pool, len(hops))
		for i, c := range choice {
			pools[i] = hops[i][c]
		}
		route, err := uniswapv3.NewRoute(pools, path[0], path[len(path)-1])
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)

		// advance the rightmost hop like an odometer
		i := len(choice) - 1
		for ; i >= 0; i-- {
			choice[i]++
			if choice[i] < len(hops[i]) {
				break
			}
			choice[i] = 0
		}
		if i < 0 {
			return routes, nil
		}
	}
}

func routeFees(r *uniswapv3.Route) string {
	s := r.Input.String()
	for i, pool := range r.Pools {
		s += fmt.Sprintf(" -(%d)-> %s", pool.Fee, r.TokenPath[i+1])
	}
	return s
}
