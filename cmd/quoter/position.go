package main

import (
	"fmt"
	"math/big"

	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newPositionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Value a liquidity position in a pool",
		RunE:  runPosition,
	}
	cmd.Flags().String("pool", "", "pool address")
	cmd.Flags().Int("lower", 0, "lower tick, rounded to the nearest usable tick")
	cmd.Flags().Int("upper", 0, "upper tick, rounded to the nearest usable tick")
	cmd.Flags().String("liquidity", "", "position liquidity")
	cmd.Flags().String("amount0", "", "amount of token0 to deposit")
	cmd.Flags().String("amount1", "", "amount of token1 to deposit")
	_ = cmd.MarkFlagRequired("pool")
	_ = cmd.MarkFlagRequired("lower")
	_ = cmd.MarkFlagRequired("upper")
	cmd.MarkFlagsOneRequired("liquidity", "amount0", "amount1")
	cmd.MarkFlagsMutuallyExclusive("liquidity", "amount0")
	cmd.MarkFlagsMutuallyExclusive("liquidity", "amount1")
	return cmd
}

func runPosition(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	poolRef, _ := cmd.Flags().GetString("pool")
	if !common.IsHexAddress(poolRef) {
		return fmt.Errorf("invalid pool address %q", poolRef)
	}
	pool, ok := a.market.Pool(common.HexToAddress(poolRef))
	if !ok {
		return fmt.Errorf("pool %s is not in the snapshot", poolRef)
	}

	lower, upper, err := usableRange(cmd, a, pool)
	if err != nil {
		return err
	}

	position, err := a.buildPosition(cmd, pool, lower, upper)
	if err != nil {
		return err
	}
	return a.printPosition(cmd, position)
}

func usableRange(cmd *cobra.Command, a *app, pool *uniswapv3.Pool) (int, int, error) {
	lowerIn, _ := cmd.Flags().GetInt("lower")
	upperIn, _ := cmd.Flags().GetInt("upper")

	lower, err := uniswapv3.NearestUsableTick(lowerIn, pool.TickSpacing)
	if err != nil {
		return 0, 0, err
	}
	upper, err := uniswapv3.NearestUsableTick(upperIn, pool.TickSpacing)
	if err != nil {
		return 0, 0, err
	}
	if lower != lowerIn || upper != upperIn {
		a.logger.Info("ticks rounded to the pool's spacing",
			zap.Ints("requested", []int{lowerIn, upperIn}), zap.Ints("used", []int{lower, upper}))
	}
	return lower, upper, nil
}

func (a *app) buildPosition(cmd *cobra.Command, pool *uniswapv3.Pool, lower, upper int) (*uniswapv3.Position, error) {
	if s, _ := cmd.Flags().GetString("liquidity"); s != "" {
		liquidity, ok := new(big.Int).SetString(s, 10)
		if !ok || liquidity.Sign() < 0 {
			return nil, fmt.Errorf("invalid liquidity %q", s)
		}
		return uniswapv3.NewPosition(pool, liquidity, lower, upper)
	}

	s0, _ := cmd.Flags().GetString("amount0")
	s1, _ := cmd.Flags().GetString("amount1")
	var amount0, amount1 *big.Int
	if s0 != "" {
		a0, err := parseAmount(pool.Token0, s0, a.raw)
		if err != nil {
			return nil, err
		}
		amount0 = a0.Quotient()
	}
	if s1 != "" {
		a1, err := parseAmount(pool.Token1, s1, a.raw)
		if err != nil {
			return nil, err
		}
		amount1 = a1.Quotient()
	}

	switch {
	case amount0 != nil && amount1 != nil:
		return uniswapv3.FromAmounts(pool, lower, upper, amount0, amount1, true)
	case amount0 != nil:
		return uniswapv3.FromAmount0(pool, lower, upper, amount0, true)
	default:
		return uniswapv3.FromAmount1(pool, lower, upper, amount1)
	}
}

func (a *app) printPosition(cmd *cobra.Command, p *uniswapv3.Position) error {
	amount0, err := p.Amount0()
	if err != nil {
		return err
	}
	amount1, err := p.Amount1()
	if err != nil {
		return err
	}
	mint, err := p.MintAmounts()
	if err != nil {
		return err
	}
	mintSlippage, err := p.MintAmountsWithSlippage(a.slippage)
	if err != nil {
		return err
	}
	burn0, burn1, err := p.BurnAmountsWithSlippage(a.slippage)
	if err != nil {
		return err
	}
	priceLower, err := p.TokenPriceLower()
	if err != nil {
		return err
	}
	priceUpper, err := p.TokenPriceUpper()
	if err != nil {
		return err
	}

	t0, t1 := p.Pool.Token0, p.Pool.Token1
	amt := func(t *uniswapv3.Token, raw *big.Int) string {
		return a.formatAmount(uniswapv3.FromRawAmount(t, raw))
	}

	out := cmd.OutOrStdout()
	header(out, fmt.Sprintf("POSITION %s [%d, %d]", p.Pool, p.TickLower, p.TickUpper))
	w := newTable(out)
	fmt.Fprintf(w, "liquidity\t%s\t\n", p.Liquidity)
	fmt.Fprintf(w, "price range\t%s .. %s %s/%s\t\n", priceLower.ToFixed(6), priceUpper.ToFixed(6), t1, t0)
	fmt.Fprintf(w, "amounts\t%s\t%s\t\n", a.formatAmount(amount0), a.formatAmount(amount1))
	fmt.Fprintf(w, "mint\t%s\t%s\t\n", amt(t0, mint.Amount0), amt(t1, mint.Amount1))
	fmt.Fprintf(w, "mint (slippage %s%%)\t%s\t%s\t\n", a.slippage.ToFixed(2), amt(t0, mintSlippage.Amount0), amt(t1, mintSlippage.Amount1))
	fmt.Fprintf(w, "burn (slippage %s%%)\t%s\t%s\t\n", a.slippage.ToFixed(2), amt(t0, burn0), amt(t1, burn1))
	return w.Flush()
}
