// Command quoter quotes swaps and liquidity positions against a local pool snapshot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "quoter",
		Short:        "Concentrated liquidity quoting against a pool snapshot",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("snapshot", "snapshot.yaml", "snapshot file (YAML or JSON)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Int("max-hops", 3, "maximum pools per route")
	flags.Int("max-results", 3, "maximum trades to report")
	flags.Int("concurrency", 8, "routes quoted in parallel")
	flags.String("slippage", "0.5", "slippage tolerance in percent")
	flags.Bool("raw", false, "amounts are in the token's smallest unit")

	root.AddCommand(
		newQuoteCmd(),
		newRouteCmd(),
		newPositionCmd(),
		newDiffCmd(),
	)
	return root
}
