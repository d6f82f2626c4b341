package main

import (
	"fmt"

	"github.com/defistate/uniswapv3-sdk-go/snapshot"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Print the pool changes between two snapshots as YAML",
		Args:  cobra.ExactArgs(2),
		RunE:  runDiff,
	}
}

func runDiff(cmd *cobra.Command, args []string) error {
	oldSnap, err := snapshot.Load(args[0])
	if err != nil {
		return err
	}
	newSnap, err := snapshot.Load(args[1])
	if err != nil {
		return err
	}

	diff := snapshot.Diff(oldSnap.Pools, newSnap.Pools)
	if diff.IsEmpty() {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "# no changes")
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(diff); err != nil {
		return err
	}
	return enc.Close()
}
