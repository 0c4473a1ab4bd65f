package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "repertoire",
		Short:         "Compose DeFi position exits and swaps into Safe transactions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", os.Getenv("REPERTOIRE_CONFIG"), "path to a YAML config file")

	root.AddCommand(
		newServeCmd(&cfgPath),
		newStrategiesCmd(&cfgPath),
		newTransactionsCmd(&cfgPath),
	)
	return root
}
