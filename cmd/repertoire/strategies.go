package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	repertoire "github.com/karpatkey/defi-repertoire"
	"github.com/karpatkey/defi-repertoire/chain"
	"github.com/karpatkey/defi-repertoire/multisend"
)

func newStrategiesCmd(cfgPath *string) *cobra.Command {
	var (
		blockchain string
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "strategies",
		Short: "Print the strategy catalogue of a chain as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			bc, err := chain.ByName(blockchain)
			if err != nil {
				return fmt.Errorf("%w: %q", err, blockchain)
			}
			a, err := newApp(*cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := context.WithTimeout(commandContext(cmd), timeout)
			defer cancel()
			return writeJSON(cmd.OutOrStdout(), map[string]any{"strategies": a.system.Catalogue(ctx, bc)})
		},
	}
	cmd.Flags().StringVar(&blockchain, "blockchain", chain.Ethereum.Name, "chain name")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "time allowed for resolving options")
	return cmd
}

type transactionsInput struct {
	Blockchain        string                    `json:"blockchain"`
	AvatarSafeAddress string                    `json:"avatar_safe_address"`
	StrategyCalls     []repertoire.StrategyCall `json:"strategy_calls"`
}

func newTransactionsCmd(cfgPath *string) *cobra.Command {
	var (
		file     string
		batch    bool
		rolesMod string
		role     string
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Build the transactions of a JSON request read from a file or stdin",
		Long: `Reads {"blockchain", "avatar_safe_address", "strategy_calls"} and prints
the ordered transactions. With --roles-mod and --role the batch is wrapped
in execTransactionWithRole.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			bc, err := chain.ByName(in.Blockchain)
			if err != nil {
				return fmt.Errorf("%w: %q", err, in.Blockchain)
			}

			a, err := newApp(*cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := context.WithTimeout(commandContext(cmd), timeout)
			defer cancel()
			txs, err := a.system.Transactions(ctx, bc, in.AvatarSafeAddress, in.StrategyCalls)
			if err != nil {
				return err
			}

			if rolesMod == "" {
				if batch && len(txs) > 0 {
					tx, err := multisend.MultiOrOne(bc, txs)
					if err != nil {
						return err
					}
					txs = []repertoire.Transactable{tx}
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{"txns": txs})
			}

			mod, err := chain.ParseAddress(rolesMod)
			if err != nil {
				return fmt.Errorf("roles-mod: %w", err)
			}
			r, err := multisend.ParseRole(role)
			if err != nil {
				return err
			}
			tx, err := multisend.MultiOrOne(bc, txs)
			if err != nil {
				return err
			}
			wrapped, err := multisend.ExecWithRole(mod, r, tx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{"txn": wrapped})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "request file, - for stdin")
	cmd.Flags().BoolVar(&batch, "multisend", false, "batch the transactions into one MultiSend call")
	cmd.Flags().StringVar(&rolesMod, "roles-mod", "", "Roles modifier address")
	cmd.Flags().StringVar(&role, "role", "", "role number or key, required with --roles-mod")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "time allowed for chain reads")
	cmd.MarkFlagsRequiredTogether("roles-mod", "role")
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func readInput(cmd *cobra.Command, file string) (transactionsInput, error) {
	var r io.Reader = cmd.InOrStdin()
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return transactionsInput{}, err
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var in transactionsInput
	if err := dec.Decode(&in); err != nil {
		return transactionsInput{}, fmt.Errorf("decode request: %w", err)
	}
	return in, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
