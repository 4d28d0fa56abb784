package main

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var creditsCmd = &cobra.Command{
	Use:   "credits [grant n]",
	Short: "Show credit balance or top up",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initData(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if len(args) > 0 {
			if args[0] != "grant" || len(args) != 2 {
				return eris.New("usage: ruvia credits grant <n>")
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return eris.Wrapf(err, "invalid grant amount %q", args[1])
			}
			if err := env.Ledger.Grant(ctx, n, "manual grant"); err != nil {
				return err
			}
		}

		balance, err := env.Ledger.Balance(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("balance: %d credits\n", balance)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(creditsCmd)
}
