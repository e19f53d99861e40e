package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/dalemusser/tccsite/internal/app/system/auth"
	"github.com/spf13/cobra"
)

func newHashTokenCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-token [token]",
		Short: "Print the bcrypt hash to use as admin_token_hash",
		Long: `Print the bcrypt hash to use as admin_token_hash.

The token is read from the first argument, or from the first line of
stdin when no argument is given.`,
		Args: cobra.MaximumNArgs(1),
		// No store or logger needed.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read token: %w", err)
				}
				token = strings.TrimRight(line, "\r\n")
			}
			hash, err := auth.HashToken(token, cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", auth.DefaultCost, "bcrypt cost")
	return cmd
}
