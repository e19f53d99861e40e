package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) newKeysCmd() *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List store keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.commandContext(cmd)
			defer cancel()

			store, err := c.connect(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store, c.log)

			keys, err := store.Keys(ctx, c.v.GetString("key-prefix")+prefix)
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Only list keys starting with this (after --key-prefix)")
	return cmd
}
