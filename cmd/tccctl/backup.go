package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dalemusser/tccsite/internal/app/store/backup"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (c *cli) newBackupCmd() *cobra.Command {
	var (
		outPath string
		env     string
	)
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a JSON snapshot of every content key and view counter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.commandContext(cmd)
			defer cancel()

			store, err := c.connect(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store, c.log)

			snap, err := backup.Export(ctx, store, c.v.GetString("key-prefix"), env)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if outPath != "" && outPath != "-" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := backup.Write(w, snap); err != nil {
				return err
			}
			c.log.Info("backup written",
				zap.String("snapshot_id", snap.ID),
				zap.Int("keys", len(snap.Data)),
				zap.String("out", outPath))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&env, "env", "", "Environment label recorded in the snapshot")
	return cmd
}

func (c *cli) newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Write a snapshot back to the store, overwriting current values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			snap, err := backup.Read(f)
			if err != nil {
				return err
			}

			ctx, cancel := c.commandContext(cmd)
			defer cancel()
			store, err := c.connect(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store, c.log)

			res, err := backup.Restore(ctx, store, snap)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %d keys, skipped %d\n", len(res.Restored), len(res.Skipped))
			return nil
		},
	}
}
