package main

import (
	"encoding/json"
	"fmt"

	"github.com/dalemusser/tccsite/internal/app/system/migrate"
	"github.com/dalemusser/tccsite/internal/app/system/normalize"
	"github.com/spf13/cobra"
)

func (c *cli) newMigrateCmd() *cobra.Command {
	var (
		force       bool
		collections string
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy the markdown seed files into the store",
		Long: `Copy the markdown seed files into the store.

By default records already in the store are kept and only file records
with new identifiers are added. --force replaces each collection with the
file contents.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.commandContext(cmd)
			defer cancel()

			repo, err := c.repository(ctx)
			if err != nil {
				return err
			}
			defer closeStore(repo.Store(), c.log)

			rep, err := migrate.New(repo, c.log).Run(ctx, migrate.Options{
				Force:       force,
				Collections: normalize.IDList(collections),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(rep); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "run %s (%s) on %s\n", rep.RunID, rep.Mode, rep.Backend)
				for _, cr := range rep.Collections {
					if cr.State != migrate.StepDone {
						fmt.Fprintf(out, "  %-14s FAILED at %s: %s\n", cr.Collection, cr.FailedStep, cr.Error)
						continue
					}
					fmt.Fprintf(out, "  %-14s files=%d written=%d skipped=%d total=%d\n",
						cr.Collection, cr.FilesRead, cr.Written, cr.Skipped, cr.Total)
				}
			}
			if !rep.OK() {
				return fmt.Errorf("migration failed for %v", rep.Failed())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite collections instead of merging")
	cmd.Flags().StringVar(&collections, "collections", "", "Comma-separated collections to migrate (default all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full report as JSON")
	return cmd
}
