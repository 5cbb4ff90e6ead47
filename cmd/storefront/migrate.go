package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/upb/storefront-assistant/repositories/postgres"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the assistant's tables if they do not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			rt, err := opts.load(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = rt.logger.Sync() }()

			db, err := postgres.NewDB(rt.cfg.Database, rt.logger)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.InitSchema(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}
