package app

import (
	"fmt"

	"github.com/spf13/cobra"

	sqlstore "github.com/goliatone/go-storeauth/store/sql"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the store credential schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := opts.newLogger(cmd)
			client, err := opts.openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			if err := sqlstore.Migrate(cmd.Context(), client, opts.driver); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("migrations applied", "driver", opts.driver)
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
