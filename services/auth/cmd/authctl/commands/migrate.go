package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	pkgdb "github.com/Skotchmaster/snapcart/pkg/db"
	"github.com/Skotchmaster/snapcart/services/auth/internal/repo"
)

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the users table",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer pkgdb.Close(db)

			if err := repo.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "users schema up to date")
			return nil
		},
	}
}
