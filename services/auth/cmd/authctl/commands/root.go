package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	pkgconfig "github.com/Skotchmaster/snapcart/pkg/config"
	pkgdb "github.com/Skotchmaster/snapcart/pkg/db"
)

type options struct {
	dbURL      string
	jsonOutput bool
}

// NewRootCmd builds the authctl command tree writing to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "authctl",
		Short: "Administer the SnapCart account directory",
		Long: `authctl works directly on the auth database.

Examples:
  authctl migrate
  authctl users list --json
  authctl users promote --email admin@example.com
  authctl users promote --email admin@example.com --revoke`,
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(out)

	root.PersistentFlags().StringVar(&opts.dbURL, "db", "", "Database URL (defaults to DATABASE_URL)")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	root.AddCommand(newMigrateCmd(opts), newUsersCmd(opts))
	return root
}

func Execute() {
	pkgconfig.LoadDotEnv(".env", "services/auth/.env")
	if err := NewRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (o *options) open(ctx context.Context) (*gorm.DB, error) {
	dsn := o.dbURL
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		return nil, fmt.Errorf("database URL required: pass --db or set DATABASE_URL")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return pkgdb.Open(ctx, dsn)
}
