package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	pkgdb "github.com/Skotchmaster/snapcart/pkg/db"
	"github.com/Skotchmaster/snapcart/services/auth/internal/models"
	"github.com/Skotchmaster/snapcart/services/auth/internal/repo"
	"github.com/Skotchmaster/snapcart/services/auth/internal/service"
)

func newUsersCmd(opts *options) *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "Inspect and manage accounts",
	}
	users.AddCommand(newUsersListCmd(opts), newUsersPromoteCmd(opts))
	return users
}

func newUsersListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer pkgdb.Close(db)

			svc := &service.AuthService{Repo: &repo.GormRepo{DB: db}}
			list, err := svc.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			return printUsers(cmd, opts, list...)
		},
	}
}

func newUsersPromoteCmd(opts *options) *cobra.Command {
	var (
		email  string
		revoke bool
	)
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Grant (or with --revoke, remove) the admin flag",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer pkgdb.Close(db)

			svc := &service.AuthService{Repo: &repo.GormRepo{DB: db}}
			user, err := svc.SetAdmin(cmd.Context(), email, !revoke)
			if err != nil {
				return err
			}
			return printUsers(cmd, opts, *user)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().BoolVar(&revoke, "revoke", false, "Remove the admin flag instead of granting it")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func printUsers(cmd *cobra.Command, opts *options, users ...models.User) error {
	out := cmd.OutOrStdout()
	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(users)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tADMIN")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", u.ID, u.Name, u.Email, u.IsAdmin)
	}
	return w.Flush()
}
