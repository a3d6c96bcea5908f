package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/clubhouse/internal/auth/app"
	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/internal/auth/service"
	"github.com/aussiebroadwan/clubhouse/pkg/cryptox"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "authctl",
		Short:         "Operator tooling for the clubhouse auth service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newCreateAdminCommand())
	cmd.AddCommand(newSetRoleCommand())
	cmd.AddCommand(newPruneCommand())
	return cmd
}

// withApp opens the configured database (applying migrations) and runs fn.
func withApp(ctx context.Context, fn func(*app.Application) error) error {
	cfg, err := app.LoadConfig(ctx)
	if err != nil {
		return err
	}
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	return fn(a)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(commandContext(cmd), func(*app.Application) error {
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
}

func newCreateAdminCommand() *cobra.Command {
	var (
		email     string
		password  string
		firstName string
		lastName  string
	)

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the first admin identity on an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			generated := password == ""
			if generated {
				var err error
				if password, err = cryptox.GeneratePassword(20); err != nil {
					return err
				}
			}

			return withApp(ctx, func(a *app.Application) error {
				ident, err := a.Services().Bootstrap.CreateAdmin(ctx, service.AdminRequest{
					Email:     email,
					Password:  password,
					FirstName: firstName,
					LastName:  lastName,
				}, domain.ClientInfo{IP: "local", UserAgent: "authctl"})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "created admin %s (%s)\n", ident.Email, ident.ID)
				if generated {
					fmt.Fprintf(out, "password: %s\n", password)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email address")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (generated when empty)")
	cmd.Flags().StringVar(&firstName, "first-name", "Club", "Admin first name")
	cmd.Flags().StringVar(&lastName, "last-name", "Admin", "Admin last name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newSetRoleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-role <email> <role>",
		Short: "Assign a role directly, bypassing rank checks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			role, err := domain.ParseRole(args[1])
			if err != nil {
				return err
			}

			return withApp(ctx, func(a *app.Application) error {
				ident, err := a.Services().Identities.AssignRole(ctx, args[0], role)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", ident.Email, ident.Role)
				return nil
			})
		},
	}
	return cmd
}

func newPruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune-sessions",
		Short: "Remove stale sessions and long-expired invitations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			return withApp(ctx, func(a *app.Application) error {
				res, err := a.Housekeeping().Cleanup(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pruned %d sessions, %d invitations\n", res.Sessions, res.Invitations)
				return nil
			})
		},
	}
}
