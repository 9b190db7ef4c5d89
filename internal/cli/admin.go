package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"bazaar/internal/events"
	"bazaar/internal/repos"
	"bazaar/internal/services"
	"bazaar/internal/validate"
)

func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDB()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", opts.Config.DBDSN)
			return nil
		},
	}
}

func NewSeedCommand(opts *RootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a catalog fixture into an empty catalog",
		Long: `Load categories and items from a YAML fixture. Without --file the
bundled demo catalog is used. A catalog that already has entries is left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDB()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			var seeded bool
			if file != "" {
				seeded, err = repos.SeedFile(db, file)
			} else {
				seeded, err = repos.SeedDefault(db)
			}
			if err != nil {
				return err
			}
			if seeded {
				fmt.Fprintln(cmd.OutOrStdout(), "catalog seeded")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "catalog not empty, nothing to do")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML fixture to load")
	return cmd
}

func NewUserCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var username, password string
	var admin bool
	add := &cobra.Command{
		Use:   "add",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, ok := validate.Username(username)
			if !ok {
				return errors.New("username must be 3-32 letters, digits, dots, dashes or underscores")
			}
			if !validate.Password(password) {
				return errors.New("password needs 8-72 characters with upper and lower case letters, a digit and a symbol")
			}
			db, err := opts.openDB()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			auth := services.NewAuthService(repos.NewUserRepo(db), opts.Config.BcryptCost)
			u, err := auth.Register(cmd.Context(), name, password, admin)
			if err != nil {
				return fmt.Errorf("create %s: %w", name, err)
			}
			role := "customer"
			if u.IsAdmin {
				role = "admin"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", role, u.Username, u.ID)
			return nil
		},
	}
	add.Flags().StringVar(&username, "username", "", "account name (required)")
	add.Flags().StringVar(&password, "password", "", "account password (required)")
	add.Flags().BoolVar(&admin, "admin", false, "grant administrator rights")
	_ = add.MarkFlagRequired("username")
	_ = add.MarkFlagRequired("password")

	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDB()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			users, err := repos.NewUserRepo(db).List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "USERNAME\tADMIN\tCREATED")
			for _, u := range users {
				fmt.Fprintf(tw, "%s\t%t\t%s\n", u.Username, u.IsAdmin, u.CreatedAt.Format(time.DateOnly))
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

func NewOutboxCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect or drain unpublished purchase events",
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Count events waiting for the relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDB()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			n, err := repos.NewOutboxRepo(db).Pending(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d pending\n", n)
			return nil
		},
	}

	flush := &cobra.Command{
		Use:   "flush",
		Short: "Publish pending events once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDB()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			pub := openPublisher(opts.Config)
			defer func() { _ = pub.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			n := events.NewRelay(repos.NewOutboxRepo(db), pub, 0).Flush(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "published %d\n", n)
			return nil
		},
	}

	cmd.AddCommand(status, flush)
	return cmd
}
