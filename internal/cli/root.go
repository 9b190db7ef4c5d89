// Package cli holds the bazaar command tree: the web server plus the
// maintenance commands that share its configuration.
package cli

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"bazaar/internal/config"
	"bazaar/internal/repos"
)

// RootOptions holds global flags and the resolved configuration.
type RootOptions struct {
	DBPath string
	Config config.Config
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "bazaar",
		Short: "Bazaar - a small online marketplace",
		Long: `Bazaar serves a catalog, shopping carts and an append-only purchase
ledger over HTTP. Settings come from the environment or a .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.Config = config.Load()
			if opts.DBPath != "" {
				opts.Config.DBDSN = opts.DBPath
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "SQLite database path (overrides DB_DSN)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))
	cmd.AddCommand(NewOutboxCommand(opts))

	return cmd
}

// openDB opens the configured store with migrations applied.
func (o *RootOptions) openDB() (*sqlx.DB, error) {
	db, err := repos.OpenDB(o.Config.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", o.Config.DBDSN, err)
	}
	return db, nil
}
