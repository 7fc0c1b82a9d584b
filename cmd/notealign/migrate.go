package main

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/chrissnell/notealign/internal/storage/sqlite"
	"github.com/chrissnell/notealign/pkg/migrate"
)

func newMigrateCmd(c *cli) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the schema of the SQLite run store",
	}
	cmd.PersistentFlags().StringVar(&path, "db", "", "run store path (defaults to storage.sqlite.path)")

	// withMigrator opens the run store database without applying migrations.
	withMigrator := func(fn func(m *migrate.Migrator) error) error {
		if path == "" && c.cfg.Storage.SQLite != nil {
			path = c.cfg.Storage.SQLite.Path
		}
		if path == "" {
			return fmt.Errorf("no SQLite run store configured; pass --db")
		}

		db, err := sql.Open("sqlite", path)
		if err != nil {
			return err
		}
		defer db.Close()
		return fn(sqlite.NewMigrator(db, c.logger))
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the applied version and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *migrate.Migrator) error {
				v, err := m.Version()
				if err != nil {
					return err
				}
				pending, err := m.Pending()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version: %d\n", v)
				for _, p := range pending {
					fmt.Fprintf(cmd.OutOrStdout(), "pending: %03d %s\n", p.Version, p.Name)
				}
				return nil
			})
		},
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *migrate.Migrator) error { return m.Up() })
		},
	}

	to := &cobra.Command{
		Use:   "to VERSION",
		Short: "Migrate up or down to VERSION",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := strconv.Atoi(args[0])
			if err != nil || target < 0 {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return withMigrator(func(m *migrate.Migrator) error { return m.To(target) })
		},
	}

	cmd.AddCommand(status, up, to)
	return cmd
}
