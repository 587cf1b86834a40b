package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"blogsys/internal/database"

	"github.com/spf13/cobra"
)

func (c *cli) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage schema migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := c.open()
				if err != nil {
					return err
				}
				defer database.Close(db)

				if err := database.RunMigrations(cmd.Context(), db); err != nil {
					return fmt.Errorf("sql migrations failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down <version>",
			Short: "Roll back one applied migration",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}

				db, err := c.open()
				if err != nil {
					return err
				}
				defer database.Close(db)

				if err := database.RollbackMigration(cmd.Context(), db, version); err != nil {
					return fmt.Errorf("rollback failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rolled back migration %06d\n", version)
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show status of all migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := c.open()
				if err != nil {
					return err
				}
				defer database.Close(db)

				status, err := database.GetMigrationStatus(cmd.Context(), db)
				if err != nil {
					return fmt.Errorf("schema status failed: %w", err)
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tNAME\tSTATUS")
				for _, m := range status {
					state := "Pending"
					if m.Applied {
						state = "Applied"
					}
					fmt.Fprintf(w, "%06d\t%s\t%s\n", m.Version, m.Name, state)
				}
				return w.Flush()
			},
		},
	)
	return cmd
}
