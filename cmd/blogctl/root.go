package main

import (
	"fmt"

	"blogsys/internal/config"
	"blogsys/internal/database"
	"blogsys/internal/middleware"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// cli carries the configuration shared by every subcommand.
type cli struct {
	cfg      *config.Config
	driver   string
	dbPath   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "blogctl",
		Short:         "Blog administration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load()
		},
	}

	root.PersistentFlags().StringVar(&c.driver, "driver", "", "database driver (sqlite or postgres); overrides DB_DRIVER")
	root.PersistentFlags().StringVar(&c.dbPath, "db-path", "", "SQLite database file; overrides DB_PATH")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level")

	root.AddCommand(
		c.migrateCmd(),
		c.userCmd(),
		c.commentCmd(),
	)
	return root
}

func (c *cli) load() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if c.driver != "" {
		cfg.DBDriver = c.driver
	}
	if c.dbPath != "" {
		cfg.DBPath = c.dbPath
	}
	middleware.ConfigureLogger(cfg.Env, c.logLevel)
	c.cfg = cfg
	return nil
}

// open connects without touching the schema.
func (c *cli) open() (*gorm.DB, error) {
	db, err := database.Open(c.cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// connect connects and applies pending migrations.
func (c *cli) connect() (*gorm.DB, error) {
	db, err := database.Connect(c.cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}
