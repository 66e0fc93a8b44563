package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vbonduro/perfumery/internal/catalog"
	"github.com/vbonduro/perfumery/internal/config"
	"github.com/vbonduro/perfumery/internal/db"
	"github.com/vbonduro/perfumery/internal/logging"
	"github.com/vbonduro/perfumery/internal/store"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "perfumery",
		Short:         "A small perfume storefront with reviews and an admin dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newSeedCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the schema of the file database at DB_PATH",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withFileDB(cmd, func(cfg *config.Config) error {
				database, err := db.OpenRaw(cfg.DBPath)
				if err != nil {
					return err
				}
				defer func() { _ = database.Close() }()

				if err := db.Migrate(database); err != nil {
					return err
				}
				return printVersion(cmd, database)
			})
		},
	}

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			return withFileDB(cmd, func(cfg *config.Config) error {
				database, err := db.OpenRaw(cfg.DBPath)
				if err != nil {
					return err
				}
				defer func() { _ = database.Close() }()

				if err := db.MigrateDown(database, steps); err != nil {
					return err
				}
				return printVersion(cmd, database)
			})
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	migrateCmd.AddCommand(upCmd, downCmd)
	return migrateCmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo catalog into the file database at DB_PATH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withFileDB(cmd, func(cfg *config.Config) error {
				logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
				if err != nil {
					return err
				}
				defer cleanup()

				database, err := db.Open(cfg.DBPath)
				if err != nil {
					return err
				}
				defer func() { _ = database.Close() }()

				seeded, err := seedCatalog(cmd.Context(), database, logger)
				if err != nil {
					return err
				}
				if seeded {
					cmd.Println("catalog seeded")
				} else {
					cmd.Println("database already has users; nothing to seed")
				}
				return nil
			})
		},
	}
}

// withFileDB loads the config and refuses to run against the in-memory
// database, where schema and seed changes would vanish on exit.
func withFileDB(cmd *cobra.Command, fn func(cfg *config.Config) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DBPath == "" || cfg.DBPath == db.MemoryPath {
		return fmt.Errorf("%s needs DB_PATH to name a database file", cmd.CommandPath())
	}
	return fn(cfg)
}

func printVersion(cmd *cobra.Command, database *sql.DB) error {
	version, dirty, err := db.Version(database)
	if err != nil {
		return err
	}
	if dirty {
		cmd.Printf("schema version %d (dirty)\n", version)
		return nil
	}
	cmd.Printf("schema version %d\n", version)
	return nil
}

func newRepositories(database *sql.DB) catalog.Repositories {
	return catalog.Repositories{
		Users:    store.NewUserStore(database),
		Brands:   store.NewBrandStore(database),
		Perfumes: store.NewPerfumeStore(database),
		Comments: store.NewCommentStore(database),
	}
}

func seedCatalog(ctx context.Context, database *sql.DB, logger *slog.Logger) (bool, error) {
	seed, err := catalog.Load()
	if err != nil {
		return false, err
	}
	return seed.Apply(ctx, newRepositories(database), logger)
}
