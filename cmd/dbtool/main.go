package main

import (
	"context"
	"fmt"
	"freight-route-service/internal/adapters/repositories"
	"freight-route-service/internal/config"
	"freight-route-service/internal/platform/db"
	"freight-route-service/internal/platform/logger"
	"freight-route-service/internal/platform/migration"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "dbtool",
		Short:        "Database maintenance for the freight route service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.UsesPostgres() {
				return fmt.Errorf("DATABASE_URL is required")
			}
			log, err := logger.New(cfg.Env)
			if err != nil {
				return err
			}
			a.cfg, a.log = cfg, log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	root.AddCommand(a.migrateCmd(), a.seedCmd())
	return root
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migration.Up(a.cfg.DatabaseURL, a.cfg.MigrationsDir, a.log)
		},
	}
}

func (a *app) seedCmd() *cobra.Command {
	var path string
	var migrate bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load depots, vehicles and tariffs from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if migrate {
				if err := migration.Up(a.cfg.DatabaseURL, a.cfg.MigrationsDir, a.log); err != nil {
					return err
				}
			}
			if path == "" {
				path = a.cfg.SeedPath
			}
			return a.seed(cmd.Context(), path)
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "seed file (defaults to SEED_PATH)")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply migrations before seeding")
	return cmd
}

func (a *app) seed(ctx context.Context, path string) error {
	conn, err := db.Open(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	a.log.Info("seeding database", zap.String("file", path))
	if err := repositories.SeedFromJSON(ctx, repositories.NewPostgresStore(conn), path); err != nil {
		return err
	}
	a.log.Info("seeding complete")
	return nil
}
