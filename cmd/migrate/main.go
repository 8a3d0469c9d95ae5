package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"reviewpasta/internal/adapters/observability"
	"reviewpasta/internal/app"
	"reviewpasta/internal/shared"
	"reviewpasta/internal/storage"
	"reviewpasta/internal/storage/filestore"
)

var (
	legacyPath string
	reset      bool
	force      bool

	rootCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Copy businesses from the legacy local store into the hosted backend",
		RunE:  run,
	}
)

func init() {
	rootCmd.Flags().StringVar(&legacyPath, "legacy", "", "legacy JSON store (default LEGACY_STORE_PATH)")
	rootCmd.Flags().BoolVar(&reset, "reset", false, "remove the completion marker and exit")
	rootCmd.Flags().BoolVar(&force, "force", false, "ignore an existing completion marker")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := shared.Load()
	if err != nil {
		return err
	}
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	if legacyPath == "" {
		legacyPath = cfg.LegacyStorePath
	}
	if cfg.StorageBackend == shared.BackendFile && cfg.StorePath == legacyPath {
		log.Warn().Str("path", legacyPath).Msg("target is the legacy store itself, nothing to do")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	legacy, err := filestore.Open(legacyPath)
	if err != nil {
		return err
	}
	target, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = target.Close(context.Background()) }()

	svc := app.NewMigrationService(legacy, target, cfg.MigrationMarker, cfg.MigrationWorkers)
	if reset || force {
		if err := svc.Reset(); err != nil {
			return err
		}
		if reset {
			log.Info().Str("marker", cfg.MigrationMarker).Msg("migration marker removed")
			return nil
		}
	}

	log.Info().
		Str("legacy", legacyPath).
		Str("backend", cfg.StorageBackend).
		Int("workers", cfg.MigrationWorkers).
		Msg("migration starting")

	report, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if !report.Success {
		return errors.Newf("%d businesses failed to migrate", len(report.Errors))
	}
	return nil
}
