package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"reviewpasta/internal/adapters/aidraft"
	server "reviewpasta/internal/adapters/http_server"
	"reviewpasta/internal/adapters/memcache"
	"reviewpasta/internal/adapters/observability"
	"reviewpasta/internal/adapters/qr"
	redisad "reviewpasta/internal/adapters/redis"
	"reviewpasta/internal/app"
	"reviewpasta/internal/domain"
	"reviewpasta/internal/review"
	"reviewpasta/internal/shared"
	"reviewpasta/internal/storage"
	"reviewpasta/internal/storage/filestore"
)

const shutdownGrace = 10 * time.Second

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	review.MustValidateTemplates()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("storage")
	}
	defer func() { _ = store.Close(context.Background()) }()

	autoMigrate(ctx, cfg, store)

	cache, closeCache := newCache(ctx, cfg)
	defer closeCache()

	mode := cfg.AIMode()
	drafter, err := aidraft.New(ctx, mode, cfg.AIBaseURL, cfg.PublicOrigin, cfg.AIRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("AI draft client")
	}
	orch := review.NewOrchestrator(mode, review.NewRenderer(rand.NewSource(time.Now().UnixNano())), drafter,
		review.WithTimeout(cfg.AITimeout))

	businesses := app.NewBusinessService(store, cache, cfg.CacheTTL, qr.NewEncoder(), cfg.PublicOrigin)

	srv := server.New(cfg.CORSOrigins, cfg.HTTPTimeout)
	srv.MountHandlers(&server.Handlers{
		Businesses: businesses,
		Waitlist:   app.NewWaitlistService(store),
		Drafts:     app.NewDraftService(businesses, orch),
	}, server.NewAuthenticator(cfg.JWTSecret))

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("backend", cfg.StorageBackend).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// newCache prefers Redis and falls back to an in-process cache when Redis is
// not configured or not reachable.
func newCache(ctx context.Context, cfg shared.Config) (domain.Cache, func()) {
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		err := rc.Ping(ctx)
		if err == nil {
			log.Info().Str("addr", cfg.RedisAddr).Msg("redis cache ok")
			return rc, func() { _ = rc.Close() }
		}
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, using in-process cache")
		_ = rc.Close()
	}
	return memcache.New(cfg.CacheTTL, 2*cfg.CacheTTL), func() {}
}

// autoMigrate copies the legacy local store into a hosted backend on first
// start. It never blocks startup on failure.
func autoMigrate(ctx context.Context, cfg shared.Config, target domain.Store) {
	if cfg.StorageBackend == shared.BackendFile {
		return
	}
	if _, err := os.Stat(cfg.LegacyStorePath); err != nil {
		return
	}
	legacy, err := filestore.Open(cfg.LegacyStorePath)
	if err != nil {
		log.Warn().Err(err).Msg("legacy store unreadable, skipping migration")
		return
	}
	svc := app.NewMigrationService(legacy, target, cfg.MigrationMarker, cfg.MigrationWorkers)
	should, err := svc.ShouldRun(ctx)
	if err != nil || !should {
		return
	}
	report, err := svc.Run(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("startup migration failed")
		return
	}
	log.Info().Int("migrated", report.MigratedCount).Int("skipped", report.Skipped).Msg("startup migration done")
}
