// Command server runs the Hatch web app: the JSON API, the login-gated pages
// and the generated asset files.
//
// Configuration comes from the environment (optionally seeded from a .env
// file); see internal/config for the recognised variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/go-hatch-backend/docs"
	"github.com/tbourn/go-hatch-backend/internal/ai"
	"github.com/tbourn/go-hatch-backend/internal/auth"
	"github.com/tbourn/go-hatch-backend/internal/config"
	httpapi "github.com/tbourn/go-hatch-backend/internal/http"
	"github.com/tbourn/go-hatch-backend/internal/observability"
	"github.com/tbourn/go-hatch-backend/internal/repo"
	"github.com/tbourn/go-hatch-backend/internal/services"
	"github.com/tbourn/go-hatch-backend/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 15 * time.Second

// recordStore is satisfied by both repo.JSONStore and repo.SQLStore.
type recordStore interface {
	services.EggRepo
	services.CreatureRepo
}

// @title       Hatch API
// @version     1.0
// @description Create eggs from descriptions or photos, incubate them, and hatch AI-generated creatures.
// @BasePath    /
func main() {
	// A missing .env is normal in containers.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	sysutil.SetLogLevel(cfg.LogLevel)
	sysutil.InstallLogger(sysutil.NewLogger(os.Stderr, cfg.LogPretty, cfg.OTEL.ServiceName))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	for _, w := range cfg.Warnings() {
		log.Warn().Msg(w)
	}

	httpClient := observability.NewHTTPClient(cfg.OpenAI.Timeout)
	provider := ai.New(ai.Config{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		ImageModel:  cfg.OpenAI.ImageModel,
		ChatModel:   cfg.OpenAI.ChatModel,
		SpeechModel: cfg.OpenAI.SpeechModel,
		Voice:       cfg.OpenAI.Voice,
		HTTPClient:  httpClient,
	})

	store, closeStore, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	assets, err := repo.NewAssetStore(cfg.Storage.StaticRoot)
	if err != nil {
		return fmt.Errorf("assets: %w", err)
	}

	hatchery := services.NewHatchery(provider, store, store, assets, httpClient)
	sessions := auth.NewSessionManager(cfg.Auth.SecretKey, cfg.Auth.Password, cfg.Auth.SessionTTL)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		Hatchery: hatchery,
		Assets:   assets,
		Sessions: sessions,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("env", cfg.Env).
			Str("store", cfg.Storage.Backend).
			Str("version", version).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

// openStore builds the configured record store and returns its closer.
func openStore(cfg config.StorageConfig) (recordStore, func(), error) {
	switch cfg.Backend {
	case "sqlite":
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("db dir: %w", err)
			}
		}
		db, err := repo.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := repo.AutoMigrate(db); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		closer := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return repo.NewSQLStore(db), closer, nil
	default:
		return repo.NewJSONStore(cfg.EggsFile, cfg.CreaturesFile), func() {}, nil
	}
}
