// Command server runs the style-studio HTTP API.
//
// Startup order: env + config, logging, tracing, storage, catalog, backend
// clients, the studio workflow, then the HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/averios/go-style-studio/internal/bookmarks"
	"github.com/averios/go-style-studio/internal/catalog"
	"github.com/averios/go-style-studio/internal/config"
	"github.com/averios/go-style-studio/internal/history"
	httpapi "github.com/averios/go-style-studio/internal/http"
	"github.com/averios/go-style-studio/internal/http/handlers"
	"github.com/averios/go-style-studio/internal/infra/ai/openai"
	"github.com/averios/go-style-studio/internal/infra/closet"
	"github.com/averios/go-style-studio/internal/infra/storage"
	"github.com/averios/go-style-studio/internal/navigation"
	"github.com/averios/go-style-studio/internal/observability"
	"github.com/averios/go-style-studio/internal/repo"
	"github.com/averios/go-style-studio/internal/session"
	"github.com/averios/go-style-studio/internal/studio"
	"github.com/averios/go-style-studio/internal/sysutil"
)

const version = "0.1.0"

func main() {
	// .env is optional; real deployments configure via the environment.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Info().Str("version", version).Str("port", cfg.Port).Msg("starting style studio")

	ctx := context.Background()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(ctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("database open failed")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			log.Warn().Err(err).Msg("gorm tracing setup failed")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	idx, err := catalog.NewIndexFromFile(cfg.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("catalog load failed")
	}

	// Backend collaborators.
	analyzer := openai.NewClient(cfg.Analyzer.APIKey, cfg.Analyzer.Model)
	closetCli := closet.NewClient(cfg.Closet.BaseURL, cfg.Closet.Timeout)

	var images handlers.ImageUploader
	if cfg.ImageStore.Endpoint != "" {
		store, err := storage.New(ctx,
			cfg.ImageStore.Endpoint,
			cfg.ImageStore.Region,
			cfg.ImageStore.Bucket,
			cfg.ImageStore.AccessKey,
			cfg.ImageStore.SecretKey,
			cfg.ImageStore.UseSSL,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("image store init failed")
		}
		images = store
	} else {
		log.Warn().Msg("MINIO_ENDPOINT not set; image uploads disabled")
	}

	// Core workflow wiring.
	hist := history.NewCache(&repo.HistoryStore{DB: db}, cfg.HistoryLimit, log.Logger)
	sessions := session.NewStore(closetCli, cfg.SessionTTL)
	marks := bookmarks.NewService(closetCli)
	nav := navigation.NewBinder("/studio")
	svc := studio.New(analyzer, nav, hist, sessions, marks, idx, closetCli, log.Logger)

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, svc, images, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("stopped")
}
