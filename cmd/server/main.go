package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/studysync/sync-server-go/internal/config"
	"github.com/studysync/sync-server-go/internal/database"
	"github.com/studysync/sync-server-go/internal/handler"
	"github.com/studysync/sync-server-go/internal/identity"
	"github.com/studysync/sync-server-go/internal/jobs"
	"github.com/studysync/sync-server-go/internal/middleware"
	"github.com/studysync/sync-server-go/internal/redis"
	"github.com/studysync/sync-server-go/internal/repository"
	"github.com/studysync/sync-server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	pairingRepo := repository.NewPairingRepository(db.DB)
	deviceRepo := repository.NewDeviceRepository(db.DB)
	ingestRepo := repository.NewIngestRepository(db.DB)

	verifier := identity.NewJWTVerifier(cfg.IDTokenSecret, cfg.IDTokenIssuer)

	pairingService := service.NewPairingService(pairingRepo, deviceRepo, verifier, cfg.PairingTTL())
	deviceService := service.NewDeviceService(deviceRepo)
	ingestService := service.NewIngestService(db, deviceRepo)
	assistService := service.NewAssistService(cfg.GeminiAPIKey, cfg.AssistModel)

	rateLimiter := service.NewRateLimiter(redisClient.Client)
	pairRateLimit := middleware.NewIPRateLimitMiddleware(
		rateLimiter, config.PairRateLimitPerWindow, config.PairRateLimitWindow, "pair",
	)
	adminAuth := middleware.NewAdminAuthMiddleware(cfg.AdminPasswordHash)
	securityHeaders := middleware.NewSecurityHeadersMiddleware(cfg.IsProduction())
	bodyLimit := middleware.NewBodyLimitMiddleware(0)

	enableDevConfirm := cfg.EnableDevConfirm && !cfg.IsProduction()
	if enableDevConfirm {
		log.Warn().Msg("dev confirm endpoint enabled: identity verification can be bypassed")
	}

	pairingHandler := handler.NewPairingHandler(pairingService, enableDevConfirm)
	ingestHandler := handler.NewIngestHandler(ingestService)
	adminHandler := handler.NewAdminHandler(deviceService)
	assistHandler := handler.NewAssistHandler(assistService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimit.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/pair", func(r chi.Router) {
		r.Use(pairRateLimit.Handler)
		r.Mount("/", pairingHandler.Routes())
	})

	r.Post("/ingest", ingestHandler.Ingest)
	r.Get("/assist/ping", assistHandler.Ping)

	r.Route("/admin", func(r chi.Router) {
		r.Use(securityHeaders.Handler)
		r.Use(adminAuth.Handler)
		r.Mount("/", adminHandler.Routes())
	})

	cleanupJob := jobs.NewCleanupJob(pairingRepo, ingestRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
