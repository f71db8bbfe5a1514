// Shamba - USSD customer interrogation server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/mavunolabs/shamba/internal/api"
	"github.com/mavunolabs/shamba/internal/boundary"
	"github.com/mavunolabs/shamba/internal/config"
	"github.com/mavunolabs/shamba/internal/interrogation"
	"github.com/mavunolabs/shamba/internal/messaging"
	"github.com/mavunolabs/shamba/internal/middleware"
	"github.com/mavunolabs/shamba/internal/places"
	"github.com/mavunolabs/shamba/internal/questionnaire"
	"github.com/mavunolabs/shamba/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	if err := seedReferenceData(context.Background(), repo, cfg); err != nil {
		slog.Error("Failed to seed reference data", "error", err)
		os.Exit(1)
	}

	// Build the school lookup index from the full corpus.
	schools, err := repo.ListSchools(context.Background())
	if err != nil {
		slog.Error("Failed to load school corpus", "error", err)
		os.Exit(1)
	}
	schoolIndex, err := places.NewIndex(schools)
	if err != nil {
		slog.Error("Failed to build school index", "error", err)
		os.Exit(1)
	}
	slog.Info("School index ready", "entries", schoolIndex.Size())

	// Wire the dialog engine.
	welcome := messaging.NewWelcomeScheduler(repo, messaging.LogMessenger{}, cfg.WelcomeDelay, nil)
	resolver := boundary.NewStoreResolver(repo)
	registration := interrogation.NewRegistration(repo, resolver, schoolIndex, cfg.Country, welcome, time.Now)

	// Registration first: it also breaks bid ties.
	directors := []interrogation.Director{registration}
	if cfg.SurveyDir != "" {
		defs, err := questionnaire.LoadDir(cfg.SurveyDir)
		if err != nil {
			slog.Error("Failed to load survey definitions", "error", err)
			os.Exit(1)
		}
		for _, def := range defs {
			directors = append(directors, interrogation.NewSurvey(def, repo, time.Now))
			slog.Info("Survey flow loaded", "title", def.Title, "questions", len(def.Questions))
		}
	}
	registry := interrogation.NewRegistry(directors...)
	manager := interrogation.NewManager(repo, registry, cfg.SessionStaleness, cfg.DefaultLanguage, time.Now)

	gatewayHandler := api.NewHandler(manager, repo)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.GatewayAuth(cfg.GatewayTokens))

	gatewayHandler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store.StartSessionSweeper(ctx, repo, cfg.SessionStaleness)
	slog.Info("Session sweeper started", "staleness", cfg.SessionStaleness)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
