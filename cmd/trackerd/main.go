package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"worktrack/internal/auth"
	"worktrack/internal/config"
	"worktrack/internal/database"
	"worktrack/internal/handler"
	"worktrack/internal/logger"
	"worktrack/internal/models"
	"worktrack/internal/repository"
	"worktrack/internal/router"
	"worktrack/internal/service"

	"go.uber.org/zap"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/local.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting tracking server",
		zap.String("env", cfg.Env),
		zap.String("config_path", *configPath),
	)

	if cfg.Server.SessionSecret == "" {
		log.Fatal("session_secret must be configured")
	}

	// Initialize database
	db, err := database.New(cfg.Storage.Path, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	// Repositories
	users := repository.NewUserRepository(db.DB)
	sessions := repository.NewSessionRepository(db.DB)
	activityLogs := repository.NewActivityLogRepository(db.DB)
	timeBlocks := repository.NewTimeBlockRepository(db.DB)
	dailyGoals := repository.NewDailyGoalRepository(db.DB)

	// Services
	sessionService := service.NewSessionService(sessions, activityLogs, log.Logger)
	analyticsService := service.NewAnalyticsService(users, sessions, log.Logger)

	// Auth
	cookieTTL := time.Duration(cfg.Server.CookieTTLHrs) * time.Hour
	authManager := auth.NewManager(users, cfg.Server.SessionSecret, cookieTTL, log.Logger)

	if err := seedAdminUser(users, log.Logger); err != nil {
		log.Fatal("Failed to seed admin user", zap.Error(err))
	}

	// HTTP surface
	handlers := router.Handlers{
		Auth:     handler.NewAuthHandler(authManager, users, log.Logger),
		Sessions: handler.NewSessionHandler(sessionService, log.Logger),
		Users:    handler.NewUserHandler(users, sessionService, analyticsService, log.Logger),
		Planning: handler.NewPlanningHandler(timeBlocks, dailyGoals, log.Logger),
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router.New(handlers, authManager, log.Logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("HTTP server shutdown error", zap.Error(err))
	}

	log.Info("Tracking server stopped")
}

// seedAdminUser creates the bootstrap admin account on an empty database.
// Credentials come from the environment so they never land in config files.
func seedAdminUser(users *repository.UserRepository, log *zap.Logger) error {
	count, err := users.Count(context.Background())
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		log.Warn("Empty database and no ADMIN_USERNAME/ADMIN_PASSWORD set; skipping admin seed")
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := users.Create(context.Background(), username, hash, "Administrator", models.RoleAdmin); err != nil {
		return err
	}
	log.Info("Seeded admin user", zap.String("username", username))
	return nil
}
