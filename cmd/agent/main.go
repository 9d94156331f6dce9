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

	"worktrack/internal/client"
	"worktrack/internal/clock"
	"worktrack/internal/config"
	"worktrack/internal/controller"
	"worktrack/internal/logger"
	"worktrack/internal/queue"
	"worktrack/internal/server"
	"worktrack/internal/tracker"

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

	log.Info("Starting tracking agent",
		zap.String("env", cfg.Env),
		zap.String("backend_url", cfg.Backend.BaseURL),
	)

	if cfg.Agent.Username == "" || cfg.Agent.Password == "" {
		log.Fatal("agent.username and agent.password must be configured")
	}

	// Initialize API client
	apiClient, err := client.NewAPIClient(
		cfg.Backend.BaseURL,
		time.Duration(cfg.Backend.Timeout)*time.Second,
		log.Logger,
	)
	if err != nil {
		log.Fatal("Failed to create API client", zap.Error(err))
	}

	ctx := context.Background()
	if err := apiClient.HealthCheck(ctx); err != nil {
		log.Fatal("Backend unreachable", zap.Error(err))
	}

	user, err := apiClient.Login(ctx, cfg.Agent.Username, cfg.Agent.Password)
	if err != nil {
		log.Fatal("Login failed", zap.Error(err))
	}
	log.Info("Authenticated", zap.String("username", user.Username))

	// Offline queue for activity logs that fail to reach the backend
	uploads, err := queue.NewUploadQueue(cfg.Agent.QueuePath, log.Logger)
	if err != nil {
		log.Fatal("Failed to open upload queue", zap.Error(err))
	}
	defer uploads.Close()

	// Input server: the browser extension posts qualifying input here
	inputServer := server.NewInputServer(log.Logger)
	inputAddr := fmt.Sprintf("localhost:%d", cfg.Agent.InputPort)
	inputHTTPServer := &http.Server{
		Addr:         inputAddr,
		Handler:      inputServer,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info("Input server listening", zap.String("address", inputAddr))
		if err := inputHTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Input server error", zap.Error(err))
		}
	}()

	// Activity tracker fed by the input server
	activityTracker := tracker.NewActivityTracker(
		inputServer,
		time.Duration(cfg.Tracking.TickInterval)*time.Second,
		time.Duration(cfg.Tracking.IdleThreshold)*time.Second,
		log.Logger,
	)

	// Session controller reconciling tracker and backend
	sessionController := controller.NewSessionController(apiClient, activityTracker, uploads, log.Logger)

	session, err := sessionController.StartSession(ctx)
	if err != nil {
		log.Fatal("Failed to start session", zap.Error(err))
	}
	log.Info("Tracking session started", zap.Int64("session_id", session.ID))

	// Periodic status line and queue flushing
	statusTicker := time.NewTicker(30 * time.Second)
	flushTicker := time.NewTicker(time.Minute)
	stopBackground := make(chan struct{})
	go func() {
		for {
			select {
			case <-statusTicker.C:
				snapshot := activityTracker.GetSnapshot()
				log.Info("Tracking status",
					zap.String("state", string(snapshot.State)),
					zap.String("active", clock.FormatDuration(snapshot.ActiveSeconds)),
					zap.String("active_friendly", clock.FormatDurationFriendly(snapshot.ActiveSeconds)),
				)
			case <-flushTicker.C:
				sessionController.FlushPendingUploads(context.Background())
			case <-stopBackground:
				return
			}
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Received shutdown signal", zap.String("signal", sig.String()))

	statusTicker.Stop()
	flushTicker.Stop()
	close(stopBackground)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := inputHTTPServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("Input server shutdown error", zap.Error(err))
	}

	// End the session; on failure the tracker keeps its counters, so a
	// second attempt still reports everything accrued.
	finalized, err := sessionController.EndSession(shutdownCtx)
	if err != nil {
		log.Error("Failed to end session; retrying once", zap.Error(err))
		finalized, err = sessionController.EndSession(shutdownCtx)
	}
	if err != nil {
		log.Error("Session could not be ended; it remains open on the server", zap.Error(err))
		activityTracker.Stop()
	} else {
		log.Info("Session ended",
			zap.Int64("session_id", finalized.ID),
			zap.String("active", clock.FormatDuration(finalized.ActiveDuration)),
			zap.String("total", clock.FormatDuration(finalized.TotalDuration)),
		)
	}

	// Drop entries that exhausted their retries; quick, best-effort.
	if err := uploads.CleanupOld(7*24*time.Hour, 10); err != nil {
		log.Error("Failed to cleanup upload queue", zap.Error(err))
	}

	if err := apiClient.Logout(context.Background()); err != nil {
		log.Warn("Logout failed", zap.Error(err))
	}

	log.Info("Tracking agent stopped")
}
