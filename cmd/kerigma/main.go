package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/kerigma/internal/config"
	"github.com/dukerupert/kerigma/internal/database"
	"github.com/dukerupert/kerigma/internal/logging"
	"github.com/dukerupert/kerigma/internal/seed"
	"github.com/dukerupert/kerigma/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel)

	// Records live only as long as the process.
	db, err := database.Open(database.InMemory)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := server.New(db, cfg, logger)

	if cfg.Seed {
		n, err := seed.Load(context.Background(), srv.FamilyStore())
		if err != nil {
			logger.Error("failed to load seed families", "error", err)
			os.Exit(1)
		}
		logger.Info("seed families loaded", "count", n)
	}
	if cfg.Insight.APIKey == "" {
		logger.Warn("no GEMINI_API_KEY set, insights will return the fallback message")
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Insight calls may take up to 30s upstream.
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("kerigma running", "addr", "http://localhost:"+cfg.Port, "timezone", cfg.Location.String())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
