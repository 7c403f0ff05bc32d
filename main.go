package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"bizmail_server/config"
	"bizmail_server/internal/bootstrap"
	"bizmail_server/pkg/logger"

	"github.com/joho/godotenv"
)

const (
	shutdownTimeout = 30 * time.Second // Maximum time to wait for graceful shutdown
	serviceName     = "bizmail-api"
)

func main() {
	// Load .env file if exists (for local development)
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Init(logger.Config{Level: logger.LevelInfo, Service: serviceName})
		logger.Fatal("Failed to load config: %v", err)
	}

	level := logger.LevelInfo
	if cfg.IsDevelopment() {
		level = logger.LevelDebug
	}
	if cfg.LogLevel != "" {
		level = logger.ParseLevel(cfg.LogLevel)
	}
	logger.Init(logger.Config{
		Level:   level,
		Service: serviceName,
		Pretty:  cfg.IsDevelopment(),
	})
	if envErr != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	runAPI(cfg)
}

func runAPI(cfg *config.Config) {
	app, cleanup, err := bootstrap.NewAPI(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize API: %v", err)
	}
	defer cleanup()

	// Graceful shutdown with timeout
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API server (timeout: %v)...", shutdownTimeout)

		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Error("Error shutting down: %v", err)
			return
		}
		logger.Info("API server shut down gracefully")
	}()

	addr := ":" + cfg.Port
	logger.Info("Starting API server on %s", addr)
	if err := app.Listen(addr); err != nil {
		logger.Error("Server stopped: %v", err)
	}
}
