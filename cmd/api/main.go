package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"debandi-store/internal/config"
	"debandi-store/internal/database"
	"debandi-store/internal/logger"
	"debandi-store/internal/server"

	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The context is used to inform the server it has 30 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Close server resources
	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {
	// Load configuration. A missing or weak JWT secret aborts startup here.
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("invalid configuration: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting storefront API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	// Initialize database unless the in-process store is selected
	var db *database.Service
	if cfg.Database.Driver == "postgres" {
		db, err = database.New(cfg.Database)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}

		health := db.Health(context.Background())
		log.Info("Database health check", zap.Any("health", health))

		if err := database.RunMigrations(db.DB(), "migrations", log); err != nil {
			log.Fatal("Failed to run migrations", zap.Error(err))
		}
		log.Info("Database migrations completed successfully")
	} else {
		log.Info("Using in-process store; data will not survive a restart")
	}

	// Create server
	var srv *server.Server
	if db != nil {
		srv = server.NewServer(cfg, log, db.DB())
	} else {
		srv = server.NewServer(cfg, log, nil)
	}

	// Seed default accounts and catalog
	if err := srv.Seed(context.Background()); err != nil {
		log.Fatal("Failed to seed default data", zap.Error(err))
	}

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info("Graceful shutdown complete")
}
