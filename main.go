package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"bazaar/internal/app"
	"bazaar/internal/config"
	"bazaar/internal/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	server, err := newServer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on port %s", cfg.AppPort)
		if err := server.Fiber.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := server.Fiber.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	// In-flight notifications are drained before the broker connection closes.
	server.Close()
	log.Println("Server gracefully stopped")
}

// newServer opens and migrates the database, then assembles the application.
func newServer(cfg *config.Config) (*app.App, error) {
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	server, err := app.New(cfg, db)
	if err != nil {
		return nil, err
	}
	if cfg.SeedDemoData {
		if err := server.SeedDemoData(context.Background()); err != nil {
			server.Close()
			return nil, err
		}
	}
	return server, nil
}
