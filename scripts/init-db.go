package main

import (
	"context"
	"fmt"
	"os"

	"coffee_shop/internal/config"
	"coffee_shop/internal/database"
	"coffee_shop/internal/logger"
	"coffee_shop/internal/migrations"
)

func main() {
	fmt.Println("Initializing database...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load config:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to connect to database:", err)
		os.Exit(1)
	}
	defer database.Close(db)

	// Create tables and the default menu
	if err := migrations.RunMigrations(context.Background(), db, log); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to migrate database:", err)
		os.Exit(1)
	}

	fmt.Println("Database initialization completed successfully!")
}
