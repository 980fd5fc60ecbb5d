package main

import (
	"log"

	"promotion-campaigns/internal/config"
	"promotion-campaigns/internal/database"
)

func main() {
	// Load configuration
	cfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	if err := database.Connect(cfg.Database.Driver, cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Printf("Applying migrations to %s database", cfg.Database.Driver)
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	log.Println("✅ Migrations applied successfully!")
}
