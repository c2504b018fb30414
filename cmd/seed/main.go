package main

import (
	"log"

	"github.com/retailops/procurement/config"
	"github.com/retailops/procurement/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := database.InitializeWithOptions(&cfg.Database, true); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	if err := database.SeedData(database.DB); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("Database seeded successfully")
}
