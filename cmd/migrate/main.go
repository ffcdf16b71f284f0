package main

import (
	"flag"
	"os"

	"github.com/propertyapp/property-listing/pkg/config"
	"github.com/propertyapp/property-listing/pkg/database"
	"github.com/propertyapp/property-listing/pkg/logger"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(cfg.Database.URL, *direction); err != nil {
		logger.Error("Migration failed", "direction", *direction, "error", err)
		os.Exit(1)
	}
	logger.Info("Migrations applied", "direction", *direction)
}
