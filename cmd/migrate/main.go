package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/templui/projectdesk/internal/config"
	"github.com/templui/projectdesk/internal/db"
	"github.com/templui/projectdesk/internal/logger"
)

// Usage: migrate [up|down]. "up" applies pending migrations, "down" rolls
// back the latest one.
func main() {
	logger.Init(logger.Options{Development: true})

	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}

	err := run(direction)
	if err != nil {
		slog.Error("migration failed", "direction", direction, "error", err)
		os.Exit(1)
	}
}

func run(direction string) error {
	driver, connection := config.LoadDatabase()

	database, err := db.Init(driver, connection)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(database) }()

	switch direction {
	case "up":
		return db.RunMigrations(database.DB, driver)
	case "down":
		return db.MigrateDown(database.DB, driver)
	default:
		return fmt.Errorf("unknown direction %q (want up or down)", direction)
	}
}
