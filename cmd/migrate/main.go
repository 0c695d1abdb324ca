package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/civicworks/billchat/internal/config"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	dbURL := flag.String("db-url", "", "database URL (overrides env and config)")
	configDir := flag.String("config", "configs", "path to configuration directory")
	migrationsPath := flag.String("path", "migrations", "path to migrations directory")
	flag.Parse()

	dsn, err := resolveDSN(*dbURL, *configDir)
	if err != nil {
		log.Fatalf("failed to resolve database URL: %v", err)
	}

	m, err := migrate.New("file://"+*migrationsPath, dsn)
	if err != nil {
		log.Fatalf("failed to create migrator: %v", err)
	}
	defer m.Close()

	switch *direction {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	default:
		log.Fatalf("invalid direction: %s (use 'up' or 'down')", *direction)
	}

	if err != nil && err != migrate.ErrNoChange {
		log.Fatalf("migration failed: %v", err)
	}

	v, dirty, _ := m.Version()
	fmt.Printf("migration %s complete (version: %d, dirty: %v)\n", *direction, v, dirty)
}

// resolveDSN prefers an explicit flag, then DATABASE_URL, then the same
// config file the server reads, so the migrator always targets the database
// the service is wired to.
func resolveDSN(flagURL, configDir string) (string, error) {
	if flagURL != "" {
		return flagURL, nil
	}
	if env := os.Getenv("DATABASE_URL"); env != "" {
		return env, nil
	}

	cfg := config.DefaultConfig()
	if err := config.LoadFile(configDir+"/billchat.yaml", cfg); err != nil {
		return "", err
	}
	if !cfg.Database.Configured() {
		return "", fmt.Errorf("no database configured in %s/billchat.yaml", configDir)
	}
	return cfg.Database.DSN(), nil
}
