package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/pageza/shift-scheduler/internal/config"
)

func main() {
	migrationsPath := flag.String("path", "internal/techstore/migrations", "Path to migrations directory")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: migrate [up|down]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	command := flag.Arg(0)
	switch command {
	case "up":
		runMigrationsUp(cfg.DatabaseURL, *migrationsPath)
	case "down":
		runMigrationsDown(cfg.DatabaseURL, *migrationsPath)
	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func runMigrationsUp(databaseURL, migrationsPath string) {
	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsPath), databaseURL)
	if err != nil {
		log.Fatalf("Failed to create migrate instance: %v", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	log.Println("Migrations applied successfully")
}

func runMigrationsDown(databaseURL, migrationsPath string) {
	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsPath), databaseURL)
	if err != nil {
		log.Fatalf("Failed to create migrate instance: %v", err)
	}
	defer m.Close()

	if err := m.Steps(-1); err != nil {
		log.Fatalf("Failed to rollback migration: %v", err)
	}
	log.Println("Migration rolled back successfully")
}
