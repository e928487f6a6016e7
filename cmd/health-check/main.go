package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ajharbinger/freight-ops-api/internal/database"
	"github.com/ajharbinger/freight-ops-api/internal/logger"
	"github.com/ajharbinger/freight-ops-api/internal/models"
	"github.com/ajharbinger/freight-ops-api/internal/services"
	"github.com/ajharbinger/freight-ops-api/pkg/config"
)

// health-check runs every probe once, stores the results and sends alerts.
// It is meant to be triggered by an external scheduler every few minutes.
func main() {
	timeout := flag.Duration("timeout", 2*time.Minute, "overall run timeout")
	failExit := flag.Bool("fail-exit", false, "exit with status 2 when any service fails")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.New()

	appLogger, err := logger.New(cfg.LogLevel, cfg.LogFormat, cfg.Environment)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer appLogger.Sync()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	svc := services.NewServices(db.DB, cfg, appLogger)
	report, err := svc.Health.Run(ctx)
	if err != nil {
		appLogger.Fatal("Health check failed", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		appLogger.Error("Failed to write report", err)
	}

	if *failExit && report.Overall == models.StatusFail {
		appLogger.Sync()
		db.Close()
		os.Exit(2)
	}
}
