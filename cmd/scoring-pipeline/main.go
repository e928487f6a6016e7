package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ajharbinger/freight-ops-api/internal/database"
	"github.com/ajharbinger/freight-ops-api/internal/logger"
	"github.com/ajharbinger/freight-ops-api/internal/services"
	"github.com/ajharbinger/freight-ops-api/pkg/config"
)

// pipelineConfig controls the prospecting fit scoring loop
type pipelineConfig struct {
	BatchSize       int
	IntervalMinutes int
	Rescore         bool
}

func main() {
	fmt.Println("Prospecting Fit Scoring Pipeline")
	fmt.Println("================================")

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

	fit := services.NewServices(db.DB, cfg, appLogger).Fit
	pc := parsePipelineConfig()

	fmt.Printf("Pipeline Configuration:\n")
	fmt.Printf("   • Batch Size: %d accounts\n", pc.BatchSize)
	fmt.Printf("   • Interval: %d minutes\n", pc.IntervalMinutes)
	fmt.Printf("   • Rescore: %v\n", pc.Rescore)
	fmt.Printf("   • Website Probe: %v\n", cfg.FitWebsiteProbe)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run := func() {
		stats, err := fit.ScoreAccounts(ctx, services.FitBatchOptions{Limit: pc.BatchSize, Rescore: pc.Rescore})
		if err != nil {
			appLogger.Error("Fit scoring cycle failed", err)
			return
		}
		fmt.Printf("Cycle complete: scanned %d, scored %d, queued %d, failed %d (%dms)\n",
			stats.Scanned, stats.Scored, stats.Queued, stats.Failed, stats.DurationMs)
	}

	if len(os.Args) > 1 && os.Args[1] == "--once" {
		run()
		return
	}

	ticker := time.NewTicker(time.Duration(pc.IntervalMinutes) * time.Minute)
	defer ticker.Stop()

	fmt.Println("Fit scoring pipeline is running, press Ctrl+C to stop")
	run()
	for {
		select {
		case <-ctx.Done():
			fmt.Println("Shutdown signal received, pipeline stopped")
			return
		case <-ticker.C:
			run()
		}
	}
}

// parsePipelineConfig reads pipeline settings from the environment
func parsePipelineConfig() pipelineConfig {
	pc := pipelineConfig{BatchSize: services.DefaultFitBatchLimit, IntervalMinutes: 60}

	if val := os.Getenv("PIPELINE_BATCH_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			pc.BatchSize = parsed
		}
	}
	if val := os.Getenv("PIPELINE_INTERVAL_MINUTES"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			pc.IntervalMinutes = parsed
		}
	}
	if val := os.Getenv("PIPELINE_RESCORE"); val != "" {
		pc.Rescore = val == "true"
	}
	return pc
}
