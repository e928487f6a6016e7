package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ajharbinger/freight-ops-api/internal/database"
	"github.com/ajharbinger/freight-ops-api/internal/logger"
	"github.com/ajharbinger/freight-ops-api/internal/services"
	"github.com/ajharbinger/freight-ops-api/pkg/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.New()

	limit := flag.Int("limit", cfg.IntentBackfillLimit, "maximum number of leads to score")
	rescore := flag.Bool("rescore", false, "rescore leads that already have an intent score")
	dryRun := flag.Bool("dry-run", false, "score without writing results")
	flag.Parse()

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

	// Stop between leads on Ctrl+C; scored leads stay scored
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := services.NewServices(db.DB, cfg, appLogger)
	stats, err := svc.Intent.Backfill(ctx, services.BackfillOptions{
		Limit:   *limit,
		Rescore: *rescore,
		DryRun:  *dryRun,
	})
	if err != nil {
		appLogger.Fatal("Intent backfill failed", err)
	}

	fmt.Printf("Intent backfill complete\n")
	fmt.Printf("   • Scanned: %d\n", stats.Scanned)
	fmt.Printf("   • Updated: %d\n", stats.Updated)
	fmt.Printf("   • High intent: %d\n", stats.HighIntent)
	fmt.Printf("   • Failed: %d\n", stats.Failed)
	fmt.Printf("   • Dry run: %v\n", stats.DryRun)
	fmt.Printf("   • Duration: %v\n", stats.Duration)

	if stats.Failed > 0 {
		os.Exit(1)
	}
}
