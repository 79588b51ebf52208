package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2/log"

	"github.com/memexshot/memexshot/app/repository"
	"github.com/memexshot/memexshot/internal/pkg/cache"
	"github.com/memexshot/memexshot/internal/pkg/config"
	"github.com/memexshot/memexshot/internal/pkg/database"
	"github.com/memexshot/memexshot/internal/pkg/env"
	"github.com/memexshot/memexshot/internal/pkg/ingest"
	"github.com/memexshot/memexshot/internal/pkg/ratelimit"
	"github.com/memexshot/memexshot/internal/pkg/twitter"
)

func main() {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	cfg, err := config.LoadIngest()
	if err != nil {
		log.Fatalf("[IngestBot] %v", err)
	}

	feed := twitter.NewClient(cfg.BearerToken)
	limiter := ratelimit.NewDailyLimiter(cache.GetClient(), cfg.MaxDailyPerUser)
	worker := ingest.NewWorker(cfg, feed, repository.GetGlobalFactory().GetQueueRepository(), limiter)

	if err := worker.Seed(); err != nil {
		log.Fatalf("[IngestBot] Failed to seed from queue table: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker.Run(ctx)
}
