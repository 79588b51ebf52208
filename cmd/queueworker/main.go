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
	"github.com/memexshot/memexshot/internal/pkg/promoter"
)

func main() {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	cfg, err := config.LoadPromoter()
	if err != nil {
		log.Fatalf("[QueueWorker] %v", err)
	}

	factory := repository.GetGlobalFactory()
	lock := promoter.NewRedisClaimLock(cache.GetClient())
	worker := promoter.NewWorker(cfg, factory.GetQueueRepository(), factory.GetCoinRepository(), lock)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker.Run(ctx)
}
