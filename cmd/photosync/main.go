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
	"github.com/memexshot/memexshot/internal/pkg/photosync"
)

func main() {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	cfg, err := config.LoadPhotoSync()
	if err != nil {
		log.Fatalf("[PhotoSync] %v", err)
	}

	worker, err := photosync.NewWorker(
		cfg,
		repository.GetGlobalFactory().GetCoinRepository(),
		photosync.NewHTTPDownloader(),
		photosync.PhotosAppImporter{},
	)
	if err != nil {
		log.Fatalf("[PhotoSync] %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker.Run(ctx)
}
