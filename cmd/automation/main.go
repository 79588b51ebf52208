package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2/log"

	"github.com/memexshot/memexshot/app/repository"
	"github.com/memexshot/memexshot/internal/pkg/automation"
	"github.com/memexshot/memexshot/internal/pkg/cache"
	"github.com/memexshot/memexshot/internal/pkg/config"
	"github.com/memexshot/memexshot/internal/pkg/database"
	"github.com/memexshot/memexshot/internal/pkg/env"
)

func main() {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	cfg, err := config.LoadAutomation()
	if err != nil {
		log.Fatalf("[Automation] %v", err)
	}

	runner := automation.NewExecRunner(cfg.Command)
	listener := automation.NewListener(cfg, repository.GetGlobalFactory().GetCoinRepository(), runner)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener.Run(ctx)
}
