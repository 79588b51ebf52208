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
	"github.com/memexshot/memexshot/internal/pkg/replybot"
	"github.com/memexshot/memexshot/internal/pkg/solana"
	"github.com/memexshot/memexshot/internal/pkg/twitter"
)

func main() {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	cfg, err := config.LoadReplyBot()
	if err != nil {
		log.Fatalf("[ReplyBot] %v", err)
	}

	var accounts []*replybot.Account
	for _, acc := range cfg.Accounts {
		accounts = append(accounts, &replybot.Account{
			Name:   acc.Name,
			Sender: twitter.NewReplyClient(cfg.APIKey, cfg.APISecret, acc.AccessToken, acc.AccessTokenSecret),
		})
	}

	factory := repository.GetGlobalFactory()
	worker := replybot.NewWorker(
		cfg,
		factory.GetCoinRepository(),
		factory.GetReplyRepository(),
		solana.NewClient(cfg.RPCURL),
		solana.NewMetadataClient(cfg.RPCURL),
		replybot.NewAccountPool(accounts),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker.Run(ctx)
}
