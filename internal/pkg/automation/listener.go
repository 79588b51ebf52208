package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/memexshot/memexshot/app/models"
	"github.com/memexshot/memexshot/app/repository"
	"github.com/memexshot/memexshot/internal/pkg/config"
	"github.com/memexshot/memexshot/internal/pkg/metrics/counter"
)

// Listener watches the coins table for rows that are pending with a synced
// image and drives them through the runner one at a time. The status CAS on
// claim makes concurrent listeners safe, but the intended deployment is a
// single instance per desktop session.
type Listener struct {
	cfg    *config.AutomationConfig
	coins  repository.CoinRepository
	runner Runner

	// seen guards against reprocessing a coin whose status update raced a
	// poll within this process
	seen map[uint]struct{}
	now  func() time.Time
}

// NewListener creates an automation listener
func NewListener(cfg *config.AutomationConfig, coins repository.CoinRepository, runner Runner) *Listener {
	return &Listener{
		cfg:    cfg,
		coins:  coins,
		runner: runner,
		seen:   make(map[uint]struct{}),
		now:    time.Now,
	}
}

// Run polls until the context is cancelled
func (l *Listener) Run(ctx context.Context) {
	log.Info("[Automation] Listening for ready coins")

	for {
		interval := l.cfg.PollInterval
		if err := l.Tick(ctx); err != nil {
			log.Errorf("[Automation] Tick failed: %v", err)
			interval = 2 * l.cfg.PollInterval
		}

		select {
		case <-ctx.Done():
			log.Info("[Automation] Stopping")
			return
		case <-time.After(interval):
		}
	}
}

// Tick claims and runs every ready coin, oldest first
func (l *Listener) Tick(ctx context.Context) error {
	coins, err := l.coins.ListReady()
	if err != nil {
		return fmt.Errorf("check ready coins: %w", err)
	}

	for i := range coins {
		coin := &coins[i]
		if _, ok := l.seen[coin.ID]; ok {
			continue
		}

		if err := l.process(ctx, coin); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.cfg.BetweenCoins):
		}
	}
	return nil
}

// process claims one coin and drives it to a terminal status
func (l *Listener) process(ctx context.Context, coin *models.Coin) error {
	err := l.coins.UpdateStatus(coin.ID, models.CoinStatusPending, models.CoinStatusProcessing, nil)
	if errors.Is(err, repository.ErrStatusConflict) {
		// Another listener claimed it first
		log.Warnf("[Automation] Coin %s (%s) already claimed", coin.Ticker, coin.TweetID)
		l.seen[coin.ID] = struct{}{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("claim coin %d: %w", coin.ID, err)
	}
	l.seen[coin.ID] = struct{}{}

	log.Infof("[Automation] Starting creation for %s by @%s", coin.Ticker, coin.TwitterUser)
	if !l.countdown(ctx) {
		// Shutdown before the run started, release the claim
		if err := l.coins.UpdateStatus(coin.ID, models.CoinStatusProcessing, models.CoinStatusPending, nil); err != nil {
			log.Errorf("[Automation] Failed to release coin %d: %v", coin.ID, err)
		}
		delete(l.seen, coin.ID)
		return ctx.Err()
	}

	if err := l.runner.CreateCoin(ctx, coin); err != nil {
		log.Errorf("[Automation] Creation failed for %s: %v", coin.Ticker, err)
		if uerr := l.coins.UpdateStatus(coin.ID, models.CoinStatusProcessing, models.CoinStatusFailed, map[string]interface{}{
			"error_message": err.Error(),
		}); uerr != nil {
			return fmt.Errorf("mark coin %d failed: %w", coin.ID, uerr)
		}
		counter.Add(counter.EventCoinsFailed)
		return nil
	}

	processedAt := l.now()
	if err := l.coins.UpdateStatus(coin.ID, models.CoinStatusProcessing, models.CoinStatusCompleted, map[string]interface{}{
		"processed_at": &processedAt,
	}); err != nil {
		return fmt.Errorf("mark coin %d completed: %w", coin.ID, err)
	}
	counter.Add(counter.EventCoinsCompleted)
	log.Infof("[Automation] Creation completed for %s", coin.Ticker)
	return nil
}

// countdown waits StartDelay before the runner touches the screen, logging
// each second so an operator can abort. Returns false if the context ended.
func (l *Listener) countdown(ctx context.Context) bool {
	delay := l.cfg.StartDelay
	if delay <= 0 {
		return true
	}

	secs := int(delay / time.Second)
	for i := secs; i > 0; i-- {
		log.Infof("[Automation] Starting in %d...", i)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(time.Second):
		}
	}
	// Sub-second remainder
	rem := delay - time.Duration(secs)*time.Second
	if rem > 0 {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(rem):
		}
	}
	return true
}
