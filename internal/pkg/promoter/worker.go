package promoter

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

// Worker promotes at most one queued tweet at a time into the coins table.
// The busy gate on the coins table is the system's admission control: the
// downstream UI automation cannot run two creations concurrently, so a second
// item is never admitted while one is pending or processing.
type Worker struct {
	cfg   *config.PromoterConfig
	queue repository.QueueRepository
	coins repository.CoinRepository
	lock  ClaimLock

	ticks int
}

// NewWorker creates a promoter
func NewWorker(cfg *config.PromoterConfig, queue repository.QueueRepository, coins repository.CoinRepository, lock ClaimLock) *Worker {
	return &Worker{
		cfg:   cfg,
		queue: queue,
		coins: coins,
		lock:  lock,
	}
}

// Run polls until the context is cancelled
func (w *Worker) Run(ctx context.Context) {
	log.Info("[Promoter] Processing tweets from queue to coins table")

	for {
		interval := w.cfg.PollInterval
		if err := w.Tick(ctx); err != nil {
			log.Errorf("[Promoter] Tick failed: %v", err)
			interval = 3 * w.cfg.PollInterval
		}

		select {
		case <-ctx.Done():
			log.Info("[Promoter] Stopping")
			return
		case <-time.After(interval):
		}
	}
}

// Tick runs one promotion attempt plus periodic queue housekeeping
func (w *Worker) Tick(ctx context.Context) error {
	w.ticks++
	if w.ticks >= w.cfg.CleanupEvery {
		w.ticks = 0
		w.cleanup()
	}

	release, ok, err := w.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire claim lock: %w", err)
	}
	if !ok {
		log.Debug("[Promoter] Another promoter holds the claim lock")
		return nil
	}
	defer release()

	// The busy check and the queue read must happen under the lock: another
	// promoter finishing a promotion between a stale gate read and our claim
	// would put a second coin in flight.
	active, err := w.coins.CountActive()
	if err != nil {
		// Assume busy on error rather than risk double admission
		return fmt.Errorf("check active processing: %w", err)
	}
	if active > 0 {
		log.Debug("[Promoter] System busy with active processing")
		return nil
	}

	item, err := w.queue.NextQueued()
	if err != nil {
		return fmt.Errorf("get next tweet: %w", err)
	}
	if item == nil {
		return nil
	}

	return w.promote(item)
}

// promote moves one queue item into the coins table. The source row walks
// queued -> processing -> completed; any failure in between reverts it to
// queued so a later tick retries the transfer.
func (w *Worker) promote(item *models.TweetQueueItem) error {
	log.Infof("[Promoter] Processing queued tweet: %s from @%s", item.Ticker, item.TwitterUser)

	err := w.queue.UpdateStatus(item.ID, models.QueueStatusQueued, models.QueueStatusProcessing, nil)
	if errors.Is(err, repository.ErrStatusConflict) {
		// Another promoter claimed it between our read and the CAS
		return nil
	}
	if err != nil {
		return fmt.Errorf("claim queue item %d: %w", item.ID, err)
	}

	coin := &models.Coin{
		TweetID:        item.TweetID,
		TwitterUser:    item.TwitterUser,
		Ticker:         item.Ticker,
		Name:           item.Name,
		Description:    item.Description,
		Website:        item.Website,
		Twitter:        item.Twitter,
		ImageURL:       item.ImageURL,
		ImageSynced:    false,
		FollowersCount: item.FollowersCount,
		Status:         models.CoinStatusPending,
	}

	if err := w.coins.Create(coin); err != nil && !errors.Is(err, repository.ErrDuplicateTweet) {
		// Transfer failed: put the item back so it is retried next tick
		if revertErr := w.queue.UpdateStatus(item.ID, models.QueueStatusProcessing, models.QueueStatusQueued, nil); revertErr != nil {
			log.Errorf("[Promoter] Failed to revert queue item %d: %v", item.ID, revertErr)
		}
		return fmt.Errorf("insert coin for %s: %w", item.Ticker, err)
	}
	// A duplicate coin means a previous promotion crashed between insert and
	// completion; finishing the source transition below makes it whole.

	now := time.Now()
	err = w.queue.UpdateStatus(item.ID, models.QueueStatusProcessing, models.QueueStatusCompleted,
		map[string]interface{}{"processed_at": &now})
	if err != nil {
		return fmt.Errorf("complete queue item %d: %w", item.ID, err)
	}

	counter.Add(counter.EventCoinsPromoted)
	log.Infof("[Promoter] Moved to processing: %s from @%s", item.Ticker, item.TwitterUser)
	return nil
}

// cleanup purges transferred queue rows older than the retention window
func (w *Worker) cleanup() {
	cutoff := time.Now().Add(-w.cfg.RetentionWindow)
	removed, err := w.queue.DeleteCompletedBefore(cutoff)
	if err != nil {
		log.Errorf("[Promoter] Error cleaning queue: %v", err)
		return
	}
	if removed > 0 {
		log.Infof("[Promoter] Cleaned up %d old queue items", removed)
	}
}
