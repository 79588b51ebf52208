package promoter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memexshot/memexshot/app/models"
	"github.com/memexshot/memexshot/app/repository"
	"github.com/memexshot/memexshot/internal/pkg/config"
)

type fakeQueueRepo struct {
	items   []*models.TweetQueueItem
	nextID  uint
	deleted int64
}

func newFakeQueueRepo() *fakeQueueRepo {
	return &fakeQueueRepo{nextID: 1}
}

func (r *fakeQueueRepo) add(item *models.TweetQueueItem) *models.TweetQueueItem {
	item.ID = r.nextID
	r.nextID++
	if item.Status == "" {
		item.Status = models.QueueStatusQueued
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	r.items = append(r.items, item)
	return item
}

func (r *fakeQueueRepo) Create(item *models.TweetQueueItem) error {
	for _, existing := range r.items {
		if existing.TweetID == item.TweetID {
			return repository.ErrDuplicateTweet
		}
	}
	r.add(item)
	return nil
}

func (r *fakeQueueRepo) GetByID(id uint) (*models.TweetQueueItem, error) {
	for _, item := range r.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, assert.AnError
}

func (r *fakeQueueRepo) GetByTweetID(tweetID string) (*models.TweetQueueItem, error) {
	for _, item := range r.items {
		if item.TweetID == tweetID {
			return item, nil
		}
	}
	return nil, assert.AnError
}

func (r *fakeQueueRepo) ListTweetIDs() ([]string, error) { return nil, nil }
func (r *fakeQueueRepo) NewestTweetID() (string, error)  { return "", nil }

func (r *fakeQueueRepo) NextQueued() (*models.TweetQueueItem, error) {
	var oldest *models.TweetQueueItem
	for _, item := range r.items {
		if item.Status != models.QueueStatusQueued {
			continue
		}
		if oldest == nil || item.CreatedAt.Before(oldest.CreatedAt) {
			oldest = item
		}
	}
	return oldest, nil
}

func (r *fakeQueueRepo) UpdateStatus(id uint, from, to string, extra map[string]interface{}) error {
	for _, item := range r.items {
		if item.ID == id && item.Status == from {
			item.Status = to
			if at, ok := extra["processed_at"].(*time.Time); ok {
				item.ProcessedAt = at
			}
			return nil
		}
	}
	return repository.ErrStatusConflict
}

func (r *fakeQueueRepo) List(limit int) ([]models.TweetQueueItem, error) { return nil, nil }

func (r *fakeQueueRepo) CountsByStatus() (map[string]int64, error) { return nil, nil }

func (r *fakeQueueRepo) DeleteCompletedBefore(cutoff time.Time) (int64, error) {
	var kept []*models.TweetQueueItem
	var removed int64
	for _, item := range r.items {
		if item.Status == models.QueueStatusCompleted && item.ProcessedAt != nil && item.ProcessedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	r.items = kept
	r.deleted += removed
	return removed, nil
}

type fakeCoinRepo struct {
	coins     []*models.Coin
	nextID    uint
	createErr error
}

func newFakeCoinRepo() *fakeCoinRepo {
	return &fakeCoinRepo{nextID: 1}
}

func (r *fakeCoinRepo) Create(coin *models.Coin) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.coins {
		if existing.TweetID == coin.TweetID {
			return repository.ErrDuplicateTweet
		}
	}
	coin.ID = r.nextID
	r.nextID++
	coin.CreatedAt = time.Now()
	r.coins = append(r.coins, coin)
	return nil
}

func (r *fakeCoinRepo) GetByID(id uint) (*models.Coin, error) {
	for _, coin := range r.coins {
		if coin.ID == id {
			return coin, nil
		}
	}
	return nil, assert.AnError
}

func (r *fakeCoinRepo) GetByTweetID(tweetID string) (*models.Coin, error) {
	for _, coin := range r.coins {
		if coin.TweetID == tweetID {
			return coin, nil
		}
	}
	return nil, assert.AnError
}

func (r *fakeCoinRepo) CountActive() (int64, error) {
	var count int64
	for _, coin := range r.coins {
		if coin.Status == models.CoinStatusPending || coin.Status == models.CoinStatusProcessing {
			count++
		}
	}
	return count, nil
}

func (r *fakeCoinRepo) ListUnsynced() ([]models.Coin, error) { return nil, nil }
func (r *fakeCoinRepo) ListReady() ([]models.Coin, error)    { return nil, nil }

func (r *fakeCoinRepo) LatestByTicker(ticker string) (*models.Coin, error) { return nil, nil }

func (r *fakeCoinRepo) MarkImageSynced(id uint, filename string, syncedAt time.Time) error {
	return nil
}

func (r *fakeCoinRepo) SetSyncError(id uint, message string) error { return nil }

func (r *fakeCoinRepo) UpdateStatus(id uint, from, to string, extra map[string]interface{}) error {
	for _, coin := range r.coins {
		if coin.ID == id && coin.Status == from {
			coin.Status = to
			return nil
		}
	}
	return repository.ErrStatusConflict
}

func (r *fakeCoinRepo) List(limit int) ([]models.Coin, error)     { return nil, nil }
func (r *fakeCoinRepo) CountsByStatus() (map[string]int64, error) { return nil, nil }

func testConfig() *config.PromoterConfig {
	return &config.PromoterConfig{
		PollInterval:    time.Millisecond,
		CleanupEvery:    1000,
		RetentionWindow: 24 * time.Hour,
	}
}

func TestWorker_PromotesOldestQueuedItem(t *testing.T) {
	queue := newFakeQueueRepo()
	coins := newFakeCoinRepo()

	queue.add(&models.TweetQueueItem{TweetID: "T2", Ticker: "LATER", CreatedAt: time.Now()})
	queue.add(&models.TweetQueueItem{TweetID: "T1", Ticker: "MOON", TwitterUser: "alice",
		ImageURL: "https://example.com/moon.jpg", CreatedAt: time.Now().Add(-time.Minute)})

	w := NewWorker(testConfig(), queue, coins, NewNoopClaimLock())
	require.NoError(t, w.Tick(context.Background()))

	require.Len(t, coins.coins, 1)
	coin := coins.coins[0]
	assert.Equal(t, "MOON", coin.Ticker)
	assert.Equal(t, models.CoinStatusPending, coin.Status)
	assert.False(t, coin.ImageSynced)
	assert.Equal(t, "https://example.com/moon.jpg", coin.ImageURL)

	source, err := queue.GetByTweetID("T1")
	require.NoError(t, err)
	assert.Equal(t, models.QueueStatusCompleted, source.Status)
	assert.NotNil(t, source.ProcessedAt)

	// The other item is untouched
	other, err := queue.GetByTweetID("T2")
	require.NoError(t, err)
	assert.Equal(t, models.QueueStatusQueued, other.Status)
}

func TestWorker_BusyGateBlocksSecondAdmission(t *testing.T) {
	queue := newFakeQueueRepo()
	coins := newFakeCoinRepo()

	queue.add(&models.TweetQueueItem{TweetID: "T1", Ticker: "ONE"})
	queue.add(&models.TweetQueueItem{TweetID: "T2", Ticker: "TWO"})

	w := NewWorker(testConfig(), queue, coins, NewNoopClaimLock())
	require.NoError(t, w.Tick(context.Background()))
	require.Len(t, coins.coins, 1)

	// First coin still pending: the gate must hold
	require.NoError(t, w.Tick(context.Background()))
	require.NoError(t, w.Tick(context.Background()))
	assert.Len(t, coins.coins, 1)

	active, _ := coins.CountActive()
	assert.Equal(t, int64(1), active)

	// First coin resolves: next tick admits the second item
	coins.coins[0].Status = models.CoinStatusCompleted
	require.NoError(t, w.Tick(context.Background()))
	require.Len(t, coins.coins, 2)
	assert.Equal(t, "TWO", coins.coins[1].Ticker)
}

func TestWorker_RevertsOnTransferFailure(t *testing.T) {
	queue := newFakeQueueRepo()
	coins := newFakeCoinRepo()
	coins.createErr = errors.New("connection reset")

	queue.add(&models.TweetQueueItem{TweetID: "T1", Ticker: "MOON"})

	w := NewWorker(testConfig(), queue, coins, NewNoopClaimLock())
	require.Error(t, w.Tick(context.Background()))

	source, err := queue.GetByTweetID("T1")
	require.NoError(t, err)
	assert.Equal(t, models.QueueStatusQueued, source.Status, "failed transfer must revert to queued")

	// Store recovers: the item is retried and promoted
	coins.createErr = nil
	require.NoError(t, w.Tick(context.Background()))
	assert.Len(t, coins.coins, 1)
	source, _ = queue.GetByTweetID("T1")
	assert.Equal(t, models.QueueStatusCompleted, source.Status)
}

func TestWorker_DuplicateCoinCompletesSource(t *testing.T) {
	// A crash between coin insert and source completion leaves a queued item
	// whose coin already exists; the retry must finish the transfer instead
	// of failing forever
	queue := newFakeQueueRepo()
	coins := newFakeCoinRepo()

	queue.add(&models.TweetQueueItem{TweetID: "T1", Ticker: "MOON"})
	require.NoError(t, coins.Create(&models.Coin{TweetID: "T1", Ticker: "MOON", Status: models.CoinStatusPending}))
	// Gate is open only when nothing is active; simulate the stale coin being
	// already resolved
	coins.coins[0].Status = models.CoinStatusFailed

	w := NewWorker(testConfig(), queue, coins, NewNoopClaimLock())
	require.NoError(t, w.Tick(context.Background()))

	source, err := queue.GetByTweetID("T1")
	require.NoError(t, err)
	assert.Equal(t, models.QueueStatusCompleted, source.Status)
	assert.Len(t, coins.coins, 1, "no second coin for the same tweet")
}

func TestWorker_ClaimLockDenied(t *testing.T) {
	queue := newFakeQueueRepo()
	coins := newFakeCoinRepo()
	queue.add(&models.TweetQueueItem{TweetID: "T1", Ticker: "MOON"})

	w := NewWorker(testConfig(), queue, coins, deniedLock{})
	require.NoError(t, w.Tick(context.Background()))

	assert.Empty(t, coins.coins)
	source, _ := queue.GetByTweetID("T1")
	assert.Equal(t, models.QueueStatusQueued, source.Status)
}

type deniedLock struct{}

func (deniedLock) Acquire(ctx context.Context) (func(), bool, error) {
	return nil, false, nil
}

// handoffLock yields to another promoter before granting, modeling a rival
// process that completes a full tick while we wait on the lock
type handoffLock struct {
	rival func()
}

func (l *handoffLock) Acquire(ctx context.Context) (func(), bool, error) {
	if l.rival != nil {
		rival := l.rival
		l.rival = nil
		rival()
	}
	return func() {}, true, nil
}

func TestWorker_TwoPromotersAdmitOnlyOneCoin(t *testing.T) {
	queue := newFakeQueueRepo()
	coins := newFakeCoinRepo()

	queue.add(&models.TweetQueueItem{TweetID: "T1", Ticker: "ONE", CreatedAt: time.Now().Add(-time.Minute)})
	queue.add(&models.TweetQueueItem{TweetID: "T2", Ticker: "TWO", CreatedAt: time.Now()})

	// The rival promotes T1 end to end while this worker is blocked on the
	// lock; once granted, the worker must see the pending coin and back off
	// instead of promoting T2
	rival := NewWorker(testConfig(), queue, coins, NewNoopClaimLock())
	lock := &handoffLock{rival: func() {
		require.NoError(t, rival.Tick(context.Background()))
	}}

	w := NewWorker(testConfig(), queue, coins, lock)
	require.NoError(t, w.Tick(context.Background()))

	require.Len(t, coins.coins, 1)
	assert.Equal(t, "ONE", coins.coins[0].Ticker)
	active, err := coins.CountActive()
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)

	// T2 is untouched until the first coin resolves
	second, err := queue.GetByTweetID("T2")
	require.NoError(t, err)
	assert.Equal(t, models.QueueStatusQueued, second.Status)
}

func TestWorker_CleanupPurgesOldCompletedItems(t *testing.T) {
	cfg := testConfig()
	cfg.CleanupEvery = 1

	queue := newFakeQueueRepo()
	coins := newFakeCoinRepo()

	old := time.Now().Add(-48 * time.Hour)
	queue.add(&models.TweetQueueItem{TweetID: "T1", Status: models.QueueStatusCompleted, ProcessedAt: &old})
	recent := time.Now().Add(-time.Hour)
	queue.add(&models.TweetQueueItem{TweetID: "T2", Status: models.QueueStatusCompleted, ProcessedAt: &recent})
	queue.add(&models.TweetQueueItem{TweetID: "T3", Status: models.QueueStatusQueued})

	w := NewWorker(cfg, queue, coins, NewNoopClaimLock())
	require.NoError(t, w.Tick(context.Background()))

	assert.Equal(t, int64(1), queue.deleted)
	_, err := queue.GetByTweetID("T2")
	assert.NoError(t, err, "recent completed item retained")
	_, err = queue.GetByTweetID("T3")
	assert.NoError(t, err, "queued item never purged")
}
