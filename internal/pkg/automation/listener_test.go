package automation

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

type fakeCoinRepo struct {
	coins []*models.Coin
}

func (r *fakeCoinRepo) Create(coin *models.Coin) error               { return nil }
func (r *fakeCoinRepo) GetByID(id uint) (*models.Coin, error)        { return nil, nil }
func (r *fakeCoinRepo) GetByTweetID(id string) (*models.Coin, error) { return nil, nil }
func (r *fakeCoinRepo) CountActive() (int64, error)                  { return 0, nil }
func (r *fakeCoinRepo) ListUnsynced() ([]models.Coin, error)         { return nil, nil }

func (r *fakeCoinRepo) ListReady() ([]models.Coin, error) {
	var out []models.Coin
	for _, coin := range r.coins {
		if coin.ReadyForAutomation() {
			out = append(out, *coin)
		}
	}
	return out, nil
}

func (r *fakeCoinRepo) LatestByTicker(t string) (*models.Coin, error) { return nil, nil }
func (r *fakeCoinRepo) List(limit int) ([]models.Coin, error)         { return nil, nil }
func (r *fakeCoinRepo) CountsByStatus() (map[string]int64, error)     { return nil, nil }

func (r *fakeCoinRepo) MarkImageSynced(id uint, filename string, syncedAt time.Time) error {
	return nil
}
func (r *fakeCoinRepo) SetSyncError(id uint, message string) error { return nil }

func (r *fakeCoinRepo) UpdateStatus(id uint, from, to string, extra map[string]interface{}) error {
	for _, coin := range r.coins {
		if coin.ID != id {
			continue
		}
		if coin.Status != from {
			return repository.ErrStatusConflict
		}
		coin.Status = to
		if msg, ok := extra["error_message"].(string); ok {
			coin.ErrorMessage = msg
		}
		if ts, ok := extra["processed_at"].(*time.Time); ok {
			coin.ProcessedAt = ts
		}
		return nil
	}
	return repository.ErrStatusConflict
}

func newTestListener(repo *fakeCoinRepo, runner Runner) *Listener {
	cfg := &config.AutomationConfig{
		PollInterval: time.Millisecond,
		StartDelay:   0,
		BetweenCoins: 0,
	}
	return NewListener(cfg, repo, runner)
}

func readyCoin(id uint, ticker string) *models.Coin {
	return &models.Coin{
		ID: id, TweetID: ticker + "-tweet", Ticker: ticker,
		TwitterUser: "alice", Status: models.CoinStatusPending, ImageSynced: true,
	}
}

func TestListener_CompletesReadyCoin(t *testing.T) {
	repo := &fakeCoinRepo{coins: []*models.Coin{readyCoin(1, "MOON")}}

	var ran []string
	l := newTestListener(repo, RunnerFunc(func(ctx context.Context, coin *models.Coin) error {
		ran = append(ran, coin.Ticker)
		return nil
	}))

	require.NoError(t, l.Tick(context.Background()))

	assert.Equal(t, []string{"MOON"}, ran)
	assert.Equal(t, models.CoinStatusCompleted, repo.coins[0].Status)
	assert.NotNil(t, repo.coins[0].ProcessedAt)
}

func TestListener_RunnerFailureMarksFailed(t *testing.T) {
	repo := &fakeCoinRepo{coins: []*models.Coin{readyCoin(1, "MOON")}}

	l := newTestListener(repo, RunnerFunc(func(ctx context.Context, coin *models.Coin) error {
		return errors.New("browser window not found")
	}))

	require.NoError(t, l.Tick(context.Background()))

	assert.Equal(t, models.CoinStatusFailed, repo.coins[0].Status)
	assert.Equal(t, "browser window not found", repo.coins[0].ErrorMessage)
}

func TestListener_SkipsUnsyncedCoin(t *testing.T) {
	coin := readyCoin(1, "MOON")
	coin.ImageSynced = false
	repo := &fakeCoinRepo{coins: []*models.Coin{coin}}

	var ran int
	l := newTestListener(repo, RunnerFunc(func(ctx context.Context, c *models.Coin) error {
		ran++
		return nil
	}))

	require.NoError(t, l.Tick(context.Background()))
	assert.Zero(t, ran)
	assert.Equal(t, models.CoinStatusPending, repo.coins[0].Status)
}

func TestListener_LostClaimRaceIsSkipped(t *testing.T) {
	coin := readyCoin(1, "MOON")
	repo := &fakeCoinRepo{coins: []*models.Coin{coin}}

	var ran int
	l := newTestListener(repo, RunnerFunc(func(ctx context.Context, c *models.Coin) error {
		ran++
		return nil
	}))

	// Another worker moved the coin between the listing and the claim
	coin.Status = models.CoinStatusProcessing
	snapshot := *coin
	snapshot.Status = models.CoinStatusPending
	require.NoError(t, l.process(context.Background(), &snapshot))

	assert.Zero(t, ran)
	assert.Equal(t, models.CoinStatusProcessing, coin.Status)
}

func TestListener_ProcessesOldestFirstAndAll(t *testing.T) {
	repo := &fakeCoinRepo{coins: []*models.Coin{
		readyCoin(1, "MOON"),
		readyCoin(2, "DOGE"),
	}}

	var ran []string
	l := newTestListener(repo, RunnerFunc(func(ctx context.Context, coin *models.Coin) error {
		ran = append(ran, coin.Ticker)
		return nil
	}))

	require.NoError(t, l.Tick(context.Background()))
	assert.Equal(t, []string{"MOON", "DOGE"}, ran)
}

func TestListener_DoesNotRerunSeenCoin(t *testing.T) {
	coin := readyCoin(1, "MOON")
	repo := &fakeCoinRepo{coins: []*models.Coin{coin}}

	var ran int
	l := newTestListener(repo, RunnerFunc(func(ctx context.Context, c *models.Coin) error {
		ran++
		return nil
	}))

	require.NoError(t, l.Tick(context.Background()))
	// Force the row back to a ready shape without clearing the process memory
	coin.Status = models.CoinStatusPending
	require.NoError(t, l.Tick(context.Background()))

	assert.Equal(t, 1, ran)
}
