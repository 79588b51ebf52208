package repository

import (
	"errors"
	"time"

	"github.com/memexshot/memexshot/app/models"
	"gorm.io/gorm"
)

// coinRepository implements the CoinRepository interface
type coinRepository struct {
	db *gorm.DB
}

// NewCoinRepository creates a new coin repository instance
func NewCoinRepository(db *gorm.DB) CoinRepository {
	return &coinRepository{db: db}
}

// Create inserts a new coin. tweet_id is unique here too, so a promoter retry
// after a partial failure cannot produce a second coin for the same tweet.
func (r *coinRepository) Create(coin *models.Coin) error {
	if err := r.db.Create(coin).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return ErrDuplicateTweet
		}
		return err
	}
	return nil
}

// GetByID retrieves a coin by its ID
func (r *coinRepository) GetByID(id uint) (*models.Coin, error) {
	var coin models.Coin
	if err := r.db.First(&coin, id).Error; err != nil {
		return nil, err
	}
	return &coin, nil
}

// GetByTweetID retrieves a coin by the originating tweet ID
func (r *coinRepository) GetByTweetID(tweetID string) (*models.Coin, error) {
	var coin models.Coin
	if err := r.db.Where("tweet_id = ?", tweetID).First(&coin).Error; err != nil {
		return nil, err
	}
	return &coin, nil
}

// CountActive returns the number of coins currently pending or processing.
// The promoter's single-in-flight gate rests on this count.
func (r *coinRepository) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&models.Coin{}).
		Where("status IN ?", []string{models.CoinStatusPending, models.CoinStatusProcessing}).
		Count(&count).Error
	return count, err
}

// ListUnsynced returns pending coins whose image has not been staged yet,
// oldest first
func (r *coinRepository) ListUnsynced() ([]models.Coin, error) {
	var coins []models.Coin
	err := r.db.Where("image_synced = ? AND status = ? AND image_url <> ''", false, models.CoinStatusPending).
		Order("created_at ASC").Find(&coins).Error
	return coins, err
}

// ListReady returns pending coins whose image is staged, oldest first. These
// are the coins the automation listener may claim.
func (r *coinRepository) ListReady() ([]models.Coin, error) {
	var coins []models.Coin
	err := r.db.Where("status = ? AND image_synced = ?", models.CoinStatusPending, true).
		Order("created_at ASC").Find(&coins).Error
	return coins, err
}

// LatestByTicker returns the most recently created coin with the given ticker,
// or nil when none exists
func (r *coinRepository) LatestByTicker(ticker string) (*models.Coin, error) {
	var coin models.Coin
	err := r.db.Where("ticker = ?", ticker).Order("created_at DESC").First(&coin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &coin, nil
}

// MarkImageSynced flips the readiness flag exactly once. The image_synced = 0
// guard keeps the flag monotonic: re-running the sync on an already-ready coin
// is a no-op reported as ErrStatusConflict.
func (r *coinRepository) MarkImageSynced(id uint, filename string, syncedAt time.Time) error {
	result := r.db.Model(&models.Coin{}).
		Where("id = ? AND image_synced = ?", id, false).
		Updates(map[string]interface{}{
			"image_synced":         true,
			"image_filename":       filename,
			"image_sync_timestamp": syncedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// SetSyncError records a staging failure without touching status or the
// readiness flag, so the row stays visible for manual intervention
func (r *coinRepository) SetSyncError(id uint, message string) error {
	return r.db.Model(&models.Coin{}).
		Where("id = ?", id).
		Update("error_message", message).Error
}

// UpdateStatus performs a guarded status transition, same contract as the
// queue-side UpdateStatus
func (r *coinRepository) UpdateStatus(id uint, from, to string, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	result := r.db.Model(&models.Coin{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// List returns the most recent coins up to limit
func (r *coinRepository) List(limit int) ([]models.Coin, error) {
	var coins []models.Coin
	err := r.db.Order("created_at DESC").Limit(limit).Find(&coins).Error
	return coins, err
}

// CountsByStatus returns the number of coins per status
func (r *coinRepository) CountsByStatus() (map[string]int64, error) {
	return countsByStatus(r.db, &models.Coin{})
}
