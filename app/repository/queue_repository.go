package repository

import (
	"errors"
	"time"

	"github.com/memexshot/memexshot/app/models"
	"gorm.io/gorm"
)

// queueRepository implements the QueueRepository interface
type queueRepository struct {
	db *gorm.DB
}

// NewQueueRepository creates a new queue repository instance
func NewQueueRepository(db *gorm.DB) QueueRepository {
	return &queueRepository{db: db}
}

// Create inserts a new queue item. The unique index on tweet_id makes this the
// dedup point for the whole pipeline: a conflict returns ErrDuplicateTweet.
func (r *queueRepository) Create(item *models.TweetQueueItem) error {
	if err := r.db.Create(item).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return ErrDuplicateTweet
		}
		return err
	}
	return nil
}

// GetByID retrieves a queue item by its ID
func (r *queueRepository) GetByID(id uint) (*models.TweetQueueItem, error) {
	var item models.TweetQueueItem
	if err := r.db.First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// GetByTweetID retrieves a queue item by the originating tweet ID
func (r *queueRepository) GetByTweetID(tweetID string) (*models.TweetQueueItem, error) {
	var item models.TweetQueueItem
	if err := r.db.Where("tweet_id = ?", tweetID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListTweetIDs returns every tweet ID present in the queue table, used to seed
// the ingestion worker's in-process seen set after a restart
func (r *queueRepository) ListTweetIDs() ([]string, error) {
	var ids []string
	if err := r.db.Model(&models.TweetQueueItem{}).Pluck("tweet_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// NewestTweetID returns the tweet ID of the most recently created queue item,
// or empty string when the table is empty
func (r *queueRepository) NewestTweetID() (string, error) {
	var item models.TweetQueueItem
	err := r.db.Order("created_at DESC").First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return item.TweetID, nil
}

// NextQueued returns the oldest item still waiting for promotion, or nil
func (r *queueRepository) NextQueued() (*models.TweetQueueItem, error) {
	var items []models.TweetQueueItem
	err := r.db.Where("status = ?", models.QueueStatusQueued).
		Order("created_at ASC").Limit(1).Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// UpdateStatus performs a guarded status transition. The WHERE clause carries
// the expected current status; zero affected rows means another worker won the
// race and the caller gets ErrStatusConflict.
func (r *queueRepository) UpdateStatus(id uint, from, to string, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	result := r.db.Model(&models.TweetQueueItem{}).
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

// List returns the most recent queue items up to limit
func (r *queueRepository) List(limit int) ([]models.TweetQueueItem, error) {
	var items []models.TweetQueueItem
	err := r.db.Order("created_at DESC").Limit(limit).Find(&items).Error
	return items, err
}

// CountsByStatus returns the number of queue items per status
func (r *queueRepository) CountsByStatus() (map[string]int64, error) {
	return countsByStatus(r.db, &models.TweetQueueItem{})
}

// DeleteCompletedBefore purges transferred queue items whose processed_at is
// older than cutoff and returns how many rows were removed
func (r *queueRepository) DeleteCompletedBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("status = ? AND processed_at < ?", models.QueueStatusCompleted, cutoff).
		Delete(&models.TweetQueueItem{})
	return result.RowsAffected, result.Error
}

type statusCount struct {
	Status string
	Count  int64
}

// countsByStatus groups any status-bearing table into status -> row count
func countsByStatus(db *gorm.DB, model interface{}) (map[string]int64, error) {
	var rows []statusCount
	err := db.Model(model).Select("status, COUNT(*) as count").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
