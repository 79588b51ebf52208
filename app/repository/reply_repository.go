package repository

import (
	"time"

	"github.com/memexshot/memexshot/app/models"
	"gorm.io/gorm"
)

// replyRepository implements the ReplyRepository interface
type replyRepository struct {
	db *gorm.DB
}

// NewReplyRepository creates a new reply repository instance
func NewReplyRepository(db *gorm.DB) ReplyRepository {
	return &replyRepository{db: db}
}

// Create inserts a reply record in "sending" state. The unique index on
// tweet_id is the one and only duplicate-reply guard; a conflict returns
// ErrDuplicateTweet and the caller must not send anything.
func (r *replyRepository) Create(record *models.ReplyRecord) error {
	if err := r.db.Create(record).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return ErrDuplicateTweet
		}
		return err
	}
	return nil
}

// ExistsForTweet reports whether any reply record exists for the tweet,
// regardless of its state
func (r *replyRepository) ExistsForTweet(tweetID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.ReplyRecord{}).Where("tweet_id = ?", tweetID).Count(&count).Error
	return count > 0, err
}

// MarkSent finalizes a successful reply
func (r *replyRepository) MarkSent(id uint, account string, repliedAt time.Time) error {
	return r.db.Model(&models.ReplyRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.ReplyStatusSent,
			"reply_account": account,
			"replied_at":    repliedAt,
		}).Error
}

// MarkFailed finalizes a failed reply attempt. The record stays in place so
// the tweet is still considered handled.
func (r *replyRepository) MarkFailed(id uint, message string) error {
	return r.db.Model(&models.ReplyRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.ReplyStatusFailed,
			"error_message": message,
		}).Error
}

// List returns the most recent reply records up to limit
func (r *replyRepository) List(limit int) ([]models.ReplyRecord, error) {
	var records []models.ReplyRecord
	err := r.db.Order("created_at DESC").Limit(limit).Find(&records).Error
	return records, err
}

// CountsByStatus returns the number of reply records per status
func (r *replyRepository) CountsByStatus() (map[string]int64, error) {
	return countsByStatus(r.db, &models.ReplyRecord{})
}
