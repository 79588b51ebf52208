package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Queue-side lifecycle. "completed" means the item was transferred into the
// coins table, not that the coin itself finished.
const (
	QueueStatusQueued     = "queued"
	QueueStatusProcessing = "processing"
	QueueStatusCompleted  = "completed"
	QueueStatusRejected   = "rejected"
)

// TweetQueueItem is one detected launch request waiting for promotion into the
// coins table. At most one row may exist per TweetID.
type TweetQueueItem struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UUID            string     `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"uuid"`
	TweetID         string     `gorm:"type:varchar(30);uniqueIndex;not null" json:"tweet_id"`
	TwitterUser     string     `gorm:"type:varchar(100);index;not null" json:"twitter_user"`
	Ticker          string     `gorm:"type:varchar(10);not null" json:"ticker"`
	Name            string     `gorm:"type:varchar(100)" json:"name"`
	Description     string     `gorm:"type:text" json:"description"`
	Website         string     `gorm:"type:varchar(255)" json:"website"`
	Twitter         string     `gorm:"type:varchar(100)" json:"twitter"`
	ImageURL        string     `gorm:"type:varchar(500)" json:"image_url"`
	ProfileImageURL string     `gorm:"type:varchar(500)" json:"profile_image_url"`
	FollowersCount  int        `gorm:"default:0" json:"followers_count"`
	Status          string     `gorm:"type:varchar(20);index;default:'queued'" json:"status"`
	ErrorMessage    string     `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
}

func (TweetQueueItem) TableName() string {
	return "tweet_queue"
}

// BeforeCreate assigns the public UUID before inserting a new record
func (t *TweetQueueItem) BeforeCreate(tx *gorm.DB) error {
	if t.UUID == "" {
		t.UUID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = QueueStatusQueued
	}
	return nil
}

// IsTerminal reports whether the queue item can never move again
func (t *TweetQueueItem) IsTerminal() bool {
	return t.Status == QueueStatusCompleted || t.Status == QueueStatusRejected
}
