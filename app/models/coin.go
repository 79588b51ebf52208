package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Coin-side lifecycle. "pending" rows are visible to both the photo sync and
// the automation listener; only the listener moves them past that.
const (
	CoinStatusPending    = "pending"
	CoinStatusProcessing = "processing"
	CoinStatusCompleted  = "completed"
	CoinStatusFailed     = "failed"
)

// Coin is a promoted work item being driven through the actual coin creation.
// Rows are kept indefinitely as launch history.
type Coin struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	UUID               string     `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"uuid"`
	TweetID            string     `gorm:"type:varchar(30);uniqueIndex;not null" json:"tweet_id"`
	TwitterUser        string     `gorm:"type:varchar(100);index;not null" json:"twitter_user"`
	Ticker             string     `gorm:"type:varchar(10);index;not null" json:"ticker"`
	Name               string     `gorm:"type:varchar(100)" json:"name"`
	Description        string     `gorm:"type:text" json:"description"`
	Website            string     `gorm:"type:varchar(255)" json:"website"`
	Twitter            string     `gorm:"type:varchar(100)" json:"twitter"`
	ImageURL           string     `gorm:"type:varchar(500)" json:"image_url"`
	ImageSynced        bool       `gorm:"default:false;index" json:"image_synced"`
	ImageFilename      string     `gorm:"type:varchar(255)" json:"image_filename,omitempty"`
	ImageSyncTimestamp *time.Time `gorm:"type:timestamp;default:null" json:"image_sync_timestamp,omitempty"`
	FollowersCount     int        `gorm:"default:0" json:"followers_count"`
	Status             string     `gorm:"type:varchar(20);index;default:'pending'" json:"status"`
	ErrorMessage       string     `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	ProcessedAt        *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
}

func (Coin) TableName() string {
	return "coins"
}

// BeforeCreate assigns the public UUID before inserting a new record
func (c *Coin) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == "" {
		c.UUID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = CoinStatusPending
	}
	return nil
}

// IsTerminal reports whether the coin reached a final state
func (c *Coin) IsTerminal() bool {
	return c.Status == CoinStatusCompleted || c.Status == CoinStatusFailed
}

// ReadyForAutomation reports whether the automation listener may claim the coin
func (c *Coin) ReadyForAutomation() bool {
	return c.Status == CoinStatusPending && c.ImageSynced
}
