package repository

import (
	"time"

	"github.com/memexshot/memexshot/app/models"
	"gorm.io/gorm"
)

// QueueRepository defines the store operations on the tweet_queue table.
// All status mutations go through UpdateStatus, which is a compare-and-set:
// no caller may blindly overwrite a status.
type QueueRepository interface {
	Create(item *models.TweetQueueItem) error
	GetByID(id uint) (*models.TweetQueueItem, error)
	GetByTweetID(tweetID string) (*models.TweetQueueItem, error)
	ListTweetIDs() ([]string, error)
	NewestTweetID() (string, error)
	NextQueued() (*models.TweetQueueItem, error)
	UpdateStatus(id uint, from, to string, extra map[string]interface{}) error
	List(limit int) ([]models.TweetQueueItem, error)
	CountsByStatus() (map[string]int64, error)
	DeleteCompletedBefore(cutoff time.Time) (int64, error)
}

// CoinRepository defines the store operations on the coins table
type CoinRepository interface {
	Create(coin *models.Coin) error
	GetByID(id uint) (*models.Coin, error)
	GetByTweetID(tweetID string) (*models.Coin, error)
	CountActive() (int64, error)
	ListUnsynced() ([]models.Coin, error)
	ListReady() ([]models.Coin, error)
	LatestByTicker(ticker string) (*models.Coin, error)
	MarkImageSynced(id uint, filename string, syncedAt time.Time) error
	SetSyncError(id uint, message string) error
	UpdateStatus(id uint, from, to string, extra map[string]interface{}) error
	List(limit int) ([]models.Coin, error)
	CountsByStatus() (map[string]int64, error)
}

// ReplyRepository defines the store operations on the twitter_reply_queue table
type ReplyRepository interface {
	Create(record *models.ReplyRecord) error
	ExistsForTweet(tweetID string) (bool, error)
	MarkSent(id uint, account string, repliedAt time.Time) error
	MarkFailed(id uint, message string) error
	List(limit int) ([]models.ReplyRecord, error)
	CountsByStatus() (map[string]int64, error)
}

// Repositories contains all repository instances
type Repositories struct {
	Queue QueueRepository
	Coin  CoinRepository
	Reply ReplyRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Queue: NewQueueRepository(db),
		Coin:  NewCoinRepository(db),
		Reply: NewReplyRepository(db),
	}
}
