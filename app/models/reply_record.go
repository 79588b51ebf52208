package models

import (
	"time"
)

const (
	ReplyStatusSending = "sending"
	ReplyStatusSent    = "sent"
	ReplyStatusFailed  = "failed"
)

// ReplyRecord tracks one confirmation reply per originating tweet. The unique
// TweetID index is the idempotency guard: once a row exists in any state, a
// re-observed on-chain confirmation must not produce a second reply.
type ReplyRecord struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	CoinID       uint       `gorm:"index;not null" json:"coin_id"`
	TweetID      string     `gorm:"type:varchar(30);uniqueIndex;not null" json:"tweet_id"`
	TwitterUser  string     `gorm:"type:varchar(100)" json:"twitter_user"`
	Ticker       string     `gorm:"type:varchar(10)" json:"ticker"`
	TxSignature  string     `gorm:"type:varchar(100)" json:"tx_signature"`
	TokenMint    string     `gorm:"type:varchar(50)" json:"token_mint"`
	ReplyAccount string     `gorm:"type:varchar(50)" json:"reply_account,omitempty"`
	Status       string     `gorm:"type:varchar(20);index;default:'sending'" json:"status"`
	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`
	ScheduledAt  time.Time  `gorm:"autoCreateTime" json:"scheduled_at"`
	RepliedAt    *time.Time `gorm:"type:timestamp;default:null" json:"replied_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ReplyRecord) TableName() string {
	return "twitter_reply_queue"
}
