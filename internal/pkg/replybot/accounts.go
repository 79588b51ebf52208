package replybot

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

const (
	accountDailyLimit = 100
	accountCooldown   = time.Minute
)

// Sender posts one reply tweet and returns the new tweet's ID
type Sender interface {
	CreateReply(ctx context.Context, text, inReplyToTweetID string) (string, error)
}

// Account is one Twitter identity in the rotation pool with its usage state
type Account struct {
	Name   string
	Sender Sender

	dailyCount int
	lastReset  time.Time
	lastTweet  *time.Time
}

// AccountPool rotates replies across accounts. Selection is pool order: the
// first account under its daily cap and past its cooldown wins, so lower
// accounts only absorb overflow.
type AccountPool struct {
	accounts []*Account
	now      func() time.Time
}

// NewAccountPool creates a pool; order is significant
func NewAccountPool(accounts []*Account) *AccountPool {
	pool := &AccountPool{accounts: accounts, now: time.Now}
	for _, acc := range accounts {
		acc.lastReset = pool.now()
	}
	return pool
}

// Len returns the pool size
func (p *AccountPool) Len() int {
	return len(p.accounts)
}

// Next returns the first usable account, or nil when every account is capped
// or cooling down
func (p *AccountPool) Next() *Account {
	now := p.now()
	for _, acc := range p.accounts {
		acc.resetIfNewDay(now)

		if acc.dailyCount >= accountDailyLimit {
			continue
		}
		if acc.lastTweet != nil && now.Sub(*acc.lastTweet) < accountCooldown {
			continue
		}
		return acc
	}
	return nil
}

// MarkUsed records a successful send on the account
func (p *AccountPool) MarkUsed(acc *Account) {
	now := p.now()
	acc.dailyCount++
	acc.lastTweet = &now
}

func (a *Account) resetIfNewDay(now time.Time) {
	y1, m1, d1 := a.lastReset.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return
	}
	a.dailyCount = 0
	a.lastReset = now
	log.Infof("[ReplyBot] Reset daily counter for %s", a.Name)
}
