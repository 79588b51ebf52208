package replybot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	replyID string
	err     error
	calls   int
	texts   []string
	tweets  []string
}

func (s *fakeSender) CreateReply(ctx context.Context, text, inReplyToTweetID string) (string, error) {
	s.calls++
	s.texts = append(s.texts, text)
	s.tweets = append(s.tweets, inReplyToTweetID)
	if s.err != nil {
		return "", s.err
	}
	return s.replyID, nil
}

func newTestPool(names ...string) (*AccountPool, func(time.Duration)) {
	var accounts []*Account
	for _, name := range names {
		accounts = append(accounts, &Account{Name: name, Sender: &fakeSender{replyID: "r1"}})
	}
	pool := NewAccountPool(accounts)

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pool.now = func() time.Time { return current }
	for _, acc := range accounts {
		acc.lastReset = current
	}
	advance := func(d time.Duration) { current = current.Add(d) }
	return pool, advance
}

func TestPool_PrefersFirstAccount(t *testing.T) {
	pool, _ := newTestPool("main_account", "account1")

	acc := pool.Next()
	require.NotNil(t, acc)
	assert.Equal(t, "main_account", acc.Name)
}

func TestPool_CooldownRotatesToNext(t *testing.T) {
	pool, advance := newTestPool("main_account", "account1")

	pool.MarkUsed(pool.Next())

	acc := pool.Next()
	require.NotNil(t, acc)
	assert.Equal(t, "account1", acc.Name)

	// After the cooldown the first account is preferred again
	advance(time.Minute)
	acc = pool.Next()
	require.NotNil(t, acc)
	assert.Equal(t, "main_account", acc.Name)
}

func TestPool_ExhaustedReturnsNil(t *testing.T) {
	pool, _ := newTestPool("main_account")
	pool.MarkUsed(pool.Next())

	assert.Nil(t, pool.Next(), "single account inside cooldown")
}

func TestPool_DailyCap(t *testing.T) {
	pool, advance := newTestPool("main_account")

	for i := 0; i < accountDailyLimit; i++ {
		acc := pool.Next()
		require.NotNil(t, acc)
		pool.MarkUsed(acc)
		advance(time.Minute)
	}

	assert.Nil(t, pool.Next(), "cap reached")

	// A new day resets the counter
	advance(24 * time.Hour)
	assert.NotNil(t, pool.Next())
}
