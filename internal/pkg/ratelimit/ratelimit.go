package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is the per-requester daily cap consulted by the ingestion worker
// before admitting a new work item
type Limiter interface {
	Check(ctx context.Context, user string) (bool, error)
	Increment(ctx context.Context, user string) error
}

// DailyLimiter counts admissions per user per UTC day in Redis. Keys carry the
// day in their name and expire shortly after the window ends, so the counter
// resets itself at midnight without a sweeper.
type DailyLimiter struct {
	client *redis.Client
	max    int
	now    func() time.Time
}

// NewDailyLimiter creates a limiter with the given daily cap
func NewDailyLimiter(client *redis.Client, max int) *DailyLimiter {
	return &DailyLimiter{
		client: client,
		max:    max,
		now:    time.Now,
	}
}

// Check reports whether the user is still under the daily cap
func (l *DailyLimiter) Check(ctx context.Context, user string) (bool, error) {
	count, err := l.client.Get(ctx, l.key(user)).Int()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("rate limit read for %s: %w", user, err)
	}
	return count < l.max, nil
}

// Increment bumps the user's counter for the current window
func (l *DailyLimiter) Increment(ctx context.Context, user string) error {
	key := l.key(user)
	if err := l.client.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("rate limit increment for %s: %w", user, err)
	}
	// Expire an hour after the window closes; the date in the key already
	// makes stale counters unreachable
	return l.client.ExpireAt(ctx, key, endOfDay(l.now()).Add(time.Hour)).Err()
}

func (l *DailyLimiter) key(user string) string {
	return DailyKey(user, l.now())
}

// DailyKey builds the Redis key for a user's counter on the given day
func DailyKey(user string, at time.Time) string {
	return fmt.Sprintf("ratelimit:daily:%s:%s", user, at.UTC().Format("2006-01-02"))
}

// endOfDay returns the start of the next UTC day
func endOfDay(at time.Time) time.Time {
	at = at.UTC()
	return time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}
