package counter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/memexshot/memexshot/internal/pkg/cache"
)

// Daily throughput counters for the pipeline, kept as one Redis hash per UTC
// day. Increments are best-effort: a worker never fails an operation because
// the counter could not be written.
const (
	EventTweetsIngested = "tweets_ingested"
	EventTweetsRejected = "tweets_rejected"
	EventCoinsPromoted  = "coins_promoted"
	EventImagesSynced   = "images_synced"
	EventCoinsCompleted = "coins_completed"
	EventCoinsFailed    = "coins_failed"
	EventRepliesSent    = "replies_sent"
)

const retention = 40 * 24 * time.Hour

// DayKey returns the counter hash key for the given moment in UTC
func DayKey(at time.Time) string {
	return fmt.Sprintf("pipeline:counters:%s", at.UTC().Format("2006-01-02"))
}

// Add increments one event counter for today. No-op when the cache was never
// initialized, so workers without a Redis connection stay unaffected.
func Add(event string) {
	if !cache.Initialized() {
		return
	}
	ctx := context.Background()
	key := DayKey(time.Now())
	rdb := cache.GetClient()
	if err := rdb.HIncrBy(ctx, key, event, 1).Err(); err != nil {
		return
	}
	rdb.Expire(ctx, key, retention)
}

// Today returns all of today's counters
func Today() (map[string]int64, error) {
	if !cache.Initialized() {
		return map[string]int64{}, nil
	}
	raw, err := cache.GetClient().HGetAll(context.Background(), DayKey(time.Now())).Result()
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(raw))
	for event, value := range raw {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		counts[event] = n
	}
	return counts, nil
}
