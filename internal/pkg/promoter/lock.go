package promoter

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ClaimLock serializes the busy check and the promotion step across promoter
// processes. The queue-row compare-and-set only stops two promoters claiming
// the same item; holding the lock across the gate read is what stops them
// admitting two different items back to back.
type ClaimLock interface {
	Acquire(ctx context.Context) (release func(), ok bool, err error)
}

const lockKey = "promoter:claim"
const lockTTL = 30 * time.Second

// redisClaimLock implements ClaimLock on redislock
type redisClaimLock struct {
	client *redislock.Client
}

// NewRedisClaimLock creates the cross-process promotion lock
func NewRedisClaimLock(client *redis.Client) ClaimLock {
	return &redisClaimLock{client: redislock.New(client)}
}

func (l *redisClaimLock) Acquire(ctx context.Context) (func(), bool, error) {
	lock, err := l.client.Obtain(ctx, lockKey, lockTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return func() {
		_ = lock.Release(context.Background())
	}, true, nil
}

// noopClaimLock always grants, for single-process deployments and tests
type noopClaimLock struct{}

// NewNoopClaimLock returns a lock that always grants
func NewNoopClaimLock() ClaimLock {
	return noopClaimLock{}
}

func (noopClaimLock) Acquire(ctx context.Context) (func(), bool, error) {
	return func() {}, true, nil
}
