// Package lock serializes booking writes per room. The Redis locker works
// across server instances; Local only within one process.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var ErrNotObtained = errors.New("lock not obtained")

type Lease interface {
	Release(ctx context.Context) error
}

type Locker interface {
	// Obtain waits until key is free, giving up with ErrNotObtained once ttl
	// has passed. A Redis lease also expires on its own after ttl.
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// ---- redis ----

type Redis struct {
	client  *redislock.Client
	backoff time.Duration
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{client: redislock.New(rdb), backoff: 50 * time.Millisecond}
}

func (r *Redis) Obtain(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	retries := int(ttl / r.backoff)
	l, err := r.client.Obtain(ctx, key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(r.backoff), retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// ---- local ----

type Local struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

func NewLocal() *Local {
	return &Local{held: map[string]chan struct{}{}}
}

type localLease struct {
	l    *Local
	key  string
	done chan struct{}
	once sync.Once
}

func (l *Local) Obtain(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	deadline := time.NewTimer(ttl)
	defer deadline.Stop()

	for {
		l.mu.Lock()
		busy, ok := l.held[key]
		if !ok {
			lease := &localLease{l: l, key: key, done: make(chan struct{})}
			l.held[key] = lease.done
			l.mu.Unlock()
			return lease, nil
		}
		l.mu.Unlock()

		select {
		case <-busy:
		case <-deadline.C:
			return nil, ErrNotObtained
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (ll *localLease) Release(ctx context.Context) error {
	ll.once.Do(func() {
		ll.l.mu.Lock()
		if ll.l.held[ll.key] == ll.done {
			delete(ll.l.held, ll.key)
		}
		ll.l.mu.Unlock()
		close(ll.done)
	})
	return nil
}
