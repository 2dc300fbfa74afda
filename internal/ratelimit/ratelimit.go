// Package ratelimit throttles requests per key, either in process or shared
// through Redis when several instances serve the same API.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter decides whether one more request for key is allowed now.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type keyLimiter struct {
	lim *rate.Limiter
	ts  time.Time
}

// Local is a token bucket per key. Idle keys are forgotten after ttl.
type Local struct {
	mu   sync.Mutex
	m    map[string]*keyLimiter
	r    rate.Limit
	b    int
	ttl  time.Duration
	stop chan struct{}
}

// NewLocal allows perMinute requests per key with a burst of the same size
// and starts the idle-key sweeper. Call Stop to end it.
func NewLocal(perMinute int, ttl time.Duration) *Local {
	l := &Local{
		m:    make(map[string]*keyLimiter),
		r:    rate.Every(time.Minute / time.Duration(max(perMinute, 1))),
		b:    max(perMinute, 1),
		ttl:  ttl,
		stop: make(chan struct{}),
	}
	go l.gc()
	return l
}

func (l *Local) Allow(_ context.Context, key string) (bool, error) {
	return l.get(key).Allow(), nil
}

func (l *Local) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl, ok := l.m[key]
	if ok {
		kl.ts = time.Now()
		return kl.lim
	}
	lim := rate.NewLimiter(l.r, l.b)
	l.m[key] = &keyLimiter{lim: lim, ts: time.Now()}
	return lim
}

func (l *Local) gc() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.sweep(time.Now())
		}
	}
}

func (l *Local) sweep(now time.Time) {
	l.mu.Lock()
	for k, v := range l.m {
		if now.Sub(v.ts) > l.ttl {
			delete(l.m, k)
		}
	}
	l.mu.Unlock()
}

// Stop ends the sweeper. It is safe to call more than once.
func (l *Local) Stop() {
	select {
	case <-l.stop:
	default:
		close(l.stop)
	}
}

// Redis counts requests per key in fixed one-minute windows.
type Redis struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedis(client *redis.Client, perMinute int) *Redis {
	return &Redis{
		client: client,
		limit:  max(perMinute, 1),
		window: time.Minute,
		prefix: "redsheet:ratelimit:",
		now:    time.Now,
	}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	slot := r.now().Truncate(r.window).Unix()
	k := fmt.Sprintf("%s%s:%d", r.prefix, key, slot)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("counting requests: %w", err)
	}
	return incr.Val() <= int64(r.limit), nil
}
