package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestLocalAllowsBurstThenBlocks(t *testing.T) {
	l := NewLocal(3, time.Minute)
	defer l.Stop()
	ctx := context.Background()

	for i := range 3 {
		ok, err := l.Allow(ctx, "1.2.3.4")
		if err != nil || !ok {
			t.Fatalf("request %d: allowed = %v, err = %v", i, ok, err)
		}
	}
	if ok, _ := l.Allow(ctx, "1.2.3.4"); ok {
		t.Error("fourth request allowed, want blocked")
	}
	if ok, _ := l.Allow(ctx, "5.6.7.8"); !ok {
		t.Error("other key blocked, want allowed")
	}
}

func TestLocalSweepForgetsIdleKeys(t *testing.T) {
	l := NewLocal(1, time.Minute)
	defer l.Stop()
	ctx := context.Background()

	l.Allow(ctx, "a")
	l.sweep(time.Now().Add(2 * time.Minute))

	l.mu.Lock()
	n := len(l.m)
	l.mu.Unlock()
	if n != 0 {
		t.Errorf("keys after sweep = %d, want 0", n)
	}
	if ok, _ := l.Allow(ctx, "a"); !ok {
		t.Error("forgotten key should start with a full bucket")
	}
}

func TestLocalStopTwice(t *testing.T) {
	l := NewLocal(1, time.Minute)
	l.Stop()
	l.Stop()
}

func TestRedisFixedWindow(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	client := redis.NewClient(opt)
	defer client.Close()

	r := NewRedis(client, 2)
	r.prefix = "redsheet:test:" + uuid.NewString() + ":"
	ctx := context.Background()

	for i := range 2 {
		ok, err := r.Allow(ctx, "k")
		if err != nil || !ok {
			t.Fatalf("request %d: allowed = %v, err = %v", i, ok, err)
		}
	}
	ok, err := r.Allow(ctx, "k")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if ok {
		t.Error("third request in window allowed, want blocked")
	}
}
