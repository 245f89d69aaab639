package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gotfa/internal/pkg/instrument"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func exerciseLimiter(t *testing.T, l *Limiter, advance func(time.Duration)) {
	t.Helper()
	ctx := context.Background()

	for i := range 3 {
		ok, err := l.Allow(ctx, "user:1")
		if err != nil || !ok {
			t.Fatalf("attempt %d allowed = %v, %v", i, ok, err)
		}
		if err := l.Fail(ctx, "user:1"); err != nil {
			t.Fatalf("fail: %v", err)
		}
	}

	if ok, err := l.Allow(ctx, "user:1"); err != nil || ok {
		t.Fatalf("after max failures allowed = %v, %v", ok, err)
	}
	if ok, err := l.Allow(ctx, "user:2"); err != nil || !ok {
		t.Fatalf("other key allowed = %v, %v", ok, err)
	}

	advance(l.window + time.Second)
	if ok, err := l.Allow(ctx, "user:1"); err != nil || !ok {
		t.Fatalf("after window allowed = %v, %v", ok, err)
	}

	for range 3 {
		if err := l.Fail(ctx, "user:1"); err != nil {
			t.Fatalf("fail: %v", err)
		}
	}
	if err := l.Reset(ctx, "user:1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if ok, err := l.Allow(ctx, "user:1"); err != nil || !ok {
		t.Fatalf("after reset allowed = %v, %v", ok, err)
	}
}

func TestLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := New(client, 3, time.Minute, instrument.NewNoop())

	exerciseLimiter(t, l, mr.FastForward)

	if l.prefix+"user:1" != "tfa:attempt:user:1" {
		t.Fatalf("unexpected key layout")
	}
}

func TestLimiterDefaults(t *testing.T) {
	l := New(nil, 0, 0, instrument.NewNoop())

	if l.maxAttempts != DefaultMaxAttempts || l.window != DefaultWindow {
		t.Fatalf("defaults = %d, %s", l.maxAttempts, l.window)
	}
}

func TestLimiterRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}

	uri, err := ctr.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	opts, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	l := New(client, 3, 2*time.Second, instrument.NewNoop())

	exerciseLimiter(t, l, time.Sleep)
}
