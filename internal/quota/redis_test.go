package quota

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/benvon/levelup-ai/internal/models"
	"github.com/redis/go-redis/v9"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisKey(t *testing.T) {
	t.Parallel()

	got := redisKey(models.UsageKey{UserID: "abc", Day: "2026-03-14"})
	if got != "levelup:usage:2026-03-14:abc" {
		t.Errorf("Expected levelup:usage:2026-03-14:abc, got %s", got)
	}
}

func TestRedisStore_Ceiling(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, mr := newRedisStore(t)
	tracker := NewTracker(store, 50, WithClock(fixedClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local))))

	for i := 1; i <= 50; i++ {
		d, err := tracker.CheckAndConsume(ctx, "user-1")
		if err != nil {
			t.Fatalf("Expected no error on request %d, got %v", i, err)
		}
		if !d.Allowed || d.Count != i {
			t.Fatalf("Expected request %d allowed with count %d, got %+v", i, i, d)
		}
	}

	d, err := tracker.CheckAndConsume(ctx, "user-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if d.Allowed {
		t.Error("Expected 51st request to be rejected")
	}
	if d.Count != 50 {
		t.Errorf("Expected count to stay at 50, got %d", d.Count)
	}

	key := "levelup:usage:2026-03-14:user-1"
	if got, _ := mr.Get(key); got != "50" {
		t.Errorf("Expected stored counter 50, got %q", got)
	}
	if ttl := mr.TTL(key); ttl <= 0 || ttl > redisKeyTTL {
		t.Errorf("Expected TTL within %v, got %v", redisKeyTTL, ttl)
	}
}

func TestRedisStore_ConcurrentCeiling(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newRedisStore(t)
	key := models.UsageKey{UserID: "racer", Day: "2026-03-14"}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
		maxSeen int
	)
	for i := 0; i < 120; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			count, ok, err := store.IncrementIfBelow(ctx, key, 50)
			if err != nil {
				t.Errorf("Expected no error, got %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if ok {
				allowed++
			}
			if count > maxSeen {
				maxSeen = count
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("Expected exactly 50 allowed increments, got %d", allowed)
	}
	if maxSeen != 50 {
		t.Errorf("Expected counter to peak at 50, got %d", maxSeen)
	}
	count, err := store.Count(ctx, key)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if count != 50 {
		t.Errorf("Expected stored count 50, got %d", count)
	}
}

func TestRedisStore_CountAndReset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newRedisStore(t)
	key := models.UsageKey{UserID: "user-2", Day: "2026-03-14"}

	if n, err := store.Count(ctx, key); err != nil || n != 0 {
		t.Fatalf("Expected missing counter to read 0, got %d (%v)", n, err)
	}
	for i := 0; i < 3; i++ {
		if _, _, err := store.IncrementIfBelow(ctx, key, 50); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}
	if n, _ := store.Count(ctx, key); n != 3 {
		t.Errorf("Expected count 3, got %d", n)
	}
	if err := store.Reset(ctx, key); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if n, _ := store.Count(ctx, key); n != 0 {
		t.Errorf("Expected count 0 after reset, got %d", n)
	}
	if err := store.Ping(ctx); err != nil {
		t.Errorf("Expected ping to succeed, got %v", err)
	}
}

func TestRedisStore_ZeroLimitRejects(t *testing.T) {
	t.Parallel()

	store, _ := newRedisStore(t)
	count, ok, err := store.IncrementIfBelow(context.Background(), models.UsageKey{UserID: "u", Day: "2026-03-14"}, 0)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if ok || count != 0 {
		t.Errorf("Expected rejection at count 0, got allowed=%v count=%d", ok, count)
	}
}

func TestRedisStore_BackendDown(t *testing.T) {
	t.Parallel()

	store, mr := newRedisStore(t)
	mr.Close()

	if _, _, err := store.IncrementIfBelow(context.Background(), models.UsageKey{UserID: "u", Day: "2026-03-14"}, 50); err == nil {
		t.Error("Expected an error when redis is unreachable")
	}
}
