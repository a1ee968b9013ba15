package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestHourlyQuotaCheck(t *testing.T) {
	_, rdb := newRedis(t)
	q := NewHourlyQuota(rdb, 2)
	now := time.Date(2026, 2, 13, 10, 15, 0, 0, time.UTC)
	reset := time.Date(2026, 2, 13, 11, 0, 0, 0, time.UTC)

	var got []Decision
	for range 3 {
		d, err := q.Check(context.Background(), "chat", now)
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		got = append(got, d)
	}
	want := []Decision{
		{Allowed: true, Used: 1, Limit: 2, ResetAt: reset},
		{Allowed: true, Used: 2, Limit: 2, ResetAt: reset},
		{Allowed: false, Used: 3, Limit: 2, ResetAt: reset},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decisions mismatch (-want +got):\n%s", diff)
	}
	if got[0].Remaining() != 1 || got[2].Remaining() != 0 {
		t.Fatalf("unexpected remaining: %d %d", got[0].Remaining(), got[2].Remaining())
	}

	d, err := q.Check(context.Background(), "chat", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("check next window: %v", err)
	}
	if !d.Allowed || d.Used != 1 {
		t.Fatalf("expected a fresh window, got %+v", d)
	}
}

func TestHourlyQuotaExpiresAtWindowEnd(t *testing.T) {
	mr, rdb := newRedis(t)
	q := NewHourlyQuota(rdb, 5)
	now := time.Date(2026, 2, 13, 10, 59, 30, 0, time.UTC)

	if _, err := q.Check(context.Background(), "chat", now); err != nil {
		t.Fatalf("check: %v", err)
	}
	ttl := mr.TTL("cogitator:quota:chat:2026021310")
	if ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected ttl until end of hour, got %v", ttl)
	}
}

func TestUpdateDeduplicator(t *testing.T) {
	_, rdb := newRedis(t)
	d := NewUpdateDeduplicator(rdb, time.Hour)

	first, err := d.MarkFirst(context.Background(), 42)
	if err != nil || !first {
		t.Fatalf("expected first mark to win, got first=%v err=%v", first, err)
	}
	first, err = d.MarkFirst(context.Background(), 42)
	if err != nil || first {
		t.Fatalf("expected repeat to be rejected, got first=%v err=%v", first, err)
	}
}
