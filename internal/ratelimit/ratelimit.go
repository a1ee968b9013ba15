package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "cogitator:"

// windowScript bumps the counter for one window and sets its expiry on first
// use. ARGV[1] is the time left in the window in milliseconds.
var windowScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// Decision is the outcome of one quota check.
type Decision struct {
	Allowed bool
	Used    int64
	Limit   int64
	ResetAt time.Time
}

func (d Decision) Remaining() int64 {
	return max(d.Limit-d.Used, 0)
}

// HourlyQuota caps outbound chat calls per subject in fixed clock-hour
// windows. Counters live in redis so several shells can share one quota.
type HourlyQuota struct {
	rdb   *redis.Client
	limit int64
}

func NewHourlyQuota(rdb *redis.Client, limit int64) *HourlyQuota {
	return &HourlyQuota{rdb: rdb, limit: limit}
}

func (q *HourlyQuota) Check(ctx context.Context, subject string, now time.Time) (Decision, error) {
	start := now.UTC().Truncate(time.Hour)
	end := start.Add(time.Hour)

	key := keyPrefix + "quota:" + subject + ":" + start.Format("2006010215")
	left := max(end.Sub(now).Milliseconds(), 1)
	used, err := windowScript.Run(ctx, q.rdb, []string{key}, left).Int64()
	if err != nil {
		return Decision{}, fmt.Errorf("quota window %s: %w", subject, err)
	}
	return Decision{Allowed: used <= q.limit, Used: used, Limit: q.limit, ResetAt: end}, nil
}

// UpdateDeduplicator remembers telegram update ids for ttl so a redelivered
// update is processed once.
type UpdateDeduplicator struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewUpdateDeduplicator(rdb *redis.Client, ttl time.Duration) *UpdateDeduplicator {
	return &UpdateDeduplicator{rdb: rdb, ttl: ttl}
}

func (d *UpdateDeduplicator) MarkFirst(ctx context.Context, updateID int64) (bool, error) {
	key := keyPrefix + "update:" + strconv.FormatInt(updateID, 10)
	first, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark update %d: %w", updateID, err)
	}
	return first, nil
}
