package checkpoint

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// Ledger tracks completed sheets.
type Ledger interface {
	IsDone(ctx context.Context, sheet string) (bool, error)
	MarkDone(ctx context.Context, sheet string) error
	Reset(ctx context.Context) error
}

// RedisLedger stores completed sheets in a Redis set.
type RedisLedger struct {
	redis *redis.Client
	key   string
	ttl   time.Duration
}

// NewRedisLedger creates a ledger on the set named by key. A positive ttl
// is refreshed on every mark so abandoned ledgers expire.
func NewRedisLedger(redisClient *redis.Client, key Key, ttl time.Duration) *RedisLedger {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisLedger{
		redis: redisClient,
		key:   key.String(),
		ttl:   ttl,
	}
}

// Connect opens a Redis client from a redis:// URL and pings it.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// Key returns the Redis key of the ledger.
func (l *RedisLedger) Key() string {
	return l.key
}

// IsDone reports whether sheet was marked done.
func (l *RedisLedger) IsDone(ctx context.Context, sheet string) (bool, error) {
	done, err := l.redis.SIsMember(ctx, l.key, sheet).Result()
	if err != nil {
		CheckpointErrors.WithLabelValues("is_done").Inc()
		return false, fmt.Errorf("redis sismember: %w", err)
	}
	if done {
		CheckpointHits.Inc()
	}
	return done, nil
}

// MarkDone records sheet as completed.
func (l *RedisLedger) MarkDone(ctx context.Context, sheet string) error {
	if err := l.redis.SAdd(ctx, l.key, sheet).Err(); err != nil {
		CheckpointErrors.WithLabelValues("mark_done").Inc()
		return fmt.Errorf("redis sadd: %w", err)
	}

	if l.ttl > 0 {
		if err := l.redis.Expire(ctx, l.key, l.ttl).Err(); err != nil {
			CheckpointErrors.WithLabelValues("mark_done").Inc()
			return fmt.Errorf("redis expire: %w", err)
		}
	}
	return nil
}

// Reset forgets every completed sheet.
func (l *RedisLedger) Reset(ctx context.Context) error {
	if err := l.redis.Del(ctx, l.key).Err(); err != nil {
		CheckpointErrors.WithLabelValues("reset").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Done lists the completed sheets in sorted order.
func (l *RedisLedger) Done(ctx context.Context) ([]string, error) {
	sheets, err := l.redis.SMembers(ctx, l.key).Result()
	if err != nil {
		CheckpointErrors.WithLabelValues("done").Inc()
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	sort.Strings(sheets)
	return sheets, nil
}

// Nop is the ledger used when resuming is disabled.
type Nop struct{}

// IsDone always reports false.
func (Nop) IsDone(context.Context, string) (bool, error) { return false, nil }

// MarkDone does nothing.
func (Nop) MarkDone(context.Context, string) error { return nil }

// Reset does nothing.
func (Nop) Reset(context.Context) error { return nil }
