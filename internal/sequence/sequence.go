// Package sequence hands out gap-tolerant, strictly unique counter values.
package sequence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// TicketKey names the counter behind ticket numbers.
const TicketKey = "ticket"

type Generator interface {
	Next(ctx context.Context) (int64, error)
}

// Redis uses INCR, which is atomic across every API replica sharing the server.
type Redis struct {
	client redis.Cmdable
	key    string
}

func NewRedis(client redis.Cmdable, name string) *Redis {
	return &Redis{client: client, key: "printshop:seq:" + name}
}

func (s *Redis) Next(ctx context.Context) (int64, error) {
	n, err := s.client.Incr(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("sequence: incr %s: %w", s.key, err)
	}
	return n, nil
}

var raiseScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
if cur < floor then
  redis.call('SET', KEYS[1], floor)
  return floor
end
return cur`)

// EnsureAtLeast raises the counter to floor if it is lower. Called at startup
// with the highest value already persisted so a flushed Redis cannot reissue numbers.
func (s *Redis) EnsureAtLeast(ctx context.Context, floor int64) (int64, error) {
	n, err := raiseScript.Run(ctx, s.client, []string{s.key}, floor).Int64()
	if err != nil {
		return 0, fmt.Errorf("sequence: raise %s: %w", s.key, err)
	}
	return n, nil
}

// Postgres keeps the counter in the counters table and bumps it with a single
// upsert statement, so concurrent callers serialize on the row.
type Postgres struct {
	db   *gorm.DB
	name string
}

func NewPostgres(db *gorm.DB, name string) *Postgres {
	return &Postgres{db: db, name: name}
}

func (s *Postgres) Next(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Raw(
		`INSERT INTO counters (name, value) VALUES (?, 1)
		 ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		 RETURNING value`, s.name,
	).Scan(&n).Error
	if err != nil {
		return 0, fmt.Errorf("sequence: next %s: %w", s.name, err)
	}
	return n, nil
}

// EnsureAtLeast is the Postgres counterpart of Redis.EnsureAtLeast.
func (s *Postgres) EnsureAtLeast(ctx context.Context, floor int64) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Raw(
		`INSERT INTO counters (name, value) VALUES (?, ?)
		 ON CONFLICT (name) DO UPDATE SET value = GREATEST(counters.value, EXCLUDED.value)
		 RETURNING value`, s.name, floor,
	).Scan(&n).Error
	if err != nil {
		return 0, fmt.Errorf("sequence: raise %s: %w", s.name, err)
	}
	return n, nil
}
