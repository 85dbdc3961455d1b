package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Each record is a hash at <prefix>:item:<key> holding title and recorded_at,
// indexed by the sorted set <prefix>:index scored by recorded_at (unix ms).

var recordScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("HSET", KEYS[1], "title", ARGV[2], "recorded_at", ARGV[3])
redis.call("ZADD", KEYS[2], ARGV[3], ARGV[1])
return 1
`)

var pruneScript = redis.NewScript(`
local keys = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", "(" .. ARGV[1])
for _, k in ipairs(keys) do
	redis.call("DEL", ARGV[2] .. k)
end
if #keys > 0 then
	redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", "(" .. ARGV[1])
end
return #keys
`)

type Redis struct {
	client *redis.Client
	prefix string
	now    Clock
}

// NewRedis wraps client; keys live under prefix (e.g. "agora:processed_source_items").
func NewRedis(client *redis.Client, prefix string, opts ...Option) *Redis {
	if prefix == "" {
		prefix = "agora:" + TableName
	}
	o := buildOptions(opts)
	return &Redis{client: client, prefix: prefix, now: o.now}
}

func OpenRedis(ctx context.Context, url, prefix string, opts ...Option) (*Redis, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return NewRedis(client, prefix, opts...), nil
}

func (r *Redis) itemPrefix() string {
	return r.prefix + ":item:"
}

func (r *Redis) indexKey() string {
	return r.prefix + ":index"
}

func (r *Redis) IsRecorded(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.itemPrefix()+key).Result()
	if err != nil {
		return false, fmt.Errorf("checking ledger: %w", err)
	}
	return n == 1, nil
}

func (r *Redis) Record(ctx context.Context, key, title string) error {
	if key == "" {
		return ErrEmptyKey
	}
	ms := strconv.FormatInt(r.now().UnixMilli(), 10)
	err := recordScript.Run(ctx, r.client, []string{r.itemPrefix() + key, r.indexKey()}, key, title, ms).Err()
	if err != nil {
		return fmt.Errorf("recording %s: %w", key, err)
	}
	return nil
}

func (r *Redis) PruneOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := strconv.FormatInt(r.now().Add(-age).UnixMilli(), 10)
	n, err := pruneScript.Run(ctx, r.client, []string{r.indexKey()}, cutoff, r.itemPrefix()).Int64()
	if err != nil {
		return 0, fmt.Errorf("pruning ledger: %w", err)
	}
	return n, nil
}

func (r *Redis) Count(ctx context.Context) (int64, error) {
	n, err := r.client.ZCard(ctx, r.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("counting ledger: %w", err)
	}
	return n, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
