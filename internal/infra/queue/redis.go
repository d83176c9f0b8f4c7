package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const taskQueueKey = "slaq:tasks"

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// RedisQueue implements Queue on a Redis sorted set. The member is the
// JSON-encoded task and the score its ready-at time, so a delayed retry is
// just an entry with a future score.
type RedisQueue struct {
	rdb *redis.Client
}

// NewRedisQueue creates a new Redis-backed task queue.
func NewRedisQueue(cfg RedisConfig) (*RedisQueue, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisQueue{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (q *RedisQueue) Close() error {
	return q.rdb.Close()
}

// Health checks if Redis is reachable.
func (q *RedisQueue) Health(ctx context.Context) error {
	return q.rdb.Ping(ctx).Err()
}

// Enqueue makes the task available immediately.
func (q *RedisQueue) Enqueue(ctx context.Context, task *Task) error {
	return q.EnqueueIn(ctx, task, 0)
}

// EnqueueIn schedules the task for delivery after the given delay.
func (q *RedisQueue) EnqueueIn(ctx context.Context, task *Task, delay time.Duration) error {
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode task: %w", err)
	}

	readyAt := float64(time.Now().Add(delay).UnixMilli())
	if err := q.rdb.ZAdd(ctx, taskQueueKey, redis.Z{Score: readyAt, Member: payload}).Err(); err != nil {
		return fmt.Errorf("zadd failed: %w", err)
	}
	return nil
}

// Dequeue claims the oldest ready task (lowest score not in the future).
// The ZRem is the claim: when another worker removed the member first, the
// task is theirs and we report nothing ready.
func (q *RedisQueue) Dequeue(ctx context.Context) (*Task, bool, error) {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)

	results, err := q.rdb.ZRangeByScore(ctx, taskQueueKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   now,
		Count: 1,
	}).Result()
	if err != nil {
		return nil, false, fmt.Errorf("zrangebyscore failed: %w", err)
	}
	if len(results) == 0 {
		return nil, false, nil
	}

	member := results[0]
	removed, err := q.rdb.ZRem(ctx, taskQueueKey, member).Result()
	if err != nil {
		return nil, false, fmt.Errorf("zrem failed: %w", err)
	}
	if removed == 0 {
		return nil, false, nil
	}

	var task Task
	if err := json.Unmarshal([]byte(member), &task); err != nil {
		return nil, false, fmt.Errorf("invalid task payload: %w", err)
	}
	return &task, true, nil
}

// Size returns the number of queued tasks, including delayed ones.
func (q *RedisQueue) Size(ctx context.Context) (int64, error) {
	return q.rdb.ZCard(ctx, taskQueueKey).Result()
}
