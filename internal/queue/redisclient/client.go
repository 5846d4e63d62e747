package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/alexroche/boutique/internal/jobs"
	"github.com/redis/go-redis/v9"
)

const defaultQueueKey = "boutique:jobs"

type Config struct {
	Addr     string
	Password string
	DB       int
	QueueKey string
}

// Queue is a redis-list job queue: producers LPUSH, the worker BRPOPs.
type Queue struct {
	redisdb *redis.Client
	key     string
}

func New(cfg Config) *Queue {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	key := cfg.QueueKey

	if key == "" {
		key = defaultQueueKey
	}

	return &Queue{redisdb: redisdb, key: key}
}

func (q *Queue) Enqueue(ctx context.Context, j jobs.Job) error {
	b, err := json.Marshal(j)

	if err != nil {
		return err
	}

	return q.redisdb.LPush(ctx, q.key, b).Err()
}

// Dequeue blocks up to timeout for the next job. The second return value is
// false when the wait timed out with nothing to do.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (jobs.Job, bool, error) {
	res, err := q.redisdb.BRPop(ctx, timeout, q.key).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return jobs.Job{}, false, nil
		}

		return jobs.Job{}, false, err
	}

	// BRPOP returns [key, value]
	if len(res) != 2 {
		return jobs.Job{}, false, nil
	}

	var j jobs.Job

	if err := json.Unmarshal([]byte(res[1]), &j); err != nil {
		return jobs.Job{}, false, err
	}

	return j, true, nil
}

func (q *Queue) Ping(ctx context.Context) error {
	return q.redisdb.Ping(ctx).Err()
}

func (q *Queue) Close() error {
	return q.redisdb.Close()
}
