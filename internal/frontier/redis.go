package frontier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Frontier backed by a Redis list.
// Every key lives under a caller-supplied prefix, normally one per crawl run.
type Redis struct {
	client redis.Cmdable
	key    string
	delay  time.Duration
}

// NewRedis creates a frontier stored at prefix+"frontier".
func NewRedis(client redis.Cmdable, prefix string, opts ...Option) *Redis {
	o := newOptions(opts)
	return &Redis{
		client: client,
		key:    prefix + "frontier",
		delay:  o.delay,
	}
}

// Enqueue pushes url onto the tail of the list.
func (r *Redis) Enqueue(ctx context.Context, url string) error {
	if err := r.client.RPush(ctx, r.key, url).Err(); err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", url, err)
	}
	return nil
}

// Dequeue sleeps for the configured delay and then pops the head of the list.
func (r *Redis) Dequeue(ctx context.Context) (string, bool, error) {
	if err := wait(ctx, r.delay); err != nil {
		return "", false, err
	}

	url, err := r.client.LPop(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to dequeue: %w", err)
	}
	return url, true, nil
}

// Clear removes the list.
func (r *Redis) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
