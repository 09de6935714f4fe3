package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	redisUnvisited = "0"
	redisVisited   = "1"
)

// Redis is a Store kept in Redis.
//
// Visit state lives in one hash (prefix+"visited") keyed by URL, and each
// URL's outbound log is a list at prefix+"outbound:"+URL.
type Redis struct {
	client  redis.Cmdable
	prefix  string
	visited string
}

// NewRedis creates a store whose keys all start with prefix.
func NewRedis(client redis.Cmdable, prefix string) *Redis {
	return &Redis{
		client:  client,
		prefix:  prefix,
		visited: prefix + "visited",
	}
}

func (r *Redis) outboundKey(key string) string {
	return r.prefix + "outbound:" + key
}

// Add implements Store.
func (r *Redis) Add(ctx context.Context, key string, discovered ...string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, r.visited, key, redisUnvisited)
		if len(discovered) > 0 {
			values := make([]interface{}, len(discovered))
			for i, d := range discovered {
				values[i] = d
			}
			pipe.RPush(ctx, r.outboundKey(key), values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", key, err)
	}
	return nil
}

// MarkVisited implements Store.
// Keys are never removed, so an entry seen by HExists still exists for HSet.
func (r *Redis) MarkVisited(ctx context.Context, key string) error {
	ok, err := r.client.HExists(ctx, r.visited, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", key, err)
	}
	if !ok {
		return nil
	}
	if err := r.client.HSet(ctx, r.visited, key, redisVisited).Err(); err != nil {
		return fmt.Errorf("failed to mark %s visited: %w", key, err)
	}
	return nil
}

// HasVisited implements Store.
func (r *Redis) HasVisited(ctx context.Context, key string) (bool, error) {
	val, err := r.client.HGet(ctx, r.visited, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return val == redisVisited, nil
}

// Exists implements Store.
func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.HExists(ctx, r.visited, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", key, err)
	}
	return ok, nil
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string) (Entry, bool, error) {
	val, err := r.client.HGet(ctx, r.visited, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	outbound, err := r.client.LRange(ctx, r.outboundKey(key), 0, -1).Result()
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to read outbound links of %s: %w", key, err)
	}
	return Entry{Visited: val == redisVisited, Outbound: outbound}, true, nil
}

// Snapshot implements Store.
func (r *Redis) Snapshot(ctx context.Context) (map[string]Entry, error) {
	states, err := r.client.HGetAll(ctx, r.visited).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read visit states: %w", err)
	}

	keys := make([]string, 0, len(states))
	cmds := make([]*redis.StringSliceCmd, 0, len(states))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for key := range states {
			keys = append(keys, key)
			cmds = append(cmds, pipe.LRange(ctx, r.outboundKey(key), 0, -1))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read outbound links: %w", err)
	}

	out := make(map[string]Entry, len(states))
	for i, key := range keys {
		out[key] = Entry{
			Visited:  states[key] == redisVisited,
			Outbound: cmds[i].Val(),
		}
	}
	return out, nil
}

// Clear deletes every key owned by this store.
func (r *Redis) Clear(ctx context.Context) error {
	keys, err := r.client.HKeys(ctx, r.visited).Result()
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}

	toDelete := make([]string, 0, len(keys)+1)
	toDelete = append(toDelete, r.visited)
	for _, k := range keys {
		toDelete = append(toDelete, r.outboundKey(k))
	}
	return r.client.Del(ctx, toDelete...).Err()
}
