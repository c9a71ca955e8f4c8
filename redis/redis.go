package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// maxRetries bounds how often Update retries after a concurrent write to the
// watched key.
const maxRetries = 16

// KV stores collections as plain Redis string values.
type KV struct {
	cli *redis.Client
}

// Connect connects to the Redis server and pings the server to ensure the
// connection is working.
func Connect(ctx context.Context, addr string) (*KV, error) {
	cli := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &KV{
		cli: cli,
	}, nil
}

// Close closes the client.
func (r *KV) Close() error {
	return r.cli.Close()
}

func (r *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.cli.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get: %w", err)
	}
	return v, true, nil
}

func (r *KV) Set(ctx context.Context, key string, value []byte) error {
	if err := r.cli.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("set: %w", err)
	}
	return nil
}

func (r *KV) Delete(ctx context.Context, key string) error {
	if err := r.cli.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("del: %w", err)
	}
	return nil
}

// Update runs fn under WATCH on key and writes the result in a MULTI/EXEC
// transaction, retrying when another client changed the key in between.
func (r *KV) Update(ctx context.Context, key string, fn func(old []byte, ok bool) ([]byte, error)) error {
	txf := func(tx *redis.Tx) error {
		old, err := tx.Get(ctx, key).Bytes()
		ok := true
		if errors.Is(err, redis.Nil) {
			old, ok = nil, false
		} else if err != nil {
			return fmt.Errorf("get: %w", err)
		}

		v, err := fn(old, ok)
		if err != nil {
			return err
		}
		if v == nil {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, v, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxRetries; i++ {
		err := r.cli.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis update %s: too many concurrent writers", key)
}
