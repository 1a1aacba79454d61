// Package redisstore implements store.Store on Redis via go-redis.
//
// RunAtomic uses optimistic concurrency: WATCH the key set, read through the
// watched connection, queue writes, and commit them in a MULTI/EXEC pipeline.
// If any watched key changes before EXEC the commit fails and the whole body
// is retried from scratch, up to a ceiling.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/alfredjeanlab/trail/internal/store"
)

// maxTxAttempts bounds optimistic retries before RunAtomic reports
// ErrContention.
const maxTxAttempts = 16

// Store is a store.Store backed by a single Redis instance.
type Store struct {
	client *redis.Client
}

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// New connects to the Redis instance at url (redis://host:port, rediss://,
// or unix://path formats) and verifies it is reachable.
func New(ctx context.Context, url string) (*Store, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping %s: %w", opt.Addr, classify(err))
	}
	return &Store{client: client}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, classify(err)
	}
	return v, true, nil
}

func (s *Store) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	v, err := s.client.LRange(ctx, key, start, stop).Result()
	return v, classify(err)
}

func (s *Store) ListLen(ctx context.Context, key string) (int64, error) {
	n, err := s.client.LLen(ctx, key).Result()
	return n, classify(err)
}

func (s *Store) SetMembers(ctx context.Context, key string) ([]string, error) {
	v, err := s.client.SMembers(ctx, key).Result()
	return v, classify(err)
}

func (s *Store) RunAtomic(ctx context.Context, keys []string, fn func(tx store.Tx) error) error {
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
			t := &tx{ctx: ctx, r: rtx}
			if err := fn(t); err != nil {
				return err
			}
			if len(t.writes) == 0 {
				return nil
			}
			_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for _, queue := range t.writes {
					queue(pipe)
				}
				return nil
			})
			return err
		}, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return classify(err)
	}
	return fmt.Errorf("transaction over %d keys lost %d optimistic rounds: %w",
		len(keys), maxTxAttempts, store.ErrContention)
}

func (s *Store) Ping(ctx context.Context) error {
	return classify(s.client.Ping(ctx).Err())
}

func (s *Store) Close() error {
	return s.client.Close()
}

// tx reads through the watched connection and buffers writes for the
// MULTI/EXEC pipeline.
type tx struct {
	ctx    context.Context
	r      *redis.Tx
	writes []func(pipe redis.Pipeliner)
}

var _ store.Tx = (*tx)(nil)

func (t *tx) Get(key string) (string, bool, error) {
	v, err := t.r.Get(t.ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, classify(err)
	}
	return v, true, nil
}

func (t *tx) GetInt(key string) (int64, bool, error) {
	v, ok, err := t.Get(key)
	if err != nil || !ok {
		return 0, ok, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, true, fmt.Errorf("%w: key %q is not an integer", store.ErrWrongType, key)
	}
	return n, true, nil
}

func (t *tx) ListRange(key string, start, stop int64) ([]string, error) {
	v, err := t.r.LRange(t.ctx, key, start, stop).Result()
	return v, classify(err)
}

func (t *tx) ListLen(key string) (int64, error) {
	n, err := t.r.LLen(t.ctx, key).Result()
	return n, classify(err)
}

func (t *tx) SetIfAbsent(key, value string) {
	t.writes = append(t.writes, func(pipe redis.Pipeliner) {
		pipe.SetNX(t.ctx, key, value, 0)
	})
}

func (t *tx) AppendList(key string, values ...string) {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	t.writes = append(t.writes, func(pipe redis.Pipeliner) {
		pipe.RPush(t.ctx, key, args...)
	})
}

func (t *tx) PopFrontList(key string, n int64) {
	t.writes = append(t.writes, func(pipe redis.Pipeliner) {
		pipe.LPopCount(t.ctx, key, int(n))
	})
}

func (t *tx) IncrBy(key string, delta int64) {
	t.writes = append(t.writes, func(pipe redis.Pipeliner) {
		pipe.IncrBy(t.ctx, key, delta)
	})
}

func (t *tx) Delete(keys ...string) {
	t.writes = append(t.writes, func(pipe redis.Pipeliner) {
		pipe.Del(t.ctx, keys...)
	})
}

func (t *tx) AddSetMember(key, member string) {
	t.writes = append(t.writes, func(pipe redis.Pipeliner) {
		pipe.SAdd(t.ctx, key, member)
	})
}

// classify maps backend failures onto the store sentinels so callers can use
// errors.Is without knowing about go-redis.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case strings.HasPrefix(err.Error(), "WRONGTYPE"):
		return fmt.Errorf("%w: %w", store.ErrWrongType, err)
	case isConnErr(err):
		return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	default:
		return err
	}
}

func isConnErr(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, redis.ErrClosed)
}
