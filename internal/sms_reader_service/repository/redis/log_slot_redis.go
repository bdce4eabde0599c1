package redis

import (
	"context"
	"errors"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
)

// RedisLogSlot stores the log under a single redis string key.
type RedisLogSlot struct {
	client goredis.Cmdable
	key    string
	logger *slog.Logger
}

// NewRedisLogSlot wraps an existing redis client.
func NewRedisLogSlot(client goredis.Cmdable, key string, logger *slog.Logger) *RedisLogSlot {
	return &RedisLogSlot{client: client, key: key, logger: logger.With("slot", "redis")}
}

// NewClient connects to redis and verifies the connection with PING.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (s *RedisLogSlot) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read log slot", "error", err, "key", s.key)
		return nil, err
	}
	return data, nil
}

func (s *RedisLogSlot) Save(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to write log slot", "error", err, "key", s.key)
		return err
	}
	return nil
}

func (s *RedisLogSlot) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete log slot", "error", err, "key", s.key)
		return err
	}
	return nil
}
