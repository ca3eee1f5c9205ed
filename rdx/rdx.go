package rdx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrNil is returned by Get for a missing or expired key.
var ErrNil = errors.New("rdx: key not found")

type Client struct {
	Conn *redis.Client
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, addr, password string, db int, log *zap.Logger) (*Client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := conn.Ping(ctx).Err(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	log.Info("connected to redis", zap.String("addr", addr), zap.Int("db", db))
	return &Client{Conn: conn}, nil
}

func (c *Client) RdxSet(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.Conn.Set(ctx, key, value, ttl).Err()
}

func (c *Client) RdxGet(ctx context.Context, key string) (string, error) {
	v, err := c.Conn.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNil
	}
	return v, err
}

func (c *Client) RdxDel(ctx context.Context, key string) error {
	return c.Conn.Del(ctx, key).Err()
}

func (c *Client) Close() error {
	return c.Conn.Close()
}
