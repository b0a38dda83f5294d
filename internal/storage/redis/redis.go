// Package redis stores live ticker records in Redis sorted sets.
package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Client wraps redis.Client for dependency injection.
type Client struct {
	*redis.Client
}

// NewClient connects to addr and verifies the connection.
// addr is either host:port or a redis:// URL.
func NewClient(ctx context.Context, addr string) (*Client, error) {
	opts, err := parseAddr(addr)
	if err != nil {
		return nil, fmt.Errorf("parse redis address: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{Client: rdb}, nil
}

func parseAddr(addr string) (*redis.Options, error) {
	if addr == "" {
		return nil, fmt.Errorf("empty address")
	}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		return redis.ParseURL(addr)
	}
	return &redis.Options{Addr: addr}, nil
}
