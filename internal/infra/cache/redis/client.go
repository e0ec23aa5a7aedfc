// Package redis keeps booking sessions and idempotency records in Redis so several API
// replicas share them.
package redis

import (
	"context"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

func NewClient(addr, password string, db int) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// Ping is shaped for the readiness probe.
func Ping(client *goredis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
