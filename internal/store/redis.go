package store

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedis builds a client with short timeouts. It does not dial until first use.
func NewRedis(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  6 * time.Second,
		WriteTimeout: time.Second,
	})
}
