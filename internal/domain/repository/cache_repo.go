package repository

import "time"

// CacheRepository mirrors this repo's existing Redis cache contract,
// trimmed to a small key/value, counter and JSON subset. The rate limiter
// talks to the Redis client directly and does not go through it.
type CacheRepository interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string) (string, error)
	Delete(key string) error
	Increment(key string) (int64, error)
	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error
	Expire(key string, expiration time.Duration) error
	TTL(key string) (time.Duration, error)
}
