// Package redis connects to Redis with github.com/redis/go-redis/v9.
//
// Connect reads REDIS_* settings from Config, retries the initial ping and
// returns a ready *redis.Client. Healthcheck adapts any UniversalClient to a
// readiness probe for the HTTP health endpoint.
package redis
