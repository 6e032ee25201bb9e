package config

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds the Redis client backing the response cache
// and the vote rate limiter. The address comes from REDIS_HOST and
// REDIS_PORT, or REDIS_ADDR as a host:port shorthand; REDIS_PASSWORD,
// REDIS_DB and REDIS_TLS are optional. The client is pinged once with
// a short timeout and nil is returned on failure, in which case the
// caller runs without caching or rate limiting rather than refusing
// to start.
func NewRedisClient() *redis.Client {
	addr := envStr("REDIS_ADDR", "")
	if host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", ""); host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}

	var tlsConf *tls.Config
	if envBool("REDIS_TLS", false) {
		tlsConf = &tls.Config{InsecureSkipVerify: true}
	}

	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  envStr("REDIS_PASSWORD", ""),
		DB:        envInt("REDIS_DB", 0),
		TLSConfig: tlsConf,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}
