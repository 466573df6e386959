package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"soundstream/internal/cache"
)

// newCache connects to Redis when an address is configured. With no address,
// or when the ping fails, the service falls back to the in-process cache so
// a cache outage never blocks startup.
func newCache(ctx context.Context, addr, password string, log zerolog.Logger) cache.Cache {
	if addr == "" {
		log.Info().Msg("no REDIS_ADDR configured, using in-process cache")
		return cache.NewMemory()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("redis unreachable, using in-process cache")
		_ = client.Close()
		return cache.NewMemory()
	}

	log.Info().Str("addr", addr).Msg("connected to redis")
	return cache.NewRedis(client)
}
