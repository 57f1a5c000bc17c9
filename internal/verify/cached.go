package verify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Cache stores verified identities.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisCache is a Cache on top of Redis.
type RedisCache struct {
	client redis.Cmdable
	prefix string
}

// NewRedisCache wraps a redis client. Keys are stored under prefix.
func NewRedisCache(client redis.Cmdable, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// Get returns the cached identity, if any.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores an identity with a TTL.
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

// lookupTimeout bounds a collapsed lookup, which runs detached from any single caller.
const lookupTimeout = 5 * time.Second

// Cached remembers positive membership answers of another verifier for wallet credentials.
// Denials are never cached, so a wallet added to a group is admitted on its next attempt.
// Signed tokens are never cached: they are checked by the wrapped verifier on every request.
type Cached struct {
	next  Verifier
	cache Cache
	ttl   time.Duration
	log   *zerolog.Logger
	group singleflight.Group
}

// NewCached wraps next with cache.
func NewCached(next Verifier, cache Cache, ttl time.Duration, logger *zerolog.Logger) *Cached {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Cached{next: next, cache: cache, ttl: ttl, log: logger}
}

func cacheKey(wallet, room string) string {
	return room + ":" + strings.ToLower(wallet)
}

// Verify implements Verifier. Cache failures fall through to the wrapped verifier.
func (c *Cached) Verify(ctx context.Context, claimed, room string) (string, error) {
	if claimed == "" {
		return "", ErrMissingIdentity
	}
	if !ValidAddress(claimed) {
		return c.next.Verify(ctx, claimed, room)
	}

	key := cacheKey(claimed, room)
	if identity, ok, err := c.cache.Get(ctx, key); err != nil {
		c.log.Warn().Err(err).Str("room", room).Msg("verify cache read failed")
	} else if ok {
		return identity, nil
	}

	// The shared lookup must not die with whichever caller started it.
	lookupCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(lookupCtx, lookupTimeout)
		defer cancel()

		identity, err := c.next.Verify(lctx, claimed, room)
		if err != nil {
			return "", err
		}
		if err := c.cache.Set(lctx, key, identity, c.ttl); err != nil {
			c.log.Warn().Err(err).Str("room", room).Msg("verify cache write failed")
		}
		return identity, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
