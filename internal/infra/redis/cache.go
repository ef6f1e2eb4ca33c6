package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kislikjeka/userdir/internal/platform/user"
	"github.com/kislikjeka/userdir/pkg/logger"
)

const (
	// DefaultTTL is the default TTL for cached users
	DefaultTTL = 60 * time.Second

	// KeyPrefix is the prefix for user cache keys
	KeyPrefix = "user:"

	// GenerationPrefix is the prefix for per-user write counters
	GenerationPrefix = "usergen:"

	// generationTTL bounds how long an idle write counter is kept
	generationTTL = 24 * time.Hour
)

// errStaleRead aborts a cache fill that raced with a write
var errStaleRead = errors.New("user changed while it was being read")

// UserCache is a read-through cache in front of another user.Repository.
// Lookups by username are served from Redis when possible. Every write bumps
// a per-user generation and evicts the record; a lookup only fills the cache
// if the generation it saw before reading the store is still current.
type UserCache struct {
	next   user.Repository
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewUserCache wraps next with a Redis cache. A non-positive ttl uses DefaultTTL.
func NewUserCache(next user.Repository, client *redis.Client, ttl time.Duration, log *logger.Logger) *UserCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &UserCache{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: log.WithField("component", "user_cache"),
	}
}

// cachedUser is the JSON form stored in Redis
type cachedUser struct {
	Username string  `json:"username"`
	Age      *int    `json:"age"`
	Location *string `json:"location"`
}

func key(username string) string {
	return KeyPrefix + username
}

func generationKey(username string) string {
	return GenerationPrefix + username
}

// GetByUsername serves from cache, falling back to the wrapped repository
func (c *UserCache) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	val, err := c.client.Get(ctx, key(username)).Result()
	switch {
	case err == nil:
		var cached cachedUser
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			c.logger.Debug("cache hit", "username", username)
			return &user.User{Username: cached.Username, Age: cached.Age, Location: cached.Location}, nil
		}
		c.logger.Warn("discarding undecodable cache entry", "username", username)
	case err == redis.Nil:
		c.logger.Debug("cache miss", "username", username)
	default:
		c.logger.Error("cache error", "operation", "get", "username", username, "error", err)
	}

	gen, genErr := c.generation(ctx, username)

	u, err := c.next.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if genErr == nil {
		c.store(ctx, u, gen)
	}
	return u, nil
}

// List is not cached
func (c *UserCache) List(ctx context.Context, limit int) ([]*user.User, error) {
	return c.next.List(ctx, limit)
}

// Create inserts through the wrapped repository
func (c *UserCache) Create(ctx context.Context, u *user.User) error {
	return c.write(ctx, u.Username, func() error { return c.next.Create(ctx, u) })
}

// Update replaces through the wrapped repository
func (c *UserCache) Update(ctx context.Context, u *user.User) error {
	return c.write(ctx, u.Username, func() error { return c.next.Update(ctx, u) })
}

// Patch merges through the wrapped repository
func (c *UserCache) Patch(ctx context.Context, p *user.Patch) error {
	return c.write(ctx, p.Username, func() error { return c.next.Patch(ctx, p) })
}

// Delete removes through the wrapped repository
func (c *UserCache) Delete(ctx context.Context, username string) error {
	return c.write(ctx, username, func() error { return c.next.Delete(ctx, username) })
}

// Ping checks the Redis connection and, when it can, the wrapped store
func (c *UserCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if p, ok := c.next.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// write invalidates the key before and after fn. A failed first
// invalidation aborts the write.
func (c *UserCache) write(ctx context.Context, username string, fn func() error) error {
	if err := c.invalidate(ctx, username); err != nil {
		return fmt.Errorf("failed to invalidate cached user: %w", err)
	}

	if err := fn(); err != nil {
		return err
	}

	// Lookups that started before fn committed now see a new generation
	if err := c.invalidate(ctx, username); err != nil {
		c.logger.Error("cache error", "operation", "invalidate", "username", username, "error", err)
	}
	return nil
}

// invalidate bumps the generation and drops the record in one transaction
func (c *UserCache) invalidate(ctx context.Context, username string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(username))
		pipe.Expire(ctx, generationKey(username), generationTTL)
		pipe.Del(ctx, key(username))
		return nil
	})
	return err
}

// generation returns the current write counter; a missing counter is 0
func (c *UserCache) generation(ctx context.Context, username string) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(username)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		c.logger.Error("cache error", "operation", "generation", "username", username, "error", err)
		return 0, err
	}
	return gen, nil
}

// store caches u unless a write bumped the generation since gen was read
func (c *UserCache) store(ctx context.Context, u *user.User, gen int64) {
	data, err := json.Marshal(cachedUser{Username: u.Username, Age: u.Age, Location: u.Location})
	if err != nil {
		c.logger.Error("cache error", "operation", "marshal", "username", u.Username, "error", err)
		return
	}

	genKey := generationKey(u.Username)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != gen {
			return errStaleRead
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(u.Username), data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleRead), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("skipping cache fill after concurrent write", "username", u.Username)
	default:
		c.logger.Error("cache error", "operation", "set", "username", u.Username, "error", err)
	}
}

var _ user.Repository = (*UserCache)(nil)
