package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"MediCore/logging"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

type RedisConfig struct {
	URL          string
	PoolSize     int
	DialTimeout  time.Duration
	MinIdleConns int
	ReadTimeout  time.Duration
	MaxRetries   int
}

// LoadRedisConfig loads pool tuning from environment variables with default fallbacks
func LoadRedisConfig(url string) RedisConfig {
	return RedisConfig{
		URL:          url,
		PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
		DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", 30*time.Second),
		MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
		ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", 10*time.Second),
		MaxRetries:   getEnvAsInt("REDIS_MAX_RETRIES", 3),
	}
}

func getEnvAsInt(name string, defaultValue int) int {
	if value, exists := os.LookupEnv(name); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logging.Get().Warn().Str("var", name).Int("default", defaultValue).Msg("invalid integer value, using default")
	}
	return defaultValue
}

func getEnvAsDuration(name string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(name); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
		logging.Get().Warn().Str("var", name).Dur("default", defaultValue).Msg("invalid duration value, using default")
	}
	return defaultValue
}

// NewRedisClient creates a Redis client with the provided configuration
func NewRedisClient(ctx context.Context, config RedisConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = config.PoolSize
	opt.MinIdleConns = config.MinIdleConns
	opt.DialTimeout = config.DialTimeout
	opt.ReadTimeout = config.ReadTimeout
	opt.MaxRetries = config.MaxRetries

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis server: %w", err)
	}

	logging.FromContext(ctx).Info().
		Int("pool_size", config.PoolSize).
		Int("min_idle_conns", config.MinIdleConns).
		Dur("dial_timeout", config.DialTimeout).
		Dur("read_timeout", config.ReadTimeout).
		Int("max_retries", config.MaxRetries).
		Msg("redis client initialized")
	return client, nil
}

// ErrLockNotAcquired is returned when a lock stays held by someone else
// through every retry.
var ErrLockNotAcquired = errors.New("failed to acquire lock")

// Locker serializes work on a key across every instance of the service.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// RedisLocker implements Locker with SET NX and a compare-and-delete release.
type RedisLocker struct {
	client     *redis.Client
	ttl        time.Duration
	maxRetries int
	retryDelay time.Duration
}

// NewRedisLocker returns a locker with the default expiry and retry policy.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	if client == nil {
		panic("database: NewRedisLocker requires a redis client")
	}
	return &RedisLocker{
		client:     client,
		ttl:        10 * time.Second,
		maxRetries: 3,
		retryDelay: 200 * time.Millisecond,
	}
}

const releaseLockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

var releaseScript = redis.NewScript(releaseLockScript)

// Acquire takes the lock, retrying a few times while it is held elsewhere.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	value := uuid.New().String()

	var lastErr error
	for i := 0; i < l.maxRetries; i++ {
		locked, err := l.client.SetNX(ctx, key, value, l.ttl).Result()
		if err == nil && locked {
			return func() {
				if err := l.release(context.Background(), key, value); err != nil {
					logging.FromContext(ctx).Warn().Err(err).Str("key", key).Msg("failed to release lock")
				}
			}, nil
		}
		lastErr = err
		if i < l.maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(l.retryDelay):
			}
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrLockNotAcquired, lastErr)
	}
	return nil, ErrLockNotAcquired
}

func (l *RedisLocker) release(ctx context.Context, key, value string) error {
	result, err := releaseScript.Run(ctx, l.client, []string{key}, value).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if result == 0 {
		return errors.New("lock release failed: not the lock owner")
	}
	return nil
}

// MonitorRedisPool logs the connection pool statistics for monitoring
func MonitorRedisPool(ctx context.Context, client *redis.Client) {
	stats := client.PoolStats()
	logging.FromContext(ctx).Info().
		Uint32("total", stats.TotalConns).
		Uint32("idle", stats.IdleConns).
		Uint32("stale", stats.StaleConns).
		Msg("redis pool stats")
}
