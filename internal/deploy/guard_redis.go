package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lease only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard is a Guard shared by every process connected to the same Redis.
type RedisGuard struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisGuard creates a RedisGuard using client.
func NewRedisGuard(client *redis.Client, logger *slog.Logger) *RedisGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisGuard{client: client, prefix: "sitebuilder:deploy:lease:", logger: logger}
}

// ConnectRedis parses a redis:// URL, creates a client and verifies the
// connection with a ping.
func ConnectRedis(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (g *RedisGuard) key(siteID string) string {
	return g.prefix + siteID
}

// Acquire takes the lease with SET NX PX.
func (g *RedisGuard) Acquire(ctx context.Context, siteID string, ttl time.Duration) (func(), error) {
	token := uuid.New().String()
	ok, err := g.client.SetNX(ctx, g.key(siteID), token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring deploy lease: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyInFlight
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, g.client, []string{g.key(siteID)}, token).Err(); err != nil {
			g.logger.Warn("failed to release deploy lease", "site_id", siteID, "error", err)
		}
	}, nil
}

// Held reports whether any process holds the lease.
func (g *RedisGuard) Held(ctx context.Context, siteID string) (bool, error) {
	n, err := g.client.Exists(ctx, g.key(siteID)).Result()
	if err != nil {
		return false, fmt.Errorf("checking deploy lease: %w", err)
	}
	return n > 0, nil
}

// Ping verifies Redis is reachable.
func (g *RedisGuard) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}
