package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Carrier city directories change rarely; a day-long TTL keeps directory
// traffic near zero without risking stale codes for long.
const locationTTL = 24 * time.Hour

// LocationCache caches resolved carrier location codes in Redis.
// Key format: loc:<carrier>:<lower-cased city>
type LocationCache struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewLocationCache creates a LocationCache wrapping the given Redis client.
func NewLocationCache(client *redis.Client, log zerolog.Logger) *LocationCache {
	return &LocationCache{client: client, log: log}
}

// GetCode returns the cached code for carrier+city. Cache outages read as
// misses.
func (c *LocationCache) GetCode(ctx context.Context, carrier, city string) (string, bool) {
	code, err := c.client.Get(ctx, c.key(carrier, city)).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug().Err(err).Str("carrier", carrier).Msg("location cache read failed")
		}
		return "", false
	}
	return code, true
}

// SetCode stores a resolved code with the directory TTL. Write failures are
// logged and swallowed.
func (c *LocationCache) SetCode(ctx context.Context, carrier, city, code string) {
	if err := c.client.Set(ctx, c.key(carrier, city), code, locationTTL).Err(); err != nil {
		c.log.Debug().Err(err).Str("carrier", carrier).Msg("location cache write failed")
	}
}

func (c *LocationCache) key(carrier, city string) string {
	return fmt.Sprintf("loc:%s:%s", carrier, strings.ToLower(city))
}
