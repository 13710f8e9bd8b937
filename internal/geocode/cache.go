package geocode

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheTTL = 24 * time.Hour

// Cached wraps a Geocoder with a redis result cache. Cache failures fall
// through to the inner geocoder.
type Cached struct {
	inner  Geocoder
	client *redis.Client
	log    *zap.Logger
}

func NewCached(inner Geocoder, client *redis.Client, log *zap.Logger) *Cached {
	return &Cached{
		inner:  inner,
		client: client,
		log:    log.Named("geocode.cache"),
	}
}

func (c *Cached) Lookup(ctx context.Context, address string) (*Point, error) {
	key := "geocode:" + address

	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		var point Point
		if err := json.Unmarshal([]byte(raw), &point); err == nil {
			return &point, nil
		}
	} else if err != redis.Nil {
		c.log.Debug("cache read failed", zap.Error(err))
	}

	point, err := c.inner.Lookup(ctx, address)
	if err != nil || point == nil {
		return point, err
	}

	if raw, err := json.Marshal(point); err == nil {
		if err := c.client.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
			c.log.Debug("cache write failed", zap.Error(err))
		}
	}
	return point, nil
}
