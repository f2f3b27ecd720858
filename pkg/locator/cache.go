package locator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/madewith/chatbot/backend/pkg/common"
	"github.com/madewith/chatbot/backend/pkg/logger"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CachedPlacesClient keeps successful nearby searches in Redis. Cache
// failures are logged and the lookup falls through to the wrapped client.
type CachedPlacesClient struct {
	next  PlacesClient
	redis *redis.Client
	ttl   time.Duration
	group singleflight.Group
}

func NewCachedPlacesClient(next PlacesClient, rdb *redis.Client, ttl time.Duration) *CachedPlacesClient {
	return &CachedPlacesClient{
		next:  next,
		redis: rdb,
		ttl:   ttl,
	}
}

func cacheKey(keyword string, coord common.Coordinate, radiusMeters int) string {
	return fmt.Sprintf(
		"places:%s:%.5f,%.5f:%d",
		strings.ToLower(strings.TrimSpace(keyword)), coord.Lat, coord.Lng, radiusMeters,
	)
}

func (c *CachedPlacesClient) NearbySearch(
	ctx context.Context,
	keyword string,
	coord common.Coordinate,
	radiusMeters int,
) ([]common.Place, error) {
	key := cacheKey(keyword, coord, radiusMeters)

	cached, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var places []common.Place
		if err := json.Unmarshal(cached, &places); err == nil {
			return places, nil
		}
		logger.Warn("[Locator] Dropping unreadable cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		logger.Warn("[Locator] Places cache read failed", "key", key, "err", err)
	}

	// The shared lookup is detached from every caller's cancellation.
	ch := c.group.DoChan(key, func() (any, error) {
		sharedCtx := context.WithoutCancel(ctx)

		places, err := c.next.NearbySearch(sharedCtx, keyword, coord, radiusMeters)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(places)
		if err == nil {
			err = c.redis.Set(sharedCtx, key, data, c.ttl).Err()
		}
		if err != nil {
			logger.Warn("[Locator] Places cache write failed", "key", key, "err", err)
		}
		return places, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]common.Place), nil
	}
}
