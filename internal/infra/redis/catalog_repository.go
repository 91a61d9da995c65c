package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"city-quiz-service/internal/catalog"
	"city-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches a catalog from a backing store (file, Postgres, ...).
type CatalogLoader interface {
	LoadCatalog(ctx context.Context, catalogID string) (*catalog.Catalog, error)
}

// CatalogRepository caches catalogs in Redis and falls back to a loader on cache miss.
// Order is stored as:   RPUSH catalog:{id}:order  {name}...
// Records are stored as: HSET catalog:{id}:cities {name} {json}
type CatalogRepository struct {
	client *redis.Client
	loader CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalogRepository(client *redis.Client, loader CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) GetCatalog(ctx context.Context, catalogID string) (*catalog.Catalog, error) {
	if c, ok := r.fromCache(ctx, catalogID); ok {
		return c, nil
	}

	result, err, _ := r.sf.Do(catalogID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if c, ok := r.fromCache(ctx, catalogID); ok {
			return c, nil
		}

		c, err := r.loader.LoadCatalog(ctx, catalogID)
		if err != nil {
			return nil, err
		}

		orderKey, citiesKey := r.orderKey(catalogID), r.citiesKey(catalogID)
		ttl := r.ttlWithJitter()
		pipe := r.client.TxPipeline()
		pipe.Del(ctx, orderKey, citiesKey)
		for _, city := range c.All() {
			raw, err := json.Marshal(city)
			if err != nil {
				return nil, fmt.Errorf("encode city %q: %w", city.Name, err)
			}
			pipe.RPush(ctx, orderKey, city.Name)
			pipe.HSet(ctx, citiesKey, city.Name, raw)
		}
		if ttl > 0 {
			pipe.Expire(ctx, orderKey, ttl)
			pipe.Expire(ctx, citiesKey, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*catalog.Catalog), nil
}

// fromCache rebuilds a catalog from Redis. Any inconsistency counts as a miss.
func (r *CatalogRepository) fromCache(ctx context.Context, catalogID string) (*catalog.Catalog, bool) {
	names, err := r.client.LRange(ctx, r.orderKey(catalogID), 0, -1).Result()
	if err != nil || len(names) == 0 {
		return nil, false
	}
	records, err := r.client.HGetAll(ctx, r.citiesKey(catalogID)).Result()
	if err != nil || len(records) != len(names) {
		return nil, false
	}

	cities := make([]domain.City, 0, len(names))
	for _, name := range names {
		raw, ok := records[name]
		if !ok {
			return nil, false
		}
		var city domain.City
		if err := json.Unmarshal([]byte(raw), &city); err != nil {
			return nil, false
		}
		cities = append(cities, city)
	}
	c, err := catalog.New(catalogID, cities)
	if err != nil {
		return nil, false
	}
	return c, true
}

func (r *CatalogRepository) orderKey(catalogID string) string {
	return "catalog:" + catalogID + ":order"
}

func (r *CatalogRepository) citiesKey(catalogID string) string {
	return "catalog:" + catalogID + ":cities"
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
