package companies

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"green-finance-risk/internal/common/logger"
	"green-finance-risk/internal/models"
)

const (
	companyKeyPrefix = "greenrisk:company:"
	namesKey         = "greenrisk:companies"
)

// CachedCatalog puts a Redis read-through cache in front of another catalog.
// Cache failures are logged and never fail a lookup.
type CachedCatalog struct {
	next   Catalog
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedCatalog(next Catalog, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedCatalog {
	return &CachedCatalog{
		next:   next,
		redis:  client,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"component": "company-cache"}),
	}
}

func (c *CachedCatalog) Names(ctx context.Context) ([]string, error) {
	var names []string
	if c.get(ctx, namesKey, &names) {
		return names, nil
	}
	names, err := c.next.Names(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, namesKey, names)
	return names, nil
}

func (c *CachedCatalog) Lookup(ctx context.Context, name string) (models.CompanyContext, error) {
	key := companyKeyPrefix + name

	var company models.CompanyContext
	if c.get(ctx, key, &company) {
		return company, nil
	}
	company, err := c.next.Lookup(ctx, name)
	if err != nil {
		return models.CompanyContext{}, err
	}
	c.set(ctx, key, company)
	return company, nil
}

func (c *CachedCatalog) get(ctx context.Context, key string, dst interface{}) bool {
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return false
	}
	if err := json.Unmarshal([]byte(val), dst); err != nil {
		c.logger.Warn("Discarding malformed cache entry", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	return true
}

func (c *CachedCatalog) set(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}
