package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"loan-intake/internal/common/logger"
	"loan-intake/internal/models"
)

// Cached is a read-through, write-through Redis cache in front of another Repository.
// Cache faults are logged and never fail the operation.
type Cached struct {
	next   Repository
	redis  redis.Cmdable
	ttl    time.Duration
	prefix string
	logger logger.Logger
}

func NewCached(next Repository, rdb redis.Cmdable, ttl time.Duration, prefix string, log logger.Logger) *Cached {
	return &Cached{
		next:   next,
		redis:  rdb,
		ttl:    ttl,
		prefix: prefix,
		logger: log.WithFields(map[string]interface{}{"component": "application-cache"}),
	}
}

func (c *Cached) key(id string) string {
	return c.prefix + id
}

func (c *Cached) FindByID(ctx context.Context, id string) (*models.Application, error) {
	cached, err := c.redis.Get(ctx, c.key(id)).Bytes()
	switch {
	case err == nil:
		var app models.Application
		if err := json.Unmarshal(cached, &app); err == nil {
			return &app, nil
		}
		c.logger.Warn("discarding undecodable cache entry", map[string]interface{}{"applicationId": id})
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("cache read failed", map[string]interface{}{"applicationId": id, "error": err})
	}

	app, err := c.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, app)
	return app, nil
}

func (c *Cached) Upsert(ctx context.Context, app *models.Application) error {
	if err := c.next.Upsert(ctx, app); err != nil {
		return err
	}
	c.store(ctx, app)
	return nil
}

// LoadAll always reads through; the cache holds no index of all records.
func (c *Cached) LoadAll(ctx context.Context) ([]*models.Application, error) {
	return c.next.LoadAll(ctx)
}

func (c *Cached) store(ctx context.Context, app *models.Application) {
	data, err := json.Marshal(app)
	if err != nil {
		c.logger.Warn("cache encode failed", map[string]interface{}{"applicationId": app.ID, "error": err})
		return
	}
	if err := c.redis.Set(ctx, c.key(app.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{"applicationId": app.ID, "error": err})
		// a stale entry must not outlive a failed refresh
		if err := c.redis.Del(ctx, c.key(app.ID)).Err(); err != nil {
			c.logger.Warn("cache invalidate failed", map[string]interface{}{"applicationId": app.ID, "error": err})
		}
	}
}
