package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const tagsKey = "recipes:tags:all"

// TagCache stores the tag list in Redis. Cache failures are logged and treated as misses.
type TagCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTagCache wraps an existing client
func NewTagCache(client *redis.Client, ttl time.Duration) *TagCache {
	return &TagCache{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and checks the server is reachable
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (c *TagCache) GetTags(ctx context.Context) ([]models.Tag, bool) {
	raw, err := c.client.Get(ctx, tagsKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithError(err).Warn("Tag cache read failed")
		}
		return nil, false
	}

	var tags []models.Tag
	if err := json.Unmarshal(raw, &tags); err != nil {
		log.WithError(err).Warn("Discarding corrupt tag cache entry")
		c.Invalidate(ctx)
		return nil, false
	}
	return tags, true
}

func (c *TagCache) SetTags(ctx context.Context, tags []models.Tag) {
	raw, err := json.Marshal(tags)
	if err != nil {
		log.WithError(err).Warn("Tag cache encode failed")
		return
	}
	if err := c.client.Set(ctx, tagsKey, raw, c.ttl).Err(); err != nil {
		log.WithError(err).Warn("Tag cache write failed")
	}
}

func (c *TagCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, tagsKey).Err(); err != nil {
		log.WithError(err).Warn("Tag cache invalidation failed")
	}
}
