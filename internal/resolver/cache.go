package resolver

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/chxlky/trello-agent/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// BoardCache holds the owner's board listing between resolutions.
type BoardCache interface {
	Load(ctx context.Context) ([]models.Board, bool)
	Store(ctx context.Context, boards []models.Board)
	Invalidate(ctx context.Context)
}

// MemoryCache keeps the listing in process. A zero TTL never expires.
type MemoryCache struct {
	mu       sync.RWMutex
	boards   []models.Board
	storedAt time.Time
	loaded   bool
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl < 0 {
		ttl = 0
	}
	return &MemoryCache{ttl: ttl, now: time.Now}
}

func (c *MemoryCache) Load(_ context.Context) ([]models.Board, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.loaded {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(c.storedAt) >= c.ttl {
		return nil, false
	}
	return append([]models.Board(nil), c.boards...), true
}

func (c *MemoryCache) Store(_ context.Context, boards []models.Board) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.boards = append([]models.Board(nil), boards...)
	c.storedAt = c.now()
	c.loaded = true
}

func (c *MemoryCache) Invalidate(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.boards = nil
	c.loaded = false
}

// RedisCache stores the listing as JSON under a single key so several agent
// processes share one view. Redis errors degrade to a cache miss.
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCache(client *redis.Client, key string, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if key == "" {
		key = "trello-agent:boards"
	}
	if ttl < 0 {
		ttl = 0
	}
	if logger == nil {
		logger = zap.L()
	}
	return &RedisCache{client: client, key: key, ttl: ttl, logger: logger}
}

func (c *RedisCache) Load(ctx context.Context) ([]models.Board, bool) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Board cache read failed", zap.String("key", c.key), zap.Error(err))
		}
		return nil, false
	}

	var boards []models.Board
	if err := json.Unmarshal(data, &boards); err != nil {
		_ = c.client.Del(ctx, c.key).Err()
		return nil, false
	}
	return boards, true
}

func (c *RedisCache) Store(ctx context.Context, boards []models.Board) {
	data, err := json.Marshal(boards)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Board cache write failed", zap.String("key", c.key), zap.Error(err))
	}
}

func (c *RedisCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		c.logger.Warn("Board cache invalidation failed", zap.String("key", c.key), zap.Error(err))
	}
}
