package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/pathway/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultWorkflowTTL = 5 * time.Minute
	keyWorkflowList    = "pathway:workflow:%s:%s"
)

// WorkflowCache holds encoded workflow listings per representing country.
// Backends must treat every error as a miss; the database stays authoritative.
type WorkflowCache interface {
	Get(ctx context.Context, orgID, representingCountryID string) ([]byte, bool)
	Set(ctx context.Context, orgID, representingCountryID string, payload []byte)
	Invalidate(ctx context.Context, orgID, representingCountryID string)
}

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
	Client *redis.Client `optional:"true"`
}

// NewWorkflowCache picks Redis when a client is configured, else memory.
func NewWorkflowCache(p Params) WorkflowCache {
	ttl := p.Config.WorkflowCacheTTL
	if ttl <= 0 {
		ttl = defaultWorkflowTTL
	}
	if p.Client != nil {
		return NewRedisWorkflowCache(p.Client, ttl, p.Log)
	}
	return NewMemoryWorkflowCache(ttl)
}

// NewRedisClient returns nil when REDIS_ADDR is unset.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}

func workflowKey(orgID, representingCountryID string) string {
	return fmt.Sprintf(keyWorkflowList, strings.TrimSpace(orgID), strings.TrimSpace(representingCountryID))
}

type memoryWorkflowCache struct {
	entries Cache[string, []byte]
	ttl     time.Duration
}

func NewMemoryWorkflowCache(ttl time.Duration) WorkflowCache {
	return &memoryWorkflowCache{
		entries: NewTTLCache[string, []byte](),
		ttl:     ttl,
	}
}

func (c *memoryWorkflowCache) Get(_ context.Context, orgID, representingCountryID string) ([]byte, bool) {
	return c.entries.Get(workflowKey(orgID, representingCountryID))
}

func (c *memoryWorkflowCache) Set(_ context.Context, orgID, representingCountryID string, payload []byte) {
	if len(payload) == 0 {
		return
	}
	c.entries.Set(workflowKey(orgID, representingCountryID), payload, c.ttl)
}

func (c *memoryWorkflowCache) Invalidate(_ context.Context, orgID, representingCountryID string) {
	c.entries.Delete(workflowKey(orgID, representingCountryID))
}

type redisWorkflowCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisWorkflowCache(client *redis.Client, ttl time.Duration, log *zap.Logger) WorkflowCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &redisWorkflowCache{
		client: client,
		ttl:    ttl,
		log:    log.Named("cache.workflow"),
	}
}

func (c *redisWorkflowCache) Get(ctx context.Context, orgID, representingCountryID string) ([]byte, bool) {
	payload, err := c.client.Get(ctx, workflowKey(orgID, representingCountryID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.Warn("workflow cache read failed", zap.Error(err))
		return nil, false
	}
	return payload, true
}

func (c *redisWorkflowCache) Set(ctx context.Context, orgID, representingCountryID string, payload []byte) {
	if len(payload) == 0 {
		return
	}
	if err := c.client.Set(ctx, workflowKey(orgID, representingCountryID), payload, c.ttl).Err(); err != nil {
		c.log.Warn("workflow cache write failed", zap.Error(err))
	}
}

func (c *redisWorkflowCache) Invalidate(ctx context.Context, orgID, representingCountryID string) {
	if err := c.client.Del(ctx, workflowKey(orgID, representingCountryID)).Err(); err != nil {
		c.log.Warn("workflow cache invalidate failed", zap.Error(err))
	}
}
