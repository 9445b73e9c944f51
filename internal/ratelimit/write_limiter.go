package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/pathway/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyWorkflowWritesOrg = "pathway:ratelimit:writes:org:%s"

type WriteLimiterParams struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
	Client *redis.Client `optional:"true"`
}

// WriteLimiter throttles mutating API calls per organization. Without redis
// it is disabled and allows everything.
type WriteLimiter struct {
	enabled bool
	bucket  *TokenBucket
	rate    float64
	burst   int
	log     *zap.Logger
}

func NewWriteLimiter(p WriteLimiterParams) *WriteLimiter {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	l := &WriteLimiter{
		bucket: NewTokenBucket(p.Client),
		rate:   p.Config.WriteRateLimit,
		burst:  p.Config.WriteRateBurst,
		log:    log.Named("ratelimit"),
	}
	l.enabled = l.bucket != nil && l.rate > 0 && l.burst > 0
	if !l.enabled {
		l.log.Info("write rate limiting disabled")
	}
	return l
}

func (l *WriteLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// Allow takes one token for the organization. Redis failures fail open.
func (l *WriteLimiter) Allow(ctx context.Context, orgID string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return &Result{Allowed: true}, nil
	}

	res, err := l.bucket.Allow(ctx, fmt.Sprintf(keyWorkflowWritesOrg, orgID), l.rate, l.burst)
	if err != nil {
		l.log.Warn("rate limiter unavailable", zap.String("org_id", orgID), zap.Error(err))
		return &Result{Allowed: true}, nil
	}
	return res, nil
}
