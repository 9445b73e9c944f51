package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/pathway/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWriteLimiterWithoutRedisAllowsEverything(t *testing.T) {
	limiter := NewWriteLimiter(WriteLimiterParams{
		Config: config.Config{WriteRateLimit: 1, WriteRateBurst: 1},
		Log:    zap.NewNop(),
	})
	assert.False(t, limiter.Enabled())

	for i := 0; i < 5; i++ {
		res, err := limiter.Allow(context.Background(), "42")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
}

func TestNilWriteLimiterIsDisabled(t *testing.T) {
	var limiter *WriteLimiter
	assert.False(t, limiter.Enabled())

	res, err := limiter.Allow(context.Background(), "42")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestTokenBucketRequiresClient(t *testing.T) {
	assert.Nil(t, NewTokenBucket(nil))

	var bucket *TokenBucket
	_, err := bucket.Allow(context.Background(), "key", 1, 1)
	assert.Error(t, err)
}

func TestRetryAfter(t *testing.T) {
	assert.Zero(t, retryAfter(true, 0, 2))
	assert.Equal(t, 500*time.Millisecond, retryAfter(false, 0, 2))
	assert.Equal(t, 250*time.Millisecond, retryAfter(false, 0.5, 2))
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, 40*time.Second, bucketTTL(1, 20))
	assert.Equal(t, time.Second, bucketTTL(100, 1))
	assert.Equal(t, time.Second, bucketTTL(0, 1))
}

func TestScriptReplyConversion(t *testing.T) {
	assert.Equal(t, int64(1), toInt(int64(1)))
	assert.Equal(t, int64(7), toInt("7"))
	assert.Equal(t, 3.0, toFloat(int64(3)))
	assert.Equal(t, 2.5, toFloat("2.5"))
	assert.Zero(t, toFloat(nil))
}
