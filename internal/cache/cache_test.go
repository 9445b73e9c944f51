package cache

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/pathway/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTTLCacheExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTTLCache[string, int](func() time.Time { return now })

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, 0)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)

	v, ok = c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	c.Delete("b")
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestMemoryWorkflowCacheIsScopedByOrg(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryWorkflowCache(time.Minute)

	c.Set(ctx, "1", "10", []byte(`[{"id":"1"}]`))

	got, ok := c.Get(ctx, "1", "10")
	assert.True(t, ok)
	assert.JSONEq(t, `[{"id":"1"}]`, string(got))

	_, ok = c.Get(ctx, "2", "10")
	assert.False(t, ok)

	c.Invalidate(ctx, "1", "10")
	_, ok = c.Get(ctx, "1", "10")
	assert.False(t, ok)
}

func TestMemoryWorkflowCacheIgnoresEmptyPayload(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryWorkflowCache(time.Minute)

	c.Set(ctx, "1", "10", nil)
	_, ok := c.Get(ctx, "1", "10")
	assert.False(t, ok)
}

func TestNewWorkflowCacheFallsBackToMemory(t *testing.T) {
	c := NewWorkflowCache(Params{Config: config.Config{}, Log: zap.NewNop()})
	_, ok := c.(*memoryWorkflowCache)
	assert.True(t, ok)
}

func TestWorkflowKey(t *testing.T) {
	assert.Equal(t, "pathway:workflow:1:10", workflowKey(" 1", "10 "))
}
