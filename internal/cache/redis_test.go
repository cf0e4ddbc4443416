package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/stockpilot/internal/core"
)

// testAddrEnv names a disposable Redis instance for integration tests.
const testAddrEnv = "STOCKPILOT_TEST_REDIS_ADDR"

func TestProductsKey(t *testing.T) {
	c := New(redis.NewClient(&redis.Options{Addr: "localhost:0"}), "")
	defer c.Close()

	assert.Equal(t, "stockpilot:products:all", c.productsKey(""))
	assert.Equal(t, "stockpilot:products:c:Audio", c.productsKey("Audio"))
	assert.NotEqual(t, c.productsKey(""), c.productsKey("all"), "a category named all must not shadow the full list")
}

func TestNewRedisCache_EmptyAddr(t *testing.T) {
	_, err := NewRedisCache(context.Background(), Config{})
	assert.Error(t, err)
}

func TestRedisCache_Integration(t *testing.T) {
	addr := os.Getenv(testAddrEnv)
	if addr == "" {
		t.Skipf("%s not set", testAddrEnv)
	}

	ctx := context.Background()
	c, err := NewRedisCache(ctx, Config{Addr: addr, Prefix: "stockpilot-test-" + time.Now().Format("150405.000")})
	require.NoError(t, err)
	defer c.Close()
	defer c.Invalidate(ctx) //nolint:errcheck

	_, ok, err := c.GetProducts(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)

	products := []core.Product{{ID: 2, Name: "Widget", Unit: "pcs", Category: "Tools", Brand: "Acme", Stock: 3}}
	require.NoError(t, c.SetProducts(ctx, "", products, time.Minute))
	require.NoError(t, c.SetProducts(ctx, "Tools", products, time.Minute))

	got, ok, err := c.GetProducts(ctx, "Tools")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, products, got)

	require.NoError(t, c.Invalidate(ctx))
	for _, category := range []string{"", "Tools"} {
		_, ok, err := c.GetProducts(ctx, category)
		require.NoError(t, err)
		assert.False(t, ok, category)
	}
}
