package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexmemory/cortex/internal/cache"
)

func TestStrings_SetGet(t *testing.T) {
	c, err := cache.New(100, nil)
	require.NoError(t, err)
	defer c.Close()

	c.Set("k1", "v1", time.Minute)
	v, ok := c.Get("k1")
	require.True(t, ok)
	assert.Equal(t, "v1", v)
}

func TestStrings_MissReturnsFalse(t *testing.T) {
	c, err := cache.New(100, nil)
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestStrings_Delete(t *testing.T) {
	c, err := cache.New(100, nil)
	require.NoError(t, err)
	defer c.Close()

	c.Set("k1", "v1", time.Minute)
	c.Delete("k1")
	_, ok := c.Get("k1")
	assert.False(t, ok)
}
