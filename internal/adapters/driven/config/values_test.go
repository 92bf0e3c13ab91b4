package config

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValues_TypedGetters(t *testing.T) {
	v := NewValues()
	require.NoError(t, v.Set("providers.bing.market", "en-GB"))
	require.NoError(t, v.Set("selection.k", 7))
	require.NoError(t, v.Set("cache.search_capacity", int64(128)))
	require.NoError(t, v.Set("router.retry_count", float64(2)))
	require.NoError(t, v.Set("selection.min_score", 0.25))

	assert.Equal(t, "en-GB", v.GetString("providers.bing.market"))
	assert.Equal(t, 7, v.GetInt("selection.k"))
	assert.Equal(t, 128, v.GetInt("cache.search_capacity"))
	assert.Equal(t, 2, v.GetInt("router.retry_count"))
	assert.InDelta(t, 0.25, v.GetFloat("selection.min_score"), 1e-9)
	assert.InDelta(t, 7.0, v.GetFloat("selection.k"), 1e-9)
	assert.InDelta(t, 128.0, v.GetFloat("cache.search_capacity"), 1e-9)

	require.NoError(t, v.Set("debug", true))
	require.NoError(t, v.Set("tags", []any{"rust", 3, "go"}))
	require.NoError(t, v.Set("domains", []string{"legal"}))
	assert.True(t, v.GetBool("debug"))
	assert.Equal(t, []string{"rust", "go"}, v.GetStringSlice("tags"))
	assert.Equal(t, []string{"legal"}, v.GetStringSlice("domains"))
}

func TestValues_MissingAndWrongType(t *testing.T) {
	v := NewValues()
	require.NoError(t, v.Set("selection.k", "five"))

	assert.Equal(t, 0, v.GetInt("selection.k"))
	assert.Equal(t, 0.0, v.GetFloat("selection.k"))
	assert.False(t, v.GetBool("selection.k"))
	assert.Nil(t, v.GetStringSlice("selection.k"))
	assert.Empty(t, v.GetString("missing"))
	require.NoError(t, v.Set("cache.shards", 4))
	assert.Empty(t, v.GetString("cache.shards"))

	val, ok := v.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestValues_SetEmptyKey(t *testing.T) {
	assert.ErrorIs(t, NewValues().Set("  ", 1), ErrEmptyKey)
}

func TestValues_SnapshotIsCopy(t *testing.T) {
	v := NewValues()
	require.NoError(t, v.Set("a.b", 1))

	snap := v.Snapshot()
	snap["a.b"] = 2

	assert.Equal(t, 1, v.GetInt("a.b"))
}

func TestValues_Replace(t *testing.T) {
	v := NewValues()
	require.NoError(t, v.Set("old", "x"))

	v.Replace(map[string]any{"new": "y"})
	_, ok := v.Get("old")
	assert.False(t, ok)
	assert.Equal(t, "y", v.GetString("new"))

	v.Replace(nil)
	assert.Empty(t, v.Snapshot())
	require.NoError(t, v.Set("after", 1))
}

func TestValues_Concurrency(t *testing.T) {
	v := NewValues()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key.%d", i%5)
			_ = v.Set(key, i)
			_ = v.GetInt(key)
			_ = v.Snapshot()
		}(i)
	}
	wg.Wait()

	assert.Len(t, v.Snapshot(), 5)
}

func TestFlattenAndNest(t *testing.T) {
	nested := map[string]any{
		"a": map[string]any{"b": 1, "c": map[string]any{"d": "x"}},
		"e": true,
	}

	flat := Flatten(nested)
	assert.Equal(t, map[string]any{"a.b": 1, "a.c.d": "x", "e": true}, flat)

	back, err := Nest(flat)
	require.NoError(t, err)
	assert.Equal(t, nested, back)
}

func TestNest_Conflicts(t *testing.T) {
	_, err := Nest(map[string]any{"router": "flat", "router.retry_count": 1})
	assert.Error(t, err)

	_, err = Nest(map[string]any{"a.b.c": 1, "a.b": 2})
	assert.Error(t, err)
}
