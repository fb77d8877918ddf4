package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
	"github.com/annel0/blockworld/internal/world/block"
)

func setupTestCache(t *testing.T, maxEntries int) *GenerationCache {
	t.Helper()
	cache, err := NewGenerationCache(maxEntries)
	require.NoError(t, err, "Не удалось создать кеш")
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func testGrid(t *testing.T, marker block.BlockID) *world.Grid {
	t.Helper()
	g, err := world.NewGrid(world.Dimensions{Width: 4, Height: 3, Depth: 5})
	require.NoError(t, err)
	g.SetBlock(vec.Vec3{X: 0, Y: 0, Z: 0}, block.StoneBlockID)
	g.SetBlock(vec.Vec3{X: 3, Y: 2, Z: 4}, marker)
	return g
}

func TestGenerationCache_StoreAndLoad(t *testing.T) {
	cache := setupTestCache(t, 4)
	grid := testGrid(t, block.IronOreBlockID)

	require.NoError(t, cache.Store(42, grid))

	loaded, ok, err := cache.Load(42)
	require.NoError(t, err)
	require.True(t, ok, "Запись должна найтись")
	assert.Equal(t, grid.Dimensions(), loaded.Dimensions())
	assert.Equal(t, grid.EncodeBlocks(), loaded.EncodeBlocks())

	id, _ := loaded.Block(vec.Vec3{X: 3, Y: 2, Z: 4})
	assert.Equal(t, block.IronOreBlockID, id)
}

func TestGenerationCache_Miss(t *testing.T) {
	cache := setupTestCache(t, 4)

	grid, ok, err := cache.Load(7)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, grid)
}

func TestGenerationCache_Eviction(t *testing.T) {
	cache := setupTestCache(t, 2)

	require.NoError(t, cache.Store(1, testGrid(t, block.GrassBlockID)))
	require.NoError(t, cache.Store(2, testGrid(t, block.DirtBlockID)))
	require.NoError(t, cache.Store(3, testGrid(t, block.CoalOreBlockID)))

	assert.Equal(t, 2, cache.Len())

	_, ok, err := cache.Load(1)
	require.NoError(t, err)
	assert.False(t, ok, "Самая старая запись должна быть вытеснена")

	_, ok, _ = cache.Load(3)
	assert.True(t, ok)
}

func TestGenerationCache_OverwriteKeepsSingleEntry(t *testing.T) {
	cache := setupTestCache(t, 4)

	require.NoError(t, cache.Store(9, testGrid(t, block.GrassBlockID)))
	require.NoError(t, cache.Store(9, testGrid(t, block.DirtBlockID)))
	assert.Equal(t, 1, cache.Len())

	loaded, ok, err := cache.Load(9)
	require.NoError(t, err)
	require.True(t, ok)
	id, _ := loaded.Block(vec.Vec3{X: 3, Y: 2, Z: 4})
	assert.Equal(t, block.DirtBlockID, id)
}

func TestGenerationCache_Closed(t *testing.T) {
	cache, err := NewGenerationCache(0)
	require.NoError(t, err)
	require.NoError(t, cache.Close())
	require.NoError(t, cache.Close(), "Повторное закрытие безопасно")

	_, _, err = cache.Load(1)
	assert.ErrorIs(t, err, ErrCacheClosed)
	assert.ErrorIs(t, cache.Store(1, testGrid(t, block.GrassBlockID)), ErrCacheClosed)
}

func TestCodec_RoundTrip(t *testing.T) {
	codec, err := NewCodec()
	require.NoError(t, err)
	defer codec.Close()

	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i % 3)
	}

	packed := codec.Compress(data)
	assert.Less(t, len(packed), len(data))

	unpacked, err := codec.Decompress(packed)
	require.NoError(t, err)
	assert.Equal(t, data, unpacked)

	_, err = codec.Decompress([]byte("not zstd"))
	assert.Error(t, err)
}
