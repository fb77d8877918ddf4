package world

import (
	"context"
	"testing"

	"github.com/annel0/blockworld/internal/rng"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptyWorld(t *testing.T, dims Dimensions) *World {
	t.Helper()
	grid, err := NewGrid(dims)
	require.NoError(t, err)
	return NewWorld(grid)
}

func generatedWorld(t *testing.T, seed int64) *World {
	t.Helper()
	gen, err := NewWorldGenerator(smallParams(seed))
	require.NoError(t, err)
	grid, err := gen.Generate(context.Background())
	require.NoError(t, err)
	return NewWorld(grid)
}

// assertMatchesRebuild сверяет инкрементальный индекс с полной перестройкой
func assertMatchesRebuild(t *testing.T, w *World) {
	t.Helper()
	oracle := w.grid.Clone()
	rebuilt := BuildFaceIndex(oracle)

	require.True(t, w.index.Equal(rebuilt), "Инкрементальный индекс должен совпадать с полной перестройкой")
	require.Equal(t, oracle.cells, w.grid.cells, "Ключи экземпляров должны совпадать с полной перестройкой")
}

func TestWorld_SingleBlockHasSixFaces(t *testing.T) {
	w := emptyWorld(t, Dimensions{Width: 3, Height: 3, Depth: 3})
	pos := vec.Vec3{X: 1, Y: 1, Z: 1}

	require.True(t, w.AddBlock(pos, block.StoneBlockID))
	for _, f := range vec.Faces {
		placements := w.Placements(f, block.StoneBlockID)
		require.Len(t, placements, 1, "Грань %s должна быть видна", f)
		assert.Equal(t, pos, placements[0].Cell)
		assert.Equal(t, pos.Center(), placements[0].Position)
	}

	cell, ok := w.Cell(pos)
	require.True(t, ok)
	assert.NotEqual(t, NoInstance, cell.Instance)
	assertMatchesRebuild(t, w)
}

func TestWorld_EnclosedBlockNotIndexed(t *testing.T) {
	w := emptyWorld(t, Dimensions{Width: 3, Height: 3, Depth: 3})
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			for z := 0; z < 3; z++ {
				require.True(t, w.AddBlock(vec.Vec3{X: x, Y: y, Z: z}, block.DirtBlockID))
			}
		}
	}

	center := vec.Vec3{X: 1, Y: 1, Z: 1}
	cell, _ := w.Cell(center)
	assert.Equal(t, NoInstance, cell.Instance, "Полностью закрытый блок не получает экземпляр")
	for _, f := range vec.Faces {
		assert.False(t, w.index.Has(f, block.DirtBlockID, w.grid.instanceFor(center)))
		// 9 внешних граней на каждой стороне куба
		assert.Equal(t, 9, w.index.FaceCount(f))
	}
	assertMatchesRebuild(t, w)

	// Снятие соседа открывает одну грань центра
	top := vec.Vec3{X: 1, Y: 2, Z: 1}
	_, ok := w.RemoveBlock(top)
	require.True(t, ok)
	cell, _ = w.Cell(center)
	assert.NotEqual(t, NoInstance, cell.Instance)
	assert.True(t, w.index.Has(vec.FaceTop, block.DirtBlockID, w.grid.instanceFor(center)))
	assertMatchesRebuild(t, w)
}

func TestWorld_MutationsOutOfBounds(t *testing.T) {
	w := emptyWorld(t, Dimensions{Width: 2, Height: 2, Depth: 2})
	for _, pos := range []vec.Vec3{{X: -1}, {X: 2}, {Y: -1}, {Y: 2}, {Z: -1}, {Z: 2}} {
		assert.False(t, w.AddBlock(pos, block.StoneBlockID), "AddBlock вне границ %v", pos)
		_, ok := w.RemoveBlock(pos)
		assert.False(t, ok, "RemoveBlock вне границ %v", pos)
		_, ok = w.Block(pos)
		assert.False(t, ok)
		assert.False(t, w.IsSolid(pos))
	}
}

func TestWorld_InvalidMutationsRejected(t *testing.T) {
	w := emptyWorld(t, Dimensions{Width: 2, Height: 2, Depth: 2})
	pos := vec.Vec3{}

	_, ok := w.RemoveBlock(pos)
	assert.False(t, ok, "Удаление пустой ячейки отклоняется")

	assert.False(t, w.AddBlock(pos, block.EmptyBlockID), "Пустой тег нельзя поставить")
	assert.False(t, w.AddBlock(pos, block.BlockID(999)), "Неизвестный тег нельзя поставить")

	require.True(t, w.AddBlock(pos, block.GrassBlockID))
	before := w.Digest()
	assert.False(t, w.AddBlock(pos, block.StoneBlockID), "Занятая ячейка отклоняется")
	assert.Equal(t, before, w.Digest(), "Отклонённая операция не меняет состояние")

	removed, ok := w.RemoveBlock(pos)
	assert.True(t, ok)
	assert.Equal(t, block.GrassBlockID, removed)
}

func TestWorld_AddRemoveRoundTrip(t *testing.T) {
	w := generatedWorld(t, 99)
	dims := w.Dimensions()

	checked := 0
	for x := 0; x < dims.Width && checked < 40; x += 3 {
		for z := 0; z < dims.Depth && checked < 40; z += 2 {
			for y := 0; y < dims.Height; y++ {
				pos := vec.Vec3{X: x, Y: y, Z: z}
				if w.IsSolid(pos) {
					continue
				}
				before := w.Digest()
				facesBefore := w.Faces()

				require.True(t, w.AddBlock(pos, block.StoneBlockID))
				_, ok := w.RemoveBlock(pos)
				require.True(t, ok)

				assert.Equal(t, before, w.Digest(), "add+remove должен восстанавливать мир в %v", pos)
				assert.True(t, facesBefore.Equal(w.Faces()))
				checked++
				break
			}
		}
	}
	assert.Greater(t, checked, 0)
}

func TestWorld_RandomMutationsMatchRebuild(t *testing.T) {
	w := generatedWorld(t, 2024)
	dims := w.Dimensions()
	r := rng.New(31337)
	tags := []block.BlockID{block.GrassBlockID, block.DirtBlockID, block.StoneBlockID, block.CoalOreBlockID, block.IronOreBlockID}

	for i := 0; i < 400; i++ {
		pos := vec.Vec3{
			X: int(r.Uint32()%uint32(dims.Width+2)) - 1,
			Y: int(r.Uint32()%uint32(dims.Height+2)) - 1,
			Z: int(r.Uint32()%uint32(dims.Depth+2)) - 1,
		}
		if r.Float64() < 0.5 {
			w.AddBlock(pos, tags[r.Uint32()%uint32(len(tags))])
		} else {
			w.RemoveBlock(pos)
		}
		if i%20 == 0 {
			assertMatchesRebuild(t, w)
		}
	}
	assertMatchesRebuild(t, w)
}

func TestWorld_VisibilityInvariant(t *testing.T) {
	w := generatedWorld(t, 5)

	w.grid.ForEach(func(pos vec.Vec3, cell Cell) bool {
		if cell.ID == block.EmptyBlockID {
			assert.Equal(t, NoInstance, cell.Instance)
			return true
		}
		anyVisible := false
		for _, f := range vec.Faces {
			visible := faceVisible(w.grid, pos, f)
			anyVisible = anyVisible || visible
			assert.Equal(t, visible, w.index.Has(f, cell.ID, w.grid.instanceFor(pos)),
				"Грань %s ячейки %v", f, pos)
		}
		assert.Equal(t, anyVisible, cell.Instance != NoInstance)
		return true
	})
}

func TestWorld_StatsAndSnapshot(t *testing.T) {
	w := emptyWorld(t, Dimensions{Width: 4, Height: 4, Depth: 4})
	require.True(t, w.AddBlock(vec.Vec3{X: 0, Y: 0, Z: 0}, block.StoneBlockID))
	require.True(t, w.AddBlock(vec.Vec3{X: 1, Y: 0, Z: 0}, block.StoneBlockID))

	stats := w.Stats()
	assert.Equal(t, 10, stats.Total, "Два соседних блока дают 10 видимых граней")
	assert.Equal(t, 2, stats.Visible)
	assert.Equal(t, 1, stats.Faces["left"])
	assert.Equal(t, 1, stats.Faces["right"])
	assert.Equal(t, 2, stats.Faces["top"])

	grid, faces := w.Snapshot()
	require.True(t, w.AddBlock(vec.Vec3{X: 3, Y: 3, Z: 3}, block.DirtBlockID))
	assert.Equal(t, 10, faces.Len(), "Снимок не должен меняться вместе с миром")
	id, _ := grid.Block(vec.Vec3{X: 3, Y: 3, Z: 3})
	assert.Equal(t, block.EmptyBlockID, id)
}
