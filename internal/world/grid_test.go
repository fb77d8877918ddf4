package world

import (
	"testing"

	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrid_RejectsInvalidDimensions(t *testing.T) {
	for _, dims := range []Dimensions{
		{Width: 0, Height: 4, Depth: 4},
		{Width: 4, Height: -1, Depth: 4},
		{Width: 4, Height: 4, Depth: 0},
		{Width: MaxHorizontal + 1, Height: 4, Depth: 4},
		{Width: 4, Height: MaxHeight + 1, Depth: 4},
		{Width: 4, Height: 4, Depth: MaxHorizontal + 1},
		{Width: 1200, Height: 1200, Depth: 1200},
	} {
		_, err := NewGrid(dims)
		assert.ErrorIs(t, err, ErrInvalidDimensions, "Размеры %v должны отклоняться", dims)
	}
}

func TestDimensions_LimitsInclusive(t *testing.T) {
	dims := Dimensions{Width: MaxHorizontal, Height: MaxHeight, Depth: MaxHorizontal}
	assert.NoError(t, dims.Validate(), "Предельные размеры допустимы")
}

func TestGrid_BoundsAreSoft(t *testing.T) {
	g, err := NewGrid(Dimensions{Width: 3, Height: 2, Depth: 4})
	require.NoError(t, err)

	outside := []vec.Vec3{
		{X: -1, Y: 0, Z: 0}, {X: 3, Y: 0, Z: 0},
		{X: 0, Y: -1, Z: 0}, {X: 0, Y: 2, Z: 0},
		{X: 0, Y: 0, Z: -1}, {X: 0, Y: 0, Z: 4},
	}
	for _, pos := range outside {
		_, ok := g.Cell(pos)
		assert.False(t, ok, "Cell вне границ %v", pos)
		_, ok = g.Block(pos)
		assert.False(t, ok, "Block вне границ %v", pos)
		_, ok = g.Instance(pos)
		assert.False(t, ok, "Instance вне границ %v", pos)
		assert.False(t, g.SetBlock(pos, block.StoneBlockID), "SetBlock вне границ %v", pos)
		assert.False(t, g.IsSolid(pos))
	}
}

func TestGrid_IndexRoundTrip(t *testing.T) {
	g, err := NewGrid(Dimensions{Width: 3, Height: 5, Depth: 7})
	require.NoError(t, err)

	seen := make(map[int]bool)
	g.ForEach(func(pos vec.Vec3, _ Cell) bool {
		idx := g.index(pos)
		assert.False(t, seen[idx], "Индекс %d повторяется", idx)
		seen[idx] = true
		assert.Equal(t, pos, g.position(idx))
		return true
	})
	assert.Len(t, seen, 3*5*7)
}

func TestGrid_EncodeDecode(t *testing.T) {
	g, err := NewGrid(Dimensions{Width: 2, Height: 2, Depth: 2})
	require.NoError(t, err)
	g.SetBlock(vec.Vec3{X: 1, Y: 0, Z: 1}, block.IronOreBlockID)
	g.SetBlock(vec.Vec3{X: 0, Y: 1, Z: 0}, block.GrassBlockID)

	data := g.EncodeBlocks()
	assert.Len(t, data, 16)

	decoded, err := DecodeGrid(g.Dimensions(), data)
	require.NoError(t, err)
	assert.Equal(t, g.CountBlocks(), decoded.CountBlocks())
	id, _ := decoded.Block(vec.Vec3{X: 1, Y: 0, Z: 1})
	assert.Equal(t, block.IronOreBlockID, id)

	_, err = DecodeGrid(g.Dimensions(), data[:3])
	assert.Error(t, err, "Данные неверной длины должны отклоняться")

	bad := append([]byte(nil), data...)
	bad[0], bad[1] = 0xFF, 0x00
	_, err = DecodeGrid(g.Dimensions(), bad)
	assert.Error(t, err, "Неизвестный тег должен отклоняться")
}

func TestGrid_CloneIsIndependent(t *testing.T) {
	g, err := NewGrid(Dimensions{Width: 2, Height: 2, Depth: 2})
	require.NoError(t, err)
	clone := g.Clone()
	clone.SetBlock(vec.Vec3{}, block.DirtBlockID)

	id, _ := g.Block(vec.Vec3{})
	assert.Equal(t, block.EmptyBlockID, id, "Изменение копии не должно влиять на оригинал")
}
