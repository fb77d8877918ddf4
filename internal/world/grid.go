package world

import (
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
)

// InstanceID - стабильный ключ экземпляра видимого блока в индексе граней.
// Ноль означает отсутствие экземпляра. Значение выводится из координат
// ячейки (линейный индекс + 1), а не из длины массива размещений.
type InstanceID uint32

// NoInstance означает, что блок не даёт видимой геометрии
const NoInstance InstanceID = 0

// Cell - содержимое одной ячейки сетки
type Cell struct {
	ID       block.BlockID
	Instance InstanceID
}

// Grid - плотный трехмерный массив ячеек, индексируемый [x][y][z].
// Все операции мягко обрабатывают выход за границы.
type Grid struct {
	dims  Dimensions
	cells []Cell
}

// NewGrid создаёт пустую сетку с указанными размерами
func NewGrid(dims Dimensions) (*Grid, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	return &Grid{
		dims:  dims,
		cells: make([]Cell, dims.Volume()),
	}, nil
}

// Dimensions возвращает размеры сетки
func (g *Grid) Dimensions() Dimensions {
	return g.dims
}

// InBounds проверяет, лежит ли ячейка внутри сетки
func (g *Grid) InBounds(pos vec.Vec3) bool {
	return pos.X >= 0 && pos.X < g.dims.Width &&
		pos.Y >= 0 && pos.Y < g.dims.Height &&
		pos.Z >= 0 && pos.Z < g.dims.Depth
}

// index возвращает линейный индекс ячейки (x - старшая ось, z - младшая)
func (g *Grid) index(pos vec.Vec3) int {
	return (pos.X*g.dims.Height+pos.Y)*g.dims.Depth + pos.Z
}

// position восстанавливает координаты по линейному индексу
func (g *Grid) position(idx int) vec.Vec3 {
	z := idx % g.dims.Depth
	rest := idx / g.dims.Depth
	return vec.Vec3{X: rest / g.dims.Height, Y: rest % g.dims.Height, Z: z}
}

// instanceFor возвращает ключ экземпляра для ячейки
func (g *Grid) instanceFor(pos vec.Vec3) InstanceID {
	return InstanceID(g.index(pos) + 1)
}

// Cell возвращает ячейку или false вне границ
func (g *Grid) Cell(pos vec.Vec3) (Cell, bool) {
	if !g.InBounds(pos) {
		return Cell{}, false
	}
	return g.cells[g.index(pos)], true
}

// Block возвращает тег блока или false вне границ
func (g *Grid) Block(pos vec.Vec3) (block.BlockID, bool) {
	if !g.InBounds(pos) {
		return block.EmptyBlockID, false
	}
	return g.cells[g.index(pos)].ID, true
}

// IsSolid сообщает, занята ли ячейка непустым блоком (вне границ - false)
func (g *Grid) IsSolid(pos vec.Vec3) bool {
	id, ok := g.Block(pos)
	return ok && id != block.EmptyBlockID
}

// SetBlock записывает тег блока без обновления индекса граней.
// Используется генератором; изменения во время игры идут через World.
func (g *Grid) SetBlock(pos vec.Vec3, id block.BlockID) bool {
	if !g.InBounds(pos) {
		return false
	}
	g.cells[g.index(pos)].ID = id
	return true
}

// setInstance записывает ключ экземпляра ячейки
func (g *Grid) setInstance(pos vec.Vec3, id InstanceID) {
	g.cells[g.index(pos)].Instance = id
}

// Instance возвращает ключ экземпляра ячейки или false вне границ
func (g *Grid) Instance(pos vec.Vec3) (InstanceID, bool) {
	if !g.InBounds(pos) {
		return NoInstance, false
	}
	return g.cells[g.index(pos)].Instance, true
}

// ForEach обходит ячейки в порядке x, y, z; обход прерывается, если fn вернула false
func (g *Grid) ForEach(fn func(pos vec.Vec3, cell Cell) bool) {
	for idx, cell := range g.cells {
		if !fn(g.position(idx), cell) {
			return
		}
	}
}

// Clone возвращает глубокую копию сетки
func (g *Grid) Clone() *Grid {
	cells := make([]Cell, len(g.cells))
	copy(cells, g.cells)
	return &Grid{dims: g.dims, cells: cells}
}

// CountBlocks возвращает количество ячеек каждого типа
func (g *Grid) CountBlocks() map[block.BlockID]int {
	counts := make(map[block.BlockID]int)
	for _, cell := range g.cells {
		counts[cell.ID]++
	}
	return counts
}
