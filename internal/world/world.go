package world

import (
	"sync"

	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
)

// World объединяет сетку и индекс видимых граней.
// Изменения (AddBlock/RemoveBlock) атомарны относительно индекса и
// сериализуются одним мьютексом записи; чтение берёт блокировку чтения.
type World struct {
	mu    sync.RWMutex
	grid  *Grid
	index *FaceIndex
}

// NewWorld оборачивает готовую сетку и полностью строит индекс граней
func NewWorld(grid *Grid) *World {
	w := &World{grid: grid}
	w.index = BuildFaceIndex(grid)
	return w
}

// faceVisible сообщает, видна ли грань ячейки: сосед вне сетки или пуст
func faceVisible(g *Grid, pos vec.Vec3, face vec.Face) bool {
	id, ok := g.Block(pos.Neighbor(face))
	return !ok || id == block.EmptyBlockID
}

// hasVisibleFace сообщает, открыта ли хотя бы одна грань ячейки
func hasVisibleFace(g *Grid, pos vec.Vec3) bool {
	for _, f := range vec.Faces {
		if faceVisible(g, pos, f) {
			return true
		}
	}
	return false
}

// placementFor создаёт запись размещения для ячейки
func placementFor(g *Grid, pos vec.Vec3) Placement {
	return Placement{
		Cell:     pos,
		Position: pos.Center(),
		Instance: g.instanceFor(pos),
	}
}

// BuildFaceIndex полностью перестраивает индекс граней и ключи экземпляров сетки.
// Полностью закрытые блоки не индексируются.
func BuildFaceIndex(g *Grid) *FaceIndex {
	index := NewFaceIndex()
	dims := g.Dimensions()
	for x := 0; x < dims.Width; x++ {
		for y := 0; y < dims.Height; y++ {
			for z := 0; z < dims.Depth; z++ {
				pos := vec.Vec3{X: x, Y: y, Z: z}
				id, _ := g.Block(pos)
				if id == block.EmptyBlockID {
					g.setInstance(pos, NoInstance)
					continue
				}

				visible := false
				for _, f := range vec.Faces {
					if faceVisible(g, pos, f) {
						index.insert(f, id, placementFor(g, pos))
						visible = true
					}
				}
				if visible {
					g.setInstance(pos, g.instanceFor(pos))
				} else {
					g.setInstance(pos, NoInstance)
				}
			}
		}
	}
	return index
}

// Dimensions возвращает размеры мира
func (w *World) Dimensions() Dimensions {
	return w.grid.Dimensions()
}

// InBounds проверяет, лежит ли ячейка внутри мира
func (w *World) InBounds(pos vec.Vec3) bool {
	return w.grid.InBounds(pos)
}

// Block возвращает тег блока или false вне границ
func (w *World) Block(pos vec.Vec3) (block.BlockID, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.grid.Block(pos)
}

// Cell возвращает ячейку или false вне границ
func (w *World) Cell(pos vec.Vec3) (Cell, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.grid.Cell(pos)
}

// IsSolid сообщает, занята ли ячейка (вне границ - false)
func (w *World) IsSolid(pos vec.Vec3) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.grid.IsSolid(pos)
}

// AddBlock ставит блок в пустую ячейку и инкрементально обновляет индекс.
// Возвращает false, если ячейка вне сетки, занята или тег недопустим.
func (w *World) AddBlock(pos vec.Vec3, id block.BlockID) bool {
	if id == block.EmptyBlockID || !block.IsValidBlockID(id) {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	g := w.grid
	current, ok := g.Block(pos)
	if !ok || current != block.EmptyBlockID {
		return false
	}
	g.SetBlock(pos, id)

	visible := false
	for _, f := range vec.Faces {
		npos := pos.Neighbor(f)
		nid, inBounds := g.Block(npos)
		if !inBounds || nid == block.EmptyBlockID {
			w.index.insert(f, id, placementFor(g, pos))
			visible = true
			continue
		}

		// Грань соседа, обращённая к новой ячейке, закрылась
		back := f.Opposite()
		w.index.remove(back, nid, g.instanceFor(npos))
		if !hasVisibleFace(g, npos) {
			g.setInstance(npos, NoInstance)
		}
	}

	if visible {
		g.setInstance(pos, g.instanceFor(pos))
	} else {
		g.setInstance(pos, NoInstance)
	}
	return true
}

// RemoveBlock очищает занятую ячейку и открывает обращённые к ней грани соседей.
// Возвращает false, если ячейка вне сетки или уже пуста.
func (w *World) RemoveBlock(pos vec.Vec3) (block.BlockID, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	g := w.grid
	id, ok := g.Block(pos)
	if !ok || id == block.EmptyBlockID {
		return block.EmptyBlockID, false
	}

	key := g.instanceFor(pos)
	for _, f := range vec.Faces {
		w.index.remove(f, id, key)
	}
	g.SetBlock(pos, block.EmptyBlockID)
	g.setInstance(pos, NoInstance)

	for _, f := range vec.Faces {
		npos := pos.Neighbor(f)
		nid, inBounds := g.Block(npos)
		if !inBounds || nid == block.EmptyBlockID {
			continue
		}
		w.index.insert(f.Opposite(), nid, placementFor(g, npos))
		if inst, _ := g.Instance(npos); inst == NoInstance {
			g.setInstance(npos, g.instanceFor(npos))
		}
	}
	return id, true
}

// Placements возвращает копию размещений грани для тега блока
func (w *World) Placements(face vec.Face, id block.BlockID) []Placement {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.index.Placements(face, id)
}

// Faces возвращает глубокую копию индекса граней для внешнего рендера
func (w *World) Faces() *FaceIndex {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.index.Clone()
}

// Snapshot возвращает согласованные копии сетки и индекса
func (w *World) Snapshot() (*Grid, *FaceIndex) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.grid.Clone(), w.index.Clone()
}

// Stats возвращает сводку по видимым граням
func (w *World) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()

	stats := Stats{Faces: make(map[string]int, vec.FaceCount)}
	for _, f := range vec.Faces {
		n := w.index.FaceCount(f)
		stats.Faces[f.String()] = n
		stats.Total += n
	}
	for _, cell := range w.grid.cells {
		if cell.Instance != NoInstance {
			stats.Visible++
		}
	}
	return stats
}

// EncodeBlocks сериализует теги блоков текущей сетки
func (w *World) EncodeBlocks() []byte {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.grid.EncodeBlocks()
}
