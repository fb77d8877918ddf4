package world

import (
	"encoding/binary"
	"fmt"

	"github.com/annel0/blockworld/internal/world/block"
)

// EncodeBlocks сериализует теги блоков сетки: uint16 little-endian на ячейку
// в порядке x, y, z. Ключи экземпляров не сохраняются - они выводятся заново.
func (g *Grid) EncodeBlocks() []byte {
	out := make([]byte, 0, len(g.cells)*2)
	for _, cell := range g.cells {
		out = binary.LittleEndian.AppendUint16(out, uint16(cell.ID))
	}
	return out
}

// DecodeGrid восстанавливает сетку из результата EncodeBlocks
func DecodeGrid(dims Dimensions, data []byte) (*Grid, error) {
	grid, err := NewGrid(dims)
	if err != nil {
		return nil, err
	}
	if len(data) != len(grid.cells)*2 {
		return nil, fmt.Errorf("неверный размер данных сетки: %d байт, ожидалось %d", len(data), len(grid.cells)*2)
	}
	for i := range grid.cells {
		id := block.BlockID(binary.LittleEndian.Uint16(data[i*2:]))
		if id != block.EmptyBlockID && !block.IsValidBlockID(id) {
			return nil, fmt.Errorf("неизвестный блок %d в ячейке %d", id, i)
		}
		grid.cells[i].ID = id
	}
	return grid, nil
}
