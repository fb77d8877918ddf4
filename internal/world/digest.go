package world

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/annel0/blockworld/internal/vec"
)

// Digest возвращает хеш содержимого мира (ячейки, ключи экземпляров и индекс граней).
// Два прогона генерации с одинаковыми параметрами дают одинаковый хеш.
func (w *World) Digest() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()

	h := xxhash.New()
	buf := make([]byte, 0, 64)

	dims := w.grid.Dimensions()
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dims.Width))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dims.Height))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dims.Depth))
	_, _ = h.Write(buf)

	for _, cell := range w.grid.cells {
		buf = buf[:0]
		buf = binary.LittleEndian.AppendUint16(buf, uint16(cell.ID))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(cell.Instance))
		_, _ = h.Write(buf)
	}

	for _, f := range vec.Faces {
		for _, id := range w.index.Tags(f) {
			buf = buf[:0]
			buf = append(buf, byte(f))
			buf = binary.LittleEndian.AppendUint16(buf, uint16(id))
			for _, p := range w.index.buckets[f][id] {
				buf = binary.LittleEndian.AppendUint32(buf, uint32(p.Instance))
			}
			_, _ = h.Write(buf)
		}
	}
	return h.Sum64()
}

// Fingerprint возвращает хеш параметров генерации; используется как ключ кеша
func Fingerprint(p Params) uint64 {
	h := xxhash.New()
	buf := make([]byte, 0, 128)

	buf = binary.LittleEndian.AppendUint32(buf, uint32(p.Dimensions.Width))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(p.Dimensions.Height))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(p.Dimensions.Depth))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(p.Terrain.Seed))
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(p.Terrain.Scale))
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(p.Terrain.Magnitude))
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(p.Terrain.Offset))

	for _, id := range p.Resources.sortedIDs() {
		r := p.Resources[id]
		buf = binary.LittleEndian.AppendUint16(buf, uint16(id))
		for _, s := range r.Scale {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(s))
		}
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(r.Scarcity))
	}
	buf = append(buf, 0xFF)
	for _, id := range p.priority() {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(id))
	}

	_, _ = h.Write(buf)
	return h.Sum64()
}
