package world

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
)

// Placement - одна видимая грань: мировая точка привязки для рендера
type Placement struct {
	Cell     vec.Vec3   `json:"cell"`
	Position mgl64.Vec3 `json:"position"` // Центр ячейки
	Instance InstanceID `json:"instance"`
}

// FaceIndex хранит для каждой из шести граней упорядоченные по ячейкам
// списки размещений, сгруппированные по тегу блока.
// Порядок внутри списка - порядок линейного индекса ячейки, поэтому
// инкрементально поддерживаемый индекс совпадает с полной перестройкой.
// Поиск записи идёт по целочисленному ключу ячейки, без сравнения float.
type FaceIndex struct {
	buckets [vec.FaceCount]map[block.BlockID][]Placement
}

// NewFaceIndex создаёт пустой индекс
func NewFaceIndex() *FaceIndex {
	idx := &FaceIndex{}
	for i := range idx.buckets {
		idx.buckets[i] = make(map[block.BlockID][]Placement)
	}
	return idx
}

// search возвращает позицию записи с данным ключом или позицию вставки
func search(list []Placement, key InstanceID) (int, bool) {
	i := sort.Search(len(list), func(i int) bool { return list[i].Instance >= key })
	return i, i < len(list) && list[i].Instance == key
}

// insert добавляет размещение; повторная вставка той же ячейки ничего не меняет
func (fi *FaceIndex) insert(face vec.Face, id block.BlockID, p Placement) bool {
	list := fi.buckets[face][id]
	i, found := search(list, p.Instance)
	if found {
		return false
	}
	list = append(list, Placement{})
	copy(list[i+1:], list[i:])
	list[i] = p
	fi.buckets[face][id] = list
	return true
}

// remove удаляет размещение ячейки с указанным ключом
func (fi *FaceIndex) remove(face vec.Face, id block.BlockID, key InstanceID) bool {
	list := fi.buckets[face][id]
	i, found := search(list, key)
	if !found {
		return false
	}
	list = append(list[:i], list[i+1:]...)
	if len(list) == 0 {
		delete(fi.buckets[face], id)
	} else {
		fi.buckets[face][id] = list
	}
	return true
}

// Has сообщает, есть ли в индексе размещение с данным ключом
func (fi *FaceIndex) Has(face vec.Face, id block.BlockID, key InstanceID) bool {
	_, found := search(fi.buckets[face][id], key)
	return found
}

// Placements возвращает копию размещений грани для тега блока
func (fi *FaceIndex) Placements(face vec.Face, id block.BlockID) []Placement {
	list := fi.buckets[face][id]
	out := make([]Placement, len(list))
	copy(out, list)
	return out
}

// Tags возвращает теги блоков, у которых есть видимые грани данного направления
func (fi *FaceIndex) Tags(face vec.Face) []block.BlockID {
	tags := make([]block.BlockID, 0, len(fi.buckets[face]))
	for id := range fi.buckets[face] {
		tags = append(tags, id)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// FaceCount возвращает количество видимых граней данного направления
func (fi *FaceIndex) FaceCount(face vec.Face) int {
	n := 0
	for _, list := range fi.buckets[face] {
		n += len(list)
	}
	return n
}

// Len возвращает общее количество размещений
func (fi *FaceIndex) Len() int {
	n := 0
	for _, f := range vec.Faces {
		n += fi.FaceCount(f)
	}
	return n
}

// Clone возвращает глубокую копию индекса
func (fi *FaceIndex) Clone() *FaceIndex {
	out := NewFaceIndex()
	for f := range fi.buckets {
		for id, list := range fi.buckets[f] {
			cp := make([]Placement, len(list))
			copy(cp, list)
			out.buckets[f][id] = cp
		}
	}
	return out
}

// Equal сравнивает содержимое двух индексов, включая порядок
func (fi *FaceIndex) Equal(other *FaceIndex) bool {
	for f := range fi.buckets {
		if len(fi.buckets[f]) != len(other.buckets[f]) {
			return false
		}
		for id, list := range fi.buckets[f] {
			otherList, ok := other.buckets[f][id]
			if !ok || len(list) != len(otherList) {
				return false
			}
			for i := range list {
				if list[i] != otherList[i] {
					return false
				}
			}
		}
	}
	return true
}

// Stats - сводка индекса для внешних потребителей
type Stats struct {
	Faces   map[string]int `json:"faces"`
	Total   int            `json:"total"`
	Visible int            `json:"visible_blocks"`
}
