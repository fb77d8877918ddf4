package block

import "sort"

var registry = make(map[BlockID]Descriptor)

// Register добавляет описание блока в каталог.
// Вызывается только из init: во время работы каталог только читается.
func Register(id BlockID, desc Descriptor) {
	if id == EmptyBlockID {
		// Пустой блок не имеет описания и никогда не даёт геометрии
		return
	}
	desc.ID = id
	registry[id] = desc
}

// Get возвращает описание для указанного ID
func Get(id BlockID) (Descriptor, bool) {
	desc, exists := registry[id]
	return desc, exists
}

// IsValidBlockID проверяет, является ли ID допустимым непустым блоком
func IsValidBlockID(id BlockID) bool {
	_, exists := registry[id]
	return exists
}

// All возвращает все описания, упорядоченные по ID
func All() []Descriptor {
	out := make([]Descriptor, 0, len(registry))
	for _, desc := range registry {
		out = append(out, desc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByName ищет блок по имени
func ByName(name string) (BlockID, bool) {
	if name == "empty" {
		return EmptyBlockID, true
	}
	for id, desc := range registry {
		if desc.Name == name {
			return id, true
		}
	}
	return EmptyBlockID, false
}

// BlockID представляет тег типа блока
type BlockID uint16

// Константы ID блоков
const (
	EmptyBlockID   BlockID = iota // 0
	GrassBlockID                  // 1
	DirtBlockID                   // 2
	StoneBlockID                  // 3
	CoalOreBlockID                // 4
	IronOreBlockID                // 5
)

// String возвращает имя блока
func (id BlockID) String() string {
	if id == EmptyBlockID {
		return "empty"
	}
	if desc, ok := registry[id]; ok {
		return desc.Name
	}
	return "unknown"
}
