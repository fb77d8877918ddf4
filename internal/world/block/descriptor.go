package block

import (
	"fmt"

	"github.com/annel0/blockworld/internal/vec"
)

// Descriptor - статическое описание блока для рендера и генерации ресурсов.
// Принадлежит каталогу, а не ячейкам сетки.
type Descriptor struct {
	ID        BlockID
	Name      string
	Color     uint32 // RGB, 0xRRGGBB
	Texture   string // Текстура по умолчанию (все грани)
	NormalMap string // Карта нормалей по умолчанию

	// Переопределения для отдельных граней (трава: верх и бока различаются)
	TopTexture      string
	TopNormalMap    string
	SideTexture     string
	SideNormalMap   string
	BottomTexture   string
	BottomNormalMap string

	// Scale - делители координат по осям X, Y, Z для шума размещения ресурса
	Scale [3]float64
	// Scarcity - минимальное значение шума, при котором ресурс размещается
	Scarcity float64
}

// IsResource сообщает, размещается ли блок проходом ресурсов
func (d Descriptor) IsResource() bool {
	return d.Scarcity > 0 && d.Scale[0] > 0 && d.Scale[1] > 0 && d.Scale[2] > 0
}

// ColorHex возвращает цвет в виде строки #rrggbb
func (d Descriptor) ColorHex() string {
	return fmt.Sprintf("#%06x", d.Color&0xFFFFFF)
}

// TextureFor возвращает текстуру для конкретной грани
func (d Descriptor) TextureFor(face vec.Face) string {
	switch {
	case face == vec.FaceTop && d.TopTexture != "":
		return d.TopTexture
	case face == vec.FaceBottom && d.BottomTexture != "":
		return d.BottomTexture
	case face != vec.FaceTop && face != vec.FaceBottom && d.SideTexture != "":
		return d.SideTexture
	}
	return d.Texture
}

// NormalMapFor возвращает карту нормалей для конкретной грани
func (d Descriptor) NormalMapFor(face vec.Face) string {
	switch {
	case face == vec.FaceTop && d.TopNormalMap != "":
		return d.TopNormalMap
	case face == vec.FaceBottom && d.BottomNormalMap != "":
		return d.BottomNormalMap
	case face != vec.FaceTop && face != vec.FaceBottom && d.SideNormalMap != "":
		return d.SideNormalMap
	}
	return d.NormalMap
}
