package world

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/annel0/blockworld/internal/world/block"
)

// Ошибки конфигурации генерации
var (
	ErrInvalidDimensions = errors.New("недопустимые размеры мира")
	ErrInvalidTerrain    = errors.New("недопустимые параметры ландшафта")
	ErrInvalidResource   = errors.New("недопустимые параметры ресурса")
)

// Предельные размеры мира по осям
const (
	MaxHorizontal = 256 // Ширина и глубина
	MaxHeight     = 128
)

// Dimensions задаёт размеры сетки в блоках
type Dimensions struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
	Depth  int `json:"depth" yaml:"depth"`
}

// Volume возвращает количество ячеек
func (d Dimensions) Volume() int {
	return d.Width * d.Height * d.Depth
}

// Validate отклоняет нулевые, отрицательные и слишком большие размеры до начала генерации
func (d Dimensions) Validate() error {
	if d.Width <= 0 || d.Height <= 0 || d.Depth <= 0 {
		return fmt.Errorf("%w: %dx%dx%d", ErrInvalidDimensions, d.Width, d.Height, d.Depth)
	}
	if d.Width > MaxHorizontal || d.Depth > MaxHorizontal || d.Height > MaxHeight {
		return fmt.Errorf("%w: %dx%dx%d больше предела %dx%dx%d", ErrInvalidDimensions,
			d.Width, d.Height, d.Depth, MaxHorizontal, MaxHeight, MaxHorizontal)
	}
	return nil
}

// TerrainParams полностью определяет форму ландшафта при заданных размерах
type TerrainParams struct {
	Seed      int64   `json:"seed" yaml:"seed"`
	Scale     float64 `json:"scale" yaml:"scale"`         // Делитель частоты шума
	Magnitude float64 `json:"magnitude" yaml:"magnitude"` // Амплитуда перепада высот
	Offset    float64 `json:"offset" yaml:"offset"`       // Базовая доля высоты
}

// Validate проверяет параметры ландшафта
func (t TerrainParams) Validate() error {
	if !(t.Scale > 0) || math.IsInf(t.Scale, 0) {
		return fmt.Errorf("%w: scale должен быть > 0, получено %v", ErrInvalidTerrain, t.Scale)
	}
	if math.IsNaN(t.Magnitude) || math.IsInf(t.Magnitude, 0) || math.IsNaN(t.Offset) || math.IsInf(t.Offset, 0) {
		return fmt.Errorf("%w: magnitude/offset должны быть конечными", ErrInvalidTerrain)
	}
	return nil
}

// DefaultTerrain возвращает параметры ландшафта по умолчанию
func DefaultTerrain(seed int64) TerrainParams {
	return TerrainParams{
		Seed:      seed,
		Scale:     48,
		Magnitude: 0.5,
		Offset:    0.5,
	}
}

// Resource - параметры размещения одного ресурса
type Resource struct {
	Scale    [3]float64 `json:"scale" yaml:"scale"`       // Делители по осям X, Y, Z
	Scarcity float64    `json:"scarcity" yaml:"scarcity"` // Порог шума в [0, 1]
}

// Enabled сообщает, участвует ли ресурс в генерации.
// Ресурс с нулевым порогом или нулевым масштабом пропускается целиком.
func (r Resource) Enabled() bool {
	return r.Scarcity > 0 && r.Scale[0] > 0 && r.Scale[1] > 0 && r.Scale[2] > 0
}

// ResourceParams сопоставляет тег блока с параметрами ресурса.
// Изменяется на этапе конфигурации, во время генерации только читается.
type ResourceParams map[block.BlockID]Resource

// DefaultResources собирает параметры ресурсов из каталога блоков
func DefaultResources() ResourceParams {
	params := make(ResourceParams)
	for _, desc := range block.All() {
		if desc.IsResource() {
			params[desc.ID] = Resource{Scale: desc.Scale, Scarcity: desc.Scarcity}
		}
	}
	return params
}

// Clone возвращает независимую копию
func (rp ResourceParams) Clone() ResourceParams {
	out := make(ResourceParams, len(rp))
	for id, r := range rp {
		out[id] = r
	}
	return out
}

// Validate проверяет, что все теги известны, а пороги лежат в [0, 1]
func (rp ResourceParams) Validate() error {
	for id, r := range rp {
		if !block.IsValidBlockID(id) {
			return fmt.Errorf("%w: неизвестный блок %d", ErrInvalidResource, id)
		}
		if r.Scarcity < 0 || r.Scarcity > 1 || math.IsNaN(r.Scarcity) {
			return fmt.Errorf("%w: scarcity %v для %s вне [0, 1]", ErrInvalidResource, r.Scarcity, id)
		}
		for axis, s := range r.Scale {
			if s < 0 || math.IsNaN(s) || math.IsInf(s, 0) {
				return fmt.Errorf("%w: scale[%d]=%v для %s", ErrInvalidResource, axis, s, id)
			}
		}
	}
	return nil
}

// sortedIDs возвращает теги в порядке возрастания
func (rp ResourceParams) sortedIDs() []block.BlockID {
	ids := make([]block.BlockID, 0, len(rp))
	for id := range rp {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Params - полный набор входных данных генерации.
// Генерация - чистая функция от Params.
type Params struct {
	Dimensions Dimensions     `json:"dimensions"`
	Terrain    TerrainParams  `json:"terrain"`
	Resources  ResourceParams `json:"resources"`
	// Priority - порядок проверки ресурсов; пустой означает block.ResourcePriority
	Priority []block.BlockID `json:"priority"`
}

// DefaultParams возвращает параметры генерации по умолчанию
func DefaultParams(seed int64) Params {
	return Params{
		Dimensions: Dimensions{Width: 64, Height: 32, Depth: 64},
		Terrain:    DefaultTerrain(seed),
		Resources:  DefaultResources(),
		Priority:   append([]block.BlockID(nil), block.ResourcePriority...),
	}
}

// Validate проверяет все параметры до начала генерации
func (p Params) Validate() error {
	if err := p.Dimensions.Validate(); err != nil {
		return err
	}
	if err := p.Terrain.Validate(); err != nil {
		return err
	}
	if err := p.Resources.Validate(); err != nil {
		return err
	}

	// Ресурс вне порядка приоритета никогда не был бы размещён
	order := p.priority()
	for _, id := range p.Resources.sortedIDs() {
		if !slices.Contains(order, id) {
			return fmt.Errorf("%w: %s не входит в порядок приоритета %v", ErrInvalidResource, id, order)
		}
	}
	return nil
}

// priority возвращает итоговый порядок проверки ресурсов
func (p Params) priority() []block.BlockID {
	if len(p.Priority) > 0 {
		return p.Priority
	}
	return block.ResourcePriority
}

// Clone возвращает независимую копию параметров
func (p Params) Clone() Params {
	out := p
	out.Resources = p.Resources.Clone()
	out.Priority = append([]block.BlockID(nil), p.Priority...)
	return out
}
