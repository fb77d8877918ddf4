package noise

import (
	"github.com/aquilax/go-perlin"

	"github.com/annel0/blockworld/internal/rng"
)

// Параметры фрактального шума Перлина
const (
	perlinAlpha   = 2.0 // Сглаживание шума
	perlinBeta    = 2.0 // Частота шума
	perlinOctaves = 3   // Количество октав
)

// Source описывает когерентный шум, который потребляет генератор мира.
// Значения лежат примерно в диапазоне [-1, 1]; реализация обязана быть
// чистой функцией координат.
type Source interface {
	Noise2D(x, y float64) float64
	Noise3D(x, y, z float64) float64
}

// Perlin реализует Source поверх go-perlin.
// После создания состояние только читается, поэтому экземпляр можно
// использовать из нескольких горутин.
type Perlin struct {
	seed  int64
	inner *perlin.Perlin
}

// NewPerlin создаёт генератор шума, засеянный из потока RNG с указанным сидом
func NewPerlin(seed int64) *Perlin {
	return NewPerlinFromRNG(seed, rng.New(seed))
}

// NewPerlinFromRNG создаёт генератор шума, беря сид таблицы перестановок из r
func NewPerlinFromRNG(seed int64, r *rng.RNG) *Perlin {
	return &Perlin{
		seed:  seed,
		inner: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, r.Int63()),
	}
}

// Seed возвращает исходный сид мира
func (p *Perlin) Seed() int64 {
	return p.seed
}

// Noise2D возвращает значение шума для точки на плоскости (примерно от -1 до 1)
func (p *Perlin) Noise2D(x, y float64) float64 {
	return p.inner.Noise2D(x, y)
}

// Noise3D возвращает значение шума для точки в пространстве (примерно от -1 до 1)
func (p *Perlin) Noise3D(x, y, z float64) float64 {
	return p.inner.Noise3D(x, y, z)
}
