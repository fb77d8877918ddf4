package world

import (
	"context"
	"math"

	"github.com/annel0/blockworld/internal/noise"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world/block"
)

// WorldGenerator заполняет сетку в два прохода: ландшафт по карте высот,
// затем размещение ресурсов внутри земли
type WorldGenerator struct {
	params Params
	noise  noise.Source
}

// NewWorldGenerator создаёт генератор с шумом Перлина, засеянным сидом ландшафта
func NewWorldGenerator(params Params) (*WorldGenerator, error) {
	return NewWorldGeneratorWithNoise(params, noise.NewPerlin(params.Terrain.Seed))
}

// NewWorldGeneratorWithNoise создаёт генератор с внешним источником шума
func NewWorldGeneratorWithNoise(params Params, src noise.Source) (*WorldGenerator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &WorldGenerator{
		params: params.Clone(),
		noise:  src,
	}, nil
}

// Params возвращает копию параметров генератора
func (wg *WorldGenerator) Params() Params {
	return wg.params.Clone()
}

// SurfaceHeight возвращает высоту поверхности (уровень травы) для столбца
func (wg *WorldGenerator) SurfaceHeight(col vec.Vec2) int {
	t := wg.params.Terrain
	height := float64(wg.params.Dimensions.Height)

	value := wg.noise.Noise2D(float64(col.X)/t.Scale, float64(col.Y)/t.Scale)
	scaled := t.Offset + t.Magnitude*value

	surface := math.Floor(clamp(height*scaled, 0, height-1))
	if math.IsNaN(surface) {
		return 0
	}
	return int(surface)
}

// Generate строит новую сетку. Контекст проверяется между столбцами,
// поэтому генерацию можно прервать; частично заполненная сетка не возвращается.
func (wg *WorldGenerator) Generate(ctx context.Context) (*Grid, error) {
	grid, err := NewGrid(wg.params.Dimensions)
	if err != nil {
		return nil, err
	}

	if err := wg.generateTerrain(ctx, grid); err != nil {
		return nil, err
	}
	if err := wg.generateResources(ctx, grid); err != nil {
		return nil, err
	}
	return grid, nil
}

// generateTerrain - проход ландшафта: земля ниже поверхности, трава на ней, пусто выше
func (wg *WorldGenerator) generateTerrain(ctx context.Context, grid *Grid) error {
	dims := wg.params.Dimensions
	for x := 0; x < dims.Width; x++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for z := 0; z < dims.Depth; z++ {
			col := vec.Vec2{X: x, Y: z}
			surface := wg.SurfaceHeight(col)

			for y := 0; y < dims.Height; y++ {
				var id block.BlockID
				switch {
				case y < surface:
					id = block.DirtBlockID
				case y == surface:
					id = block.GrassBlockID
				default:
					id = block.EmptyBlockID
				}
				grid.SetBlock(col.Lift(y), id)
			}
		}
	}
	return nil
}

// generateResources - проход ресурсов: для каждой внутренней ячейки земли
// ресурсы проверяются в порядке приоритета, первый подошедший занимает ячейку
func (wg *WorldGenerator) generateResources(ctx context.Context, grid *Grid) error {
	order := make([]block.BlockID, 0, len(wg.params.priority()))
	for _, id := range wg.params.priority() {
		if r, ok := wg.params.Resources[id]; ok && r.Enabled() {
			order = append(order, id)
		}
	}
	if len(order) == 0 {
		return nil
	}

	dims := wg.params.Dimensions
	for x := 0; x < dims.Width; x++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for y := 0; y < dims.Height; y++ {
			for z := 0; z < dims.Depth; z++ {
				pos := vec.Vec3{X: x, Y: y, Z: z}
				id, _ := grid.Block(pos)
				if id == block.EmptyBlockID || id == block.GrassBlockID {
					continue
				}
				if placed, ok := wg.resourceAt(pos, order); ok {
					grid.SetBlock(pos, placed)
				}
			}
		}
	}
	return nil
}

// resourceAt возвращает первый ресурс из order, чей шум достигает порога
func (wg *WorldGenerator) resourceAt(pos vec.Vec3, order []block.BlockID) (block.BlockID, bool) {
	for _, id := range order {
		r := wg.params.Resources[id]
		value := wg.noise.Noise3D(
			float64(pos.X)/r.Scale[0],
			float64(pos.Y)/r.Scale[1],
			float64(pos.Z)/r.Scale[2],
		)
		if value >= r.Scarcity {
			return id, true
		}
	}
	return block.EmptyBlockID, false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
