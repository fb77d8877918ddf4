package sim

import (
	"context"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/blockworld/internal/metrics"
	"github.com/annel0/blockworld/internal/physics"
	"github.com/annel0/blockworld/internal/storage"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
	"github.com/annel0/blockworld/internal/world/block"
)

const tick = 1.0 / 60

// flatParams - плоский мир без ресурсов: трава на y=height/2, земля ниже
func flatParams(dims world.Dimensions) world.Params {
	return world.Params{
		Dimensions: dims,
		Terrain:    world.TerrainParams{Seed: 1, Scale: 48, Magnitude: 0, Offset: 0.5},
		Resources:  world.ResourceParams{},
	}
}

func newFlatSim(t *testing.T, options ...Option) *Simulation {
	t.Helper()
	opts := DefaultOptions(1)
	opts.Params = flatParams(world.Dimensions{Width: 15, Height: 12, Depth: 15})
	s, err := New(context.Background(), opts, options...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

// land опускает игрока на поверхность
func land(t *testing.T, s *Simulation) physics.Player {
	t.Helper()
	for i := 0; i < 240; i++ {
		_, err := s.Step(physics.Input{}, tick)
		require.NoError(t, err)
	}
	p := s.Player()
	require.True(t, p.OnGround, "Игрок должен стоять на земле")
	return p
}

func TestNew_SpawnAndGenerate(t *testing.T) {
	s := newFlatSim(t)

	assert.False(t, s.Generating())
	assert.Equal(t, mgl64.Vec3{7.5, 14, 7.5}, s.Player().Position)

	w, err := s.World()
	require.NoError(t, err)
	id, _ := w.Block(vec.Vec3{X: 3, Y: 6, Z: 3})
	assert.Equal(t, block.GrassBlockID, id)
	id, _ = w.Block(vec.Vec3{X: 3, Y: 5, Z: 3})
	assert.Equal(t, block.DirtBlockID, id)
}

func TestNew_RejectsInvalidParams(t *testing.T) {
	opts := DefaultOptions(1)
	opts.Params.Dimensions.Width = 0

	_, err := New(context.Background(), opts)
	assert.ErrorIs(t, err, world.ErrInvalidDimensions)
}

func TestStep_LandsOnSurface(t *testing.T) {
	s := newFlatSim(t)
	p := land(t, s)

	feet := p.Feet(physics.DefaultBody())
	assert.GreaterOrEqual(t, feet, 7.0)
	assert.Less(t, feet, 7.01)
}

func TestStep_InvalidDelta(t *testing.T) {
	s := newFlatSim(t)
	_, err := s.Step(physics.Input{}, -1)
	assert.ErrorIs(t, err, ErrRejected)
}

func TestStep_SelectionFollowsLook(t *testing.T) {
	s := newFlatSim(t)
	land(t, s)

	state, err := s.Step(physics.Input{Look: mgl64.Vec3{0, -1, 0}}, tick)
	require.NoError(t, err)
	require.NotNil(t, state.Selection)
	assert.Equal(t, vec.Vec3{X: 7, Y: 6, Z: 7}, state.Selection.Cell)
	assert.Equal(t, vec.FaceTop, state.Selection.Face)
	assert.InDelta(t, 1.9, state.Selection.Distance, 0.02)

	state, err = s.Step(physics.Input{Look: mgl64.Vec3{0, 1, 0}}, tick)
	require.NoError(t, err)
	assert.Nil(t, state.Selection, "Над игроком пусто")

	_, ok, err := s.Select()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPlaceAndBreak(t *testing.T) {
	s := newFlatSim(t)
	land(t, s)
	before, err := s.Digest()
	require.NoError(t, err)

	// Под ногами: ячейка над травой пересекается с телом
	_, err = s.Step(physics.Input{Look: mgl64.Vec3{0, -1, 0}}, tick)
	require.NoError(t, err)
	cell, err := s.PlaceBlock(block.StoneBlockID)
	assert.ErrorIs(t, err, ErrPlacementBlocked)
	assert.Equal(t, vec.Vec3{X: 7, Y: 7, Z: 7}, cell)

	// Вперёд и вниз: ставим камень на траву перед игроком
	_, err = s.Step(physics.Input{Look: mgl64.Vec3{0, -1, -1}}, tick)
	require.NoError(t, err)
	cell, err = s.PlaceBlock(block.StoneBlockID)
	require.NoError(t, err)
	assert.Equal(t, vec.Vec3{X: 7, Y: 7, Z: 5}, cell)

	w, err := s.World()
	require.NoError(t, err)
	id, _ := w.Block(cell)
	assert.Equal(t, block.StoneBlockID, id)

	// Тот же взгляд теперь упирается в новый камень
	broken, id, err := s.BreakBlock()
	require.NoError(t, err)
	assert.Equal(t, vec.Vec3{X: 7, Y: 7, Z: 5}, broken)
	assert.Equal(t, block.StoneBlockID, id)

	after, err := s.Digest()
	require.NoError(t, err)
	assert.Equal(t, before, after, "Добавление и удаление возвращают мир в исходное состояние")

	_, err = s.PlaceBlock(block.EmptyBlockID)
	assert.ErrorIs(t, err, ErrRejected)
}

func TestBreakBlock_NoTarget(t *testing.T) {
	s := newFlatSim(t)
	land(t, s)

	_, err := s.Step(physics.Input{Look: mgl64.Vec3{0, 1, 0}}, tick)
	require.NoError(t, err)

	_, _, err = s.BreakBlock()
	assert.ErrorIs(t, err, ErrNoTarget)
	_, err = s.PlaceBlock(block.StoneBlockID)
	assert.ErrorIs(t, err, ErrNoTarget)
}

func TestDirectMutations(t *testing.T) {
	s := newFlatSim(t)

	require.NoError(t, s.AddBlock(vec.Vec3{X: 0, Y: 7, Z: 0}, block.IronOreBlockID))
	assert.ErrorIs(t, s.AddBlock(vec.Vec3{X: 0, Y: 7, Z: 0}, block.StoneBlockID), ErrRejected)
	assert.ErrorIs(t, s.AddBlock(vec.Vec3{X: -1, Y: 7, Z: 0}, block.StoneBlockID), ErrRejected)

	id, err := s.RemoveBlock(vec.Vec3{X: 0, Y: 7, Z: 0})
	require.NoError(t, err)
	assert.Equal(t, block.IronOreBlockID, id)

	_, err = s.RemoveBlock(vec.Vec3{X: 0, Y: 7, Z: 0})
	assert.ErrorIs(t, err, ErrRejected)
}

func TestStep_FallOutRespawns(t *testing.T) {
	s := newFlatSim(t)
	land(t, s)

	// Шахта до дна под игроком
	for y := 0; y <= 6; y++ {
		_, err := s.RemoveBlock(vec.Vec3{X: 7, Y: y, Z: 7})
		require.NoError(t, err)
	}

	spawn := mgl64.Vec3{7.5, 14, 7.5}
	respawned := false
	lowest := 100.0
	for i := 0; i < 300 && !respawned; i++ {
		state, err := s.Step(physics.Input{}, tick)
		require.NoError(t, err)
		y := state.Player.Position.Y()
		if y < lowest {
			lowest = y
		}
		respawned = state.Player.Position == spawn && lowest < 0
	}

	assert.True(t, respawned, "Игрок, выпавший из мира, должен вернуться в точку появления")
}

func TestRespawn(t *testing.T) {
	s := newFlatSim(t)
	land(t, s)

	p := s.Respawn()
	assert.Equal(t, mgl64.Vec3{7.5, 14, 7.5}, p.Position)
	assert.Equal(t, mgl64.Vec3{}, p.Velocity)
}

func TestReconfigure(t *testing.T) {
	s := newFlatSim(t)

	params := flatParams(world.Dimensions{Width: 9, Height: 10, Depth: 7})
	require.NoError(t, s.Reconfigure(context.Background(), params))

	w, err := s.World()
	require.NoError(t, err)
	assert.Equal(t, params.Dimensions, w.Dimensions())
	assert.Equal(t, params.Dimensions, s.Params().Dimensions)
	assert.Equal(t, mgl64.Vec3{4.5, 12, 3.5}, s.Player().Position, "Игрок переносится в новую точку появления")

	bad := params
	bad.Dimensions.Height = -1
	assert.ErrorIs(t, s.Reconfigure(context.Background(), bad), world.ErrInvalidDimensions)
	assert.Equal(t, params.Dimensions, s.Params().Dimensions, "Ошибочная конфигурация не меняет мир")
}

func TestRegenerate_Deterministic(t *testing.T) {
	opts := DefaultOptions(77)
	opts.Params.Dimensions = world.Dimensions{Width: 12, Height: 10, Depth: 12}

	a, err := New(context.Background(), opts)
	require.NoError(t, err)
	b, err := New(context.Background(), opts)
	require.NoError(t, err)

	da, err := a.Digest()
	require.NoError(t, err)
	db, err := b.Digest()
	require.NoError(t, err)
	assert.Equal(t, da, db)

	require.NoError(t, a.Regenerate(context.Background()))
	again, err := a.Digest()
	require.NoError(t, err)
	assert.Equal(t, da, again)
}

// countingCache - кеш в памяти со счётчиками
type countingCache struct {
	mu     sync.Mutex
	grids  map[uint64]*world.Grid
	hits   int
	stores int
}

func (c *countingCache) Load(fp uint64) (*world.Grid, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.grids[fp]
	if ok {
		c.hits++
		return g.Clone(), true, nil
	}
	return nil, false, nil
}

func (c *countingCache) Store(fp uint64, g *world.Grid) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.grids[fp] = g.Clone()
	c.stores++
	return nil
}

func TestRegenerate_UsesCache(t *testing.T) {
	cache := &countingCache{grids: make(map[uint64]*world.Grid)}
	s := newFlatSim(t, WithCache(cache), WithMetrics(metrics.New("test")))

	fresh, err := s.Digest()
	require.NoError(t, err)
	assert.Equal(t, 1, cache.stores)
	assert.Equal(t, 0, cache.hits)

	require.NoError(t, s.Regenerate(context.Background()))
	cached, err := s.Digest()
	require.NoError(t, err)
	assert.Equal(t, 1, cache.stores)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, fresh, cached, "Мир из кеша совпадает со свежесгенерированным")
}

func TestRegenerate_WithGenerationCache(t *testing.T) {
	cache, err := storage.NewGenerationCache(2)
	require.NoError(t, err)
	defer cache.Close()

	s := newFlatSim(t, WithCache(cache))
	fresh, err := s.Digest()
	require.NoError(t, err)

	require.NoError(t, s.Regenerate(context.Background()))
	cached, err := s.Digest()
	require.NoError(t, err)
	assert.Equal(t, fresh, cached)
	assert.Equal(t, 1, cache.Len())
}

// gateCache блокирует загрузку, пока тест не откроет ворота
type gateCache struct {
	entered chan struct{}
	release chan struct{}
}

func (c *gateCache) Load(uint64) (*world.Grid, bool, error) {
	c.entered <- struct{}{}
	<-c.release
	return nil, false, nil
}

func (c *gateCache) Store(uint64, *world.Grid) error { return nil }

func TestRegenerateAsync_GatesConsumers(t *testing.T) {
	s := newFlatSim(t)
	gate := &gateCache{entered: make(chan struct{}), release: make(chan struct{})}
	s.cache = gate

	params := flatParams(world.Dimensions{Width: 8, Height: 8, Depth: 8})
	done, err := s.RegenerateAsync(context.Background(), params)
	require.NoError(t, err)
	<-gate.entered

	assert.True(t, s.Generating())
	_, err = s.Step(physics.Input{}, tick)
	assert.ErrorIs(t, err, ErrGenerating)
	_, _, err = s.BreakBlock()
	assert.ErrorIs(t, err, ErrGenerating)
	_, err = s.Faces()
	assert.ErrorIs(t, err, ErrGenerating)
	_, err = s.RegenerateAsync(context.Background(), params)
	assert.ErrorIs(t, err, ErrGenerating)
	assert.ErrorIs(t, s.Regenerate(context.Background()), ErrGenerating)

	close(gate.release)
	require.NoError(t, <-done)

	assert.False(t, s.Generating())
	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Greater(t, stats.Total, 0)
	assert.Equal(t, params.Dimensions, s.Params().Dimensions)
}

func TestRegenerateAsync_Cancelled(t *testing.T) {
	s := newFlatSim(t)
	before := s.Params()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done, err := s.RegenerateAsync(ctx, flatParams(world.Dimensions{Width: 8, Height: 8, Depth: 8}))
	require.NoError(t, err)
	assert.ErrorIs(t, <-done, context.Canceled)

	assert.False(t, s.Generating())
	assert.Equal(t, before.Dimensions, s.Params().Dimensions, "Прерванная генерация не заменяет мир")
}

func TestOverlapsBody(t *testing.T) {
	body := physics.DefaultBody()
	p := physics.Player{Position: mgl64.Vec3{5.5, 10 + body.EyeHeight, 5.5}}

	tests := []struct {
		cell vec.Vec3
		want bool
	}{
		{vec.Vec3{X: 5, Y: 10, Z: 5}, true},  // ноги
		{vec.Vec3{X: 5, Y: 11, Z: 5}, true},  // голова
		{vec.Vec3{X: 5, Y: 12, Z: 5}, false}, // над головой
		{vec.Vec3{X: 5, Y: 9, Z: 5}, false},  // под ногами
		{vec.Vec3{X: 6, Y: 10, Z: 5}, false}, // соседняя ячейка
		{vec.Vec3{X: 5, Y: 10, Z: 4}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, overlapsBody(tt.cell, p, body), "%v", tt.cell)
	}

	// Игрок на границе ячеек задевает обе
	p.Position = mgl64.Vec3{6.0, 10 + body.EyeHeight, 5.5}
	assert.True(t, overlapsBody(vec.Vec3{X: 5, Y: 10, Z: 5}, p, body))
	assert.True(t, overlapsBody(vec.Vec3{X: 6, Y: 10, Z: 5}, p, body))
}
