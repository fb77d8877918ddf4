package sim

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/metrics"
	"github.com/annel0/blockworld/internal/observability"
	"github.com/annel0/blockworld/internal/physics"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
	"github.com/annel0/blockworld/internal/world/block"
)

// Simulation - явно принадлежащий вызывающему контекст одного мира:
// сетка с индексом граней, игрок, физика и параметры генерации.
//
// Генерация идёт вне блокировки и устанавливает готовый мир целиком,
// поэтому частично сгенерированная сетка никогда не видна. Пока флаг
// generating поднят, операции чтения мира возвращают ErrGenerating.
type Simulation struct {
	id uuid.UUID

	mu      sync.Mutex // Защищает всё ниже, кроме generating
	opts    Options
	world   *world.World
	player  *physics.Player
	phys    *physics.Physics
	started time.Time

	generating atomic.Bool
	background sync.WaitGroup
	cancel     context.CancelFunc

	cache   GridCache
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// State - снимок игрока и цели после шага
type State struct {
	Player    physics.Player `json:"player"`
	Selection *physics.Hit   `json:"selection,omitempty"`
}

// New создаёт симуляцию и синхронно генерирует первый мир
func New(ctx context.Context, opts Options, options ...Option) (*Simulation, error) {
	opts.Params = opts.Params.Clone()
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}

	s := &Simulation{
		id:     uuid.New(),
		opts:   opts,
		logger: logging.GetSimLogger(),
	}
	for _, o := range options {
		o(s)
	}
	s.phys = physics.NewPhysics(nil, opts.Body, opts.Gravity)
	s.player = physics.NewPlayer(s.spawnPoint(opts.Params.Dimensions))

	if err := s.Regenerate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ID возвращает идентификатор экземпляра симуляции
func (s *Simulation) ID() uuid.UUID {
	return s.id
}

// Generating сообщает, идёт ли генерация мира
func (s *Simulation) Generating() bool {
	return s.generating.Load()
}

// Params возвращает копию текущих параметров генерации
func (s *Simulation) Params() world.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts.Params.Clone()
}

// Options возвращает копию параметров симуляции
func (s *Simulation) Options() Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	opts := s.opts
	opts.Params = s.opts.Params.Clone()
	return opts
}

// Regenerate синхронно пересоздаёт мир с текущими параметрами
func (s *Simulation) Regenerate(ctx context.Context) error {
	return s.Reconfigure(ctx, s.Params())
}

// Reconfigure проверяет новые параметры и синхронно пересоздаёт мир с нуля
func (s *Simulation) Reconfigure(ctx context.Context, params world.Params) error {
	params = params.Clone()
	if err := params.Validate(); err != nil {
		return err
	}
	if !s.generating.CompareAndSwap(false, true) {
		return ErrGenerating
	}
	defer s.generating.Store(false)

	return s.regenerate(ctx, params)
}

// RegenerateAsync запускает пересоздание мира в фоне. Перед генерацией
// горутина один раз уступает планировщик. Канал получает итог и закрывается.
func (s *Simulation) RegenerateAsync(ctx context.Context, params world.Params) (<-chan error, error) {
	params = params.Clone()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if !s.generating.CompareAndSwap(false, true) {
		return nil, ErrGenerating
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	done := make(chan error, 1)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		defer close(done)
		defer cancel()
		defer s.generating.Store(false)

		runtime.Gosched()
		err := s.regenerate(ctx, params)
		if err != nil {
			s.logger.Error("❌ Фоновая генерация не удалась: %v", err)
		}
		done <- err
	}()
	return done, nil
}

// regenerate строит мир и устанавливает его. Вызывается под флагом generating.
func (s *Simulation) regenerate(ctx context.Context, params world.Params) error {
	fp := world.Fingerprint(params)
	ctx, span := observability.StartSpan(ctx, "world.generate",
		attribute.Int64("seed", params.Terrain.Seed),
		attribute.Int("width", params.Dimensions.Width),
		attribute.Int("height", params.Dimensions.Height),
		attribute.Int("depth", params.Dimensions.Depth),
		attribute.String("fingerprint", fmt.Sprintf("%016x", fp)),
	)
	defer span.End()

	start := time.Now()
	grid, source, err := s.buildGrid(ctx, params, fp)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	w := world.NewWorld(grid)
	elapsed := time.Since(start)
	stats := w.Stats()

	s.install(w, params)

	span.SetAttributes(
		attribute.String("source", source),
		attribute.Int("faces", stats.Total),
	)
	s.metrics.ObserveGeneration(source, elapsed)
	s.metrics.SetVisibleFaces(stats.Faces, stats.Visible)
	s.logger.Info("🌍 Мир %dx%dx%d (seed=%d) готов за %v: %d видимых граней, источник=%s",
		params.Dimensions.Width, params.Dimensions.Height, params.Dimensions.Depth,
		params.Terrain.Seed, elapsed, stats.Total, source)
	return nil
}

// buildGrid берёт сетку из кеша или генерирует её заново
func (s *Simulation) buildGrid(ctx context.Context, params world.Params, fp uint64) (*world.Grid, string, error) {
	if s.cache != nil {
		grid, ok, err := s.cache.Load(fp)
		switch {
		case err != nil:
			s.logger.Warn("⚠️ Кеш генерации недоступен: %v", err)
		case ok:
			s.logger.Debug("Кеш генерации: попадание %016x", fp)
			return grid, "cache", nil
		default:
			s.logger.Debug("Кеш генерации: промах %016x", fp)
		}
	}

	gen, err := world.NewWorldGenerator(params)
	if err != nil {
		return nil, "", err
	}
	grid, err := gen.Generate(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("генерация мира: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Store(fp, grid); err != nil {
			s.logger.Warn("⚠️ Не удалось сохранить мир в кеш: %v", err)
		}
	}
	return grid, "fresh", nil
}

// install атомарно заменяет мир и возвращает игрока в точку появления
func (s *Simulation) install(w *world.World, params world.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.world = w
	s.opts.Params = params
	s.phys.SetBlocks(w)
	s.player.Reset(s.spawnPoint(params.Dimensions))
	s.started = time.Now()
}

// spawnPoint возвращает точку глаз игрока при появлении: центр сетки по X/Z
// и верх сетки плюс запас по Y
func (s *Simulation) spawnPoint(dims world.Dimensions) mgl64.Vec3 {
	return mgl64.Vec3{
		float64(dims.Width) / 2,
		float64(dims.Height) + s.opts.SpawnMargin,
		float64(dims.Depth) / 2,
	}
}

// ready возвращает мир, если генерация не идёт. Вызывается под s.mu.
func (s *Simulation) ready() (*world.World, error) {
	if s.generating.Load() || s.world == nil {
		return nil, ErrGenerating
	}
	return s.world, nil
}

// World возвращает текущий мир
func (s *Simulation) World() (*world.World, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready()
}

// Player возвращает копию состояния игрока
func (s *Simulation) Player() physics.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.player
}

// SetFlying включает или выключает режим полёта
func (s *Simulation) SetFlying(flying bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.Flying = flying
	if !flying {
		s.player.Velocity[1] = 0
	}
}

// Step продвигает игрока на delta секунд и заново выбирает блок в прицеле.
// Игрок, упавший ниже -height, возвращается в точку появления.
func (s *Simulation) Step(in physics.Input, delta float64) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.ready()
	if err != nil {
		return State{}, err
	}
	if math.IsNaN(delta) || delta < 0 {
		return State{}, fmt.Errorf("%w: недопустимый шаг %v", ErrRejected, delta)
	}

	s.player.Step(s.phys, s.opts.Movement, in, delta)
	s.metrics.IncStep()

	if s.player.Position.Y() < -float64(w.Dimensions().Height) {
		s.logger.Debug("Игрок выпал из мира на y=%.2f, возрождение", s.player.Position.Y())
		s.player.Reset(s.spawnPoint(w.Dimensions()))
		s.metrics.IncRespawn("fell")
	}

	state := State{Player: *s.player}
	if hit, ok := s.target(w); ok {
		state.Selection = &hit
	}
	return state, nil
}

// target выбирает блок лучом из глаз игрока. Вызывается под s.mu.
func (s *Simulation) target(w *world.World) (physics.Hit, bool) {
	hit, ok := physics.Raycast(w, s.player.Position, s.player.LookDirection(), s.opts.Reach)
	s.metrics.ObserveRaycast(ok)
	return hit, ok
}

// Select возвращает блок в прицеле для текущего положения игрока
func (s *Simulation) Select() (physics.Hit, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.ready()
	if err != nil {
		return physics.Hit{}, false, err
	}
	hit, ok := s.target(w)
	return hit, ok, nil
}

// Respawn возвращает игрока в точку появления
func (s *Simulation) Respawn() physics.Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.player.Reset(s.spawnPoint(s.opts.Params.Dimensions))
	s.metrics.IncRespawn("manual")
	return *s.player
}

// BreakBlock удаляет блок в прицеле
func (s *Simulation) BreakBlock() (vec.Vec3, block.BlockID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.ready()
	if err != nil {
		return vec.Vec3{}, block.EmptyBlockID, err
	}
	hit, ok := s.target(w)
	if !ok {
		return vec.Vec3{}, block.EmptyBlockID, ErrNoTarget
	}

	id, removed := w.RemoveBlock(hit.Cell)
	s.afterMutation(w, "remove", removed)
	if !removed {
		return hit.Cell, block.EmptyBlockID, ErrRejected
	}
	return hit.Cell, id, nil
}

// PlaceBlock ставит блок в ячейку, прилегающую к грани в прицеле.
// Ячейка, пересекающаяся с телом игрока, отклоняется.
func (s *Simulation) PlaceBlock(id block.BlockID) (vec.Vec3, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.ready()
	if err != nil {
		return vec.Vec3{}, err
	}
	if id == block.EmptyBlockID || !block.IsValidBlockID(id) {
		return vec.Vec3{}, fmt.Errorf("%w: неизвестный блок %d", ErrRejected, id)
	}

	hit, ok := s.target(w)
	if !ok {
		return vec.Vec3{}, ErrNoTarget
	}
	cell := hit.Adjacent()
	if overlapsBody(cell, *s.player, s.opts.Body) {
		s.logger.Debug("Установка %s в %v отклонена: ячейка занята игроком", id, cell)
		return cell, ErrPlacementBlocked
	}

	added := w.AddBlock(cell, id)
	s.afterMutation(w, "add", added)
	if !added {
		return cell, ErrRejected
	}
	return cell, nil
}

// AddBlock ставит блок в произвольную ячейку без проверки прицела
func (s *Simulation) AddBlock(pos vec.Vec3, id block.BlockID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.ready()
	if err != nil {
		return err
	}
	if overlapsBody(pos, *s.player, s.opts.Body) {
		return ErrPlacementBlocked
	}
	added := w.AddBlock(pos, id)
	s.afterMutation(w, "add", added)
	if !added {
		return ErrRejected
	}
	return nil
}

// RemoveBlock удаляет блок из произвольной ячейки
func (s *Simulation) RemoveBlock(pos vec.Vec3) (block.BlockID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.ready()
	if err != nil {
		return block.EmptyBlockID, err
	}
	id, removed := w.RemoveBlock(pos)
	s.afterMutation(w, "remove", removed)
	if !removed {
		return block.EmptyBlockID, ErrRejected
	}
	return id, nil
}

func (s *Simulation) afterMutation(w *world.World, op string, ok bool) {
	s.metrics.ObserveMutation(op, ok)
	if !ok {
		s.logger.Debug("Операция %s отклонена", op)
		return
	}
	stats := w.Stats()
	s.metrics.SetVisibleFaces(stats.Faces, stats.Visible)
}

// overlapsBody проверяет, пересекает ли ячейка тело игрока:
// по горизонтали центр ячейки ближе 1 по обеим осям, по вертикали
// блок [y, y+1) пересекает [ступни, ступни+рост)
func overlapsBody(cell vec.Vec3, p physics.Player, body physics.Body) bool {
	center := cell.Center()
	if math.Abs(center.X()-p.Position.X()) >= 1 || math.Abs(center.Z()-p.Position.Z()) >= 1 {
		return false
	}
	dy := float64(cell.Y) - p.Feet(body)
	return dy > -1 && dy < body.Height
}

// Faces возвращает глубокую копию индекса граней
func (s *Simulation) Faces() (*world.FaceIndex, error) {
	w, err := s.World()
	if err != nil {
		return nil, err
	}
	return w.Faces(), nil
}

// Stats возвращает сводку по видимым граням
func (s *Simulation) Stats() (world.Stats, error) {
	w, err := s.World()
	if err != nil {
		return world.Stats{}, err
	}
	return w.Stats(), nil
}

// Digest возвращает хеш содержимого мира
func (s *Simulation) Digest() (uint64, error) {
	w, err := s.World()
	if err != nil {
		return 0, err
	}
	return w.Digest(), nil
}

// Uptime возвращает время с установки текущего мира
func (s *Simulation) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.started)
}

// Close отменяет фоновую генерацию и дожидается её завершения
func (s *Simulation) Close() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.background.Wait()
}
