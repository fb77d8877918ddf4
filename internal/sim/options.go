package sim

import (
	"errors"

	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/metrics"
	"github.com/annel0/blockworld/internal/physics"
	"github.com/annel0/blockworld/internal/world"
)

// Ошибки операций симуляции
var (
	ErrGenerating       = errors.New("мир ещё генерируется")
	ErrNoTarget         = errors.New("нет блока в прицеле")
	ErrPlacementBlocked = errors.New("блок пересекается с игроком")
	ErrRejected         = errors.New("операция отклонена")
)

// GridCache - кеш сгенерированных сеток по отпечатку параметров
type GridCache interface {
	Load(fingerprint uint64) (*world.Grid, bool, error)
	Store(fingerprint uint64, grid *world.Grid) error
}

// Options - параметры симуляции
type Options struct {
	Params      world.Params
	Body        physics.Body
	Movement    physics.Movement
	Gravity     float64
	Reach       float64
	SpawnMargin float64 // Высота точки глаз над верхом сетки при появлении
}

// DefaultOptions возвращает параметры по умолчанию для сида
func DefaultOptions(seed int64) Options {
	return Options{
		Params:      world.DefaultParams(seed),
		Body:        physics.DefaultBody(),
		Movement:    physics.DefaultMovement(),
		Gravity:     physics.DefaultGravity,
		Reach:       physics.DefaultReach,
		SpawnMargin: 2,
	}
}

// Option настраивает зависимости симуляции
type Option func(*Simulation)

// WithCache подключает кеш сгенерированных сеток
func WithCache(cache GridCache) Option {
	return func(s *Simulation) {
		s.cache = cache
	}
}

// WithMetrics подключает метрики
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Simulation) {
		s.metrics = m
	}
}

// WithLogger заменяет логгер компонента
func WithLogger(l *logging.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}
