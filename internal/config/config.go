package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/physics"
	"github.com/annel0/blockworld/internal/world"
	"github.com/annel0/blockworld/internal/world/block"
)

// ErrInvalidConfig - общая ошибка проверки конфигурации
var ErrInvalidConfig = errors.New("недопустимая конфигурация")

// Config корневая структура конфигурации приложения
type Config struct {
	World     WorldConfig               `yaml:"world"`
	Terrain   TerrainConfig             `yaml:"terrain"`
	Resources map[string]ResourceConfig `yaml:"resources"`
	Physics   PhysicsConfig             `yaml:"physics"`
	Server    ServerConfig              `yaml:"server"`
	Telemetry TelemetryConfig           `yaml:"telemetry"`
	Cache     CacheConfig               `yaml:"cache"`
	Log       LogConfig                 `yaml:"log"`
}

type WorldConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Depth  int `yaml:"depth"`
}

type TerrainConfig struct {
	Seed      int64   `yaml:"seed"`
	Scale     float64 `yaml:"scale"`
	Magnitude float64 `yaml:"magnitude"`
	Offset    float64 `yaml:"offset"`
}

type ResourceConfig struct {
	ScaleX   float64 `yaml:"scale_x"`
	ScaleY   float64 `yaml:"scale_y"`
	ScaleZ   float64 `yaml:"scale_z"`
	Scarcity float64 `yaml:"scarcity"`
}

type PhysicsConfig struct {
	Gravity     float64 `yaml:"gravity"`
	Radius      float64 `yaml:"radius"`
	Height      float64 `yaml:"height"`
	EyeHeight   float64 `yaml:"eye_height"`
	SpawnMargin float64 `yaml:"spawn_margin"`
	MoveSpeed   float64 `yaml:"move_speed"`
	Damping     float64 `yaml:"damping"`
	JumpSpeed   float64 `yaml:"jump_speed"`
	Reach       float64 `yaml:"reach"`
}

type ServerConfig struct {
	RESTPort int `yaml:"rest_port"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"`
}

type CacheConfig struct {
	Enabled    bool `yaml:"enabled"`
	MaxEntries int  `yaml:"max_entries"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "VOXEL_REST_PORT", 8090)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	params := world.DefaultParams(1)
	body := physics.DefaultBody()
	move := physics.DefaultMovement()

	resources := make(map[string]ResourceConfig, len(params.Resources))
	for id, r := range params.Resources {
		resources[id.String()] = ResourceConfig{
			ScaleX:   r.Scale[0],
			ScaleY:   r.Scale[1],
			ScaleZ:   r.Scale[2],
			Scarcity: r.Scarcity,
		}
	}

	return &Config{
		World: WorldConfig{
			Width:  params.Dimensions.Width,
			Height: params.Dimensions.Height,
			Depth:  params.Dimensions.Depth,
		},
		Terrain: TerrainConfig{
			Seed:      params.Terrain.Seed,
			Scale:     params.Terrain.Scale,
			Magnitude: params.Terrain.Magnitude,
			Offset:    params.Terrain.Offset,
		},
		Resources: resources,
		Physics: PhysicsConfig{
			Gravity:     physics.DefaultGravity,
			Radius:      body.Radius,
			Height:      body.Height,
			EyeHeight:   body.EyeHeight,
			SpawnMargin: 2,
			MoveSpeed:   move.MoveSpeed,
			Damping:     move.Damping,
			JumpSpeed:   move.JumpSpeed,
			Reach:       physics.DefaultReach,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "voxelsim",
		},
		Cache: CacheConfig{
			Enabled:    true,
			MaxEntries: 8,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV VOXEL_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return cfg, nil // конфиг не задан - используем дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет конфигурацию целиком
func (c *Config) Validate() error {
	params, err := c.Params()
	if err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	p := c.Physics
	if !(p.Reach >= 0 && p.Reach <= physics.MaxReach) {
		return fmt.Errorf("%w: reach=%v вне [0, %v]", ErrInvalidConfig, p.Reach, physics.MaxReach)
	}
	if p.Radius <= 0 || p.Height <= 0 || p.EyeHeight <= 0 || p.EyeHeight > p.Height {
		return fmt.Errorf("%w: размеры игрока radius=%v height=%v eye_height=%v", ErrInvalidConfig, p.Radius, p.Height, p.EyeHeight)
	}
	if p.Gravity < 0 || p.MoveSpeed < 0 || p.Damping < 0 || p.JumpSpeed < 0 {
		return fmt.Errorf("%w: параметры движения не могут быть отрицательными", ErrInvalidConfig)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Params преобразует конфигурацию в параметры генерации
func (c *Config) Params() (world.Params, error) {
	params := world.Params{
		Dimensions: world.Dimensions{
			Width:  c.World.Width,
			Height: c.World.Height,
			Depth:  c.World.Depth,
		},
		Terrain: world.TerrainParams{
			Seed:      c.Terrain.Seed,
			Scale:     c.Terrain.Scale,
			Magnitude: c.Terrain.Magnitude,
			Offset:    c.Terrain.Offset,
		},
		Resources: make(world.ResourceParams, len(c.Resources)),
		Priority:  append([]block.BlockID(nil), block.ResourcePriority...),
	}

	for name, r := range c.Resources {
		id, ok := block.ByName(name)
		if !ok || id == block.EmptyBlockID {
			return world.Params{}, fmt.Errorf("%w: неизвестный ресурс %q", ErrInvalidConfig, name)
		}
		params.Resources[id] = world.Resource{
			Scale:    [3]float64{r.ScaleX, r.ScaleY, r.ScaleZ},
			Scarcity: r.Scarcity,
		}
	}
	return params, nil
}

// Body возвращает размеры тела игрока
func (c *Config) Body() physics.Body {
	return physics.Body{
		Radius:    c.Physics.Radius,
		Height:    c.Physics.Height,
		EyeHeight: c.Physics.EyeHeight,
	}
}

// Movement возвращает параметры управления игроком
func (c *Config) Movement() physics.Movement {
	return physics.Movement{
		MoveSpeed: c.Physics.MoveSpeed,
		Damping:   c.Physics.Damping,
		JumpSpeed: c.Physics.JumpSpeed,
	}
}

// LogLevel возвращает уровень логирования
func (c *Config) LogLevel() logging.LogLevel {
	level, _ := logging.ParseLevel(c.Log.Level)
	return level
}
