package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/annel0/blockworld/internal/api"
	"github.com/annel0/blockworld/internal/config"
	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/metrics"
	"github.com/annel0/blockworld/internal/observability"
	"github.com/annel0/blockworld/internal/sim"
	"github.com/annel0/blockworld/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию VOXEL_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	// Инициализируем систему логирования
	if err := logging.Init(logging.Config{Level: cfg.LogLevel(), FilePath: cfg.Log.File}); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.Close()

	logging.Info("🎮 Запуск симуляции воксельного мира...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error("❌ %v", err)
		logging.Close()
		os.Exit(1)
	}
	logging.Info("👋 Сервер успешно остановлен")
}

func run(ctx context.Context, cfg *config.Config) error {
	// === ТЕЛЕМЕТРИЯ ===
	shutdownTracing, err := observability.InitTelemetry(ctx, observability.Config{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.Endpoint,
	})
	if err != nil {
		return fmt.Errorf("ошибка инициализации трассировки: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logging.Warn("⚠️ Ошибка остановки трассировки: %v", err)
		}
	}()

	m := metrics.New("voxel")
	options := []sim.Option{sim.WithMetrics(m)}

	// === КЕШ ГЕНЕРАЦИИ ===
	if cfg.Cache.Enabled {
		cache, err := storage.NewGenerationCache(cfg.Cache.MaxEntries)
		if err != nil {
			return fmt.Errorf("ошибка создания кеша генерации: %w", err)
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logging.Warn("⚠️ Ошибка закрытия кеша: %v", err)
			}
		}()
		options = append(options, sim.WithCache(cache))
		logging.Debug("Кеш генерации включён: до %d миров", cfg.Cache.MaxEntries)
	}

	// === СИМУЛЯЦИЯ ===
	params, err := cfg.Params()
	if err != nil {
		return err
	}
	opts := sim.Options{
		Params:      params,
		Body:        cfg.Body(),
		Movement:    cfg.Movement(),
		Gravity:     cfg.Physics.Gravity,
		Reach:       cfg.Physics.Reach,
		SpawnMargin: cfg.Physics.SpawnMargin,
	}
	simulation, err := sim.New(ctx, opts, options...)
	if err != nil {
		return fmt.Errorf("ошибка создания симуляции: %w", err)
	}
	defer simulation.Close()

	// === REST API ===
	codec, err := storage.NewCodec()
	if err != nil {
		return err
	}
	defer codec.Close()

	gin.SetMode(gin.ReleaseMode)
	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	server, err := api.NewRestServer(api.Config{
		Port:       restPort,
		Simulation: simulation,
		Metrics:    m,
		Codec:      codec,
	})
	if err != nil {
		return fmt.Errorf("ошибка создания REST API: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logging.Info("✅ Все сервисы запущены и готовы принимать соединения")
	logging.Info("   🌐 REST API: http://localhost%s", restPort)
	logging.Info("   ❤️  Health check: http://localhost%s/health", restPort)
	logging.Info("   📊 Метрики: http://localhost%s/metrics", restPort)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("REST API остановился: %w", err)
		}
		return nil
	case <-ctx.Done():
		logging.Info("📡 Получен сигнал завершения, остановка...")
	}

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	return <-errCh
}
