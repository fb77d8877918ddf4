package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/metrics"
	"github.com/annel0/blockworld/internal/middleware"
	"github.com/annel0/blockworld/internal/sim"
	"github.com/annel0/blockworld/internal/storage"
	"github.com/annel0/blockworld/internal/world"
)

// RestServer представляет REST API сервер симуляции
type RestServer struct {
	router     *gin.Engine
	httpServer *http.Server
	simulation *sim.Simulation
	metrics    *metrics.Metrics
	codec      *storage.Codec
	logger     *logging.Logger
	started    time.Time
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port       string           // порт для запуска сервера
	Simulation *sim.Simulation  // обслуживаемая симуляция
	Metrics    *metrics.Metrics // регистр метрик; nil отключает /metrics
	Codec      *storage.Codec   // сжатие выгрузки сетки
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) (*RestServer, error) {
	if config.Simulation == nil {
		return nil, errors.New("REST сервер требует симуляцию")
	}
	if config.Port == "" {
		config.Port = ":8090"
	}
	if config.Codec == nil {
		codec, err := storage.NewCodec()
		if err != nil {
			return nil, err
		}
		config.Codec = codec
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	logger := logging.GetServerLogger()
	loggerMw := middleware.NewRequestLogger(logger)
	router.Use(loggerMw.Handler())

	otelRouter := otelgin.Middleware("rest_api")
	router.Use(otelRouter)

	if config.Metrics != nil {
		promMw := middleware.NewPrometheusMiddleware("rest_api", config.Metrics.Registry())
		router.Use(promMw.Handler())
		promMw.RegisterMetricsEndpoint(router, config.Metrics.Handler())
	}

	server := &RestServer{
		router:     router,
		simulation: config.Simulation,
		metrics:    config.Metrics,
		codec:      config.Codec,
		logger:     logger,
		started:    time.Now(),
		httpServer: &http.Server{
			Addr:              config.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	// Настраиваем маршруты
	server.setupRoutes()

	return server, nil
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Expose-Headers", "X-Grid-Dimensions, X-Trace-Id")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Группа API
	api := rs.router.Group("/api")

	api.GET("/blocks", rs.handleBlocks)

	worldGroup := api.Group("/world")
	{
		worldGroup.GET("", rs.handleWorldInfo)
		worldGroup.GET("/faces", rs.handleFaces)
		worldGroup.GET("/grid", rs.handleGrid)
		worldGroup.POST("/regenerate", rs.handleRegenerate)
		worldGroup.POST("/blocks", rs.handleAddBlock)
		worldGroup.DELETE("/blocks", rs.handleRemoveBlock)
	}

	player := api.Group("/player")
	{
		player.GET("", rs.handlePlayer)
		player.POST("/step", rs.handleStep)
		player.POST("/respawn", rs.handleRespawn)
		player.POST("/break", rs.handleBreak)
		player.POST("/place", rs.handlePlace)
	}

	// Health check
	rs.router.GET("/health", rs.handleHealth)
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Router возвращает обработчик маршрутов (используется в тестах)
func (rs *RestServer) Router() http.Handler {
	return rs.router
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	status := "ok"
	if rs.simulation.Generating() {
		status = "generating"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     status,
		"simulation": rs.simulation.ID().String(),
		"uptime":     time.Since(rs.started).Round(time.Second).String(),
		"time":       time.Now().Unix(),
	})
}

// statusFor сопоставляет ошибку симуляции с HTTP статусом
func statusFor(err error) int {
	switch {
	case errors.Is(err, sim.ErrGenerating):
		return http.StatusServiceUnavailable
	case errors.Is(err, sim.ErrNoTarget):
		return http.StatusNotFound
	case errors.Is(err, sim.ErrPlacementBlocked), errors.Is(err, sim.ErrRejected):
		return http.StatusConflict
	case errors.Is(err, world.ErrInvalidDimensions),
		errors.Is(err, world.ErrInvalidTerrain),
		errors.Is(err, world.ErrInvalidResource):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError пишет ответ с ошибкой
func (rs *RestServer) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		rs.logger.Error("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, GenericResponse{
		Success: false,
		Message: err.Error(),
	})
}

// badRequest пишет ответ 400
func badRequest(c *gin.Context, format string, args ...interface{}) {
	c.JSON(http.StatusBadRequest, GenericResponse{
		Success: false,
		Message: fmt.Sprintf(format, args...),
	})
}

// Start запускает REST сервер и блокируется до Stop
func (rs *RestServer) Start() error {
	rs.logger.Info("🌐 REST API слушает %s", rs.httpServer.Addr)
	if err := rs.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop плавно останавливает REST сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	rs.logger.Info("🛑 Остановка REST API")
	return rs.httpServer.Shutdown(ctx)
}
