package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Группы маршрутов REST API симуляции
const (
	GroupWorld     = "world"     // /api/world/...
	GroupPlayer    = "player"    // /api/player/...
	GroupCatalog   = "catalog"   // /api/blocks
	GroupSystem    = "system"    // /health, /metrics и прочие служебные
	GroupUnmatched = "unmatched" // маршрут не найден
)

// RouteGroup относит шаблон маршрута gin к группе API
func RouteGroup(fullPath string) string {
	switch {
	case fullPath == "":
		return GroupUnmatched
	case fullPath == "/api/world" || strings.HasPrefix(fullPath, "/api/world/"):
		return GroupWorld
	case fullPath == "/api/player" || strings.HasPrefix(fullPath, "/api/player/"):
		return GroupPlayer
	case strings.HasPrefix(fullPath, "/api/blocks"):
		return GroupCatalog
	}
	return GroupSystem
}

// PrometheusMiddleware считает HTTP-метрики REST API по группам маршрутов:
// мир (чтение сетки, граней, регенерация), игрок (шаги и правки) и каталог.
// Маршрут /metrics подключается через RegisterMetricsEndpoint.
//
// Метрики:
// * http_request_duration_seconds{group,method,path,status} - histogram
// * http_requests_inflight{group} - gauge
// * http_request_errors_total{group,status} - counter (4xx/5xx)
// * http_response_size_bytes{group} - histogram
type PrometheusMiddleware struct {
	reqDuration  *prometheus.HistogramVec
	reqInflight  *prometheus.GaugeVec
	reqErrors    *prometheus.CounterVec
	responseSize *prometheus.HistogramVec
}

// NewPrometheusMiddleware создаёт middleware и регистрирует метрики в reg.
// При reg == nil используется дефолтный регистр.
func NewPrometheusMiddleware(service string, reg prometheus.Registerer) *PrometheusMiddleware {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	pm := &PrometheusMiddleware{
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: service,
			Name:      "http_request_duration_seconds",
			Help:      "Длительность HTTP-запросов по группам маршрутов.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
		}, []string{"group", "method", "path", "status"}),
		reqInflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: service,
			Name:      "http_requests_inflight",
			Help:      "Запросы в обработке по группам маршрутов.",
		}, []string{"group"}),
		reqErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: service,
			Name:      "http_request_errors_total",
			Help:      "Запросы, завершившиеся ошибкой (4xx/5xx).",
		}, []string{"group", "status"}),
		responseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: service,
			Name:      "http_response_size_bytes",
			Help:      "Размер тела ответа.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 10),
		}, []string{"group"}),
	}

	reg.MustRegister(pm.reqDuration, pm.reqInflight, pm.reqErrors, pm.responseSize)
	return pm
}

// Handler возвращает gin.HandlerFunc, которую нужно добавить через router.Use().
func (pm *PrometheusMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		group := RouteGroup(path)
		if path == "" {
			path = GroupUnmatched // не раздуваем метки произвольными URL
		}

		start := time.Now()
		inflight := pm.reqInflight.WithLabelValues(group)
		inflight.Inc()
		c.Next()
		inflight.Dec()

		status := c.Writer.Status()
		code := strconv.Itoa(status)
		pm.reqDuration.WithLabelValues(group, c.Request.Method, path, code).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size > 0 {
			pm.responseSize.WithLabelValues(group).Observe(float64(size))
		}
		if status >= 400 {
			pm.reqErrors.WithLabelValues(group, code).Inc()
		}
	}
}

// RegisterMetricsEndpoint добавляет GET /metrics в указанный router.
func (pm *PrometheusMiddleware) RegisterMetricsEndpoint(r *gin.Engine, handler http.Handler) {
	r.GET("/metrics", gin.WrapH(handler))
}
