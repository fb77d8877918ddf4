package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics собирает метрики симуляции в собственном регистре.
// Все методы безопасны для nil-получателя.
//
// Метрики:
// * world_generation_duration_seconds{source} - histogram
// * world_generations_total{source} - counter (fresh/cache)
// * world_mutations_total{op,result} - counter
// * world_raycasts_total{result} - counter
// * world_visible_faces{face} - gauge
// * world_visible_blocks - gauge
// * player_steps_total - counter
// * player_respawns_total{reason} - counter
type Metrics struct {
	registry *prometheus.Registry

	generationDuration *prometheus.HistogramVec
	generations        *prometheus.CounterVec
	mutations          *prometheus.CounterVec
	raycasts           *prometheus.CounterVec
	visibleFaces       *prometheus.GaugeVec
	visibleBlocks      prometheus.Gauge
	steps              prometheus.Counter
	respawns           *prometheus.CounterVec
}

// New создаёт метрики и регистрирует их вместе со стандартными коллекторами Go
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		generationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "world_generation_duration_seconds",
			Help:      "Длительность генерации мира.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"source"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "world_generations_total",
			Help:      "Количество установленных миров по источнику.",
		}, []string{"source"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "world_mutations_total",
			Help:      "Операции добавления и удаления блоков.",
		}, []string{"op", "result"}),
		raycasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "world_raycasts_total",
			Help:      "Выбор блока лучом.",
		}, []string{"result"}),
		visibleFaces: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "world_visible_faces",
			Help:      "Количество видимых граней по направлению.",
		}, []string{"face"}),
		visibleBlocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "world_visible_blocks",
			Help:      "Количество блоков хотя бы с одной видимой гранью.",
		}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "player_steps_total",
			Help:      "Шаги симуляции игрока.",
		}),
		respawns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "player_respawns_total",
			Help:      "Возрождения игрока по причине.",
		}, []string{"reason"}),
	}

	m.registry.MustRegister(
		m.generationDuration, m.generations, m.mutations, m.raycasts,
		m.visibleFaces, m.visibleBlocks, m.steps, m.respawns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry возвращает регистр для подключения HTTP-метрик
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler возвращает HTTP-обработчик /metrics для собственного регистра
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveGeneration учитывает установку мира из источника (fresh или cache)
func (m *Metrics) ObserveGeneration(source string, d time.Duration) {
	if m == nil {
		return
	}
	m.generationDuration.WithLabelValues(source).Observe(d.Seconds())
	m.generations.WithLabelValues(source).Inc()
}

// ObserveMutation учитывает добавление или удаление блока
func (m *Metrics) ObserveMutation(op string, ok bool) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op, result(ok)).Inc()
}

// ObserveRaycast учитывает попадание или промах луча
func (m *Metrics) ObserveRaycast(hit bool) {
	if m == nil {
		return
	}
	label := "miss"
	if hit {
		label = "hit"
	}
	m.raycasts.WithLabelValues(label).Inc()
}

// SetVisibleFaces обновляет число видимых граней и блоков
func (m *Metrics) SetVisibleFaces(faces map[string]int, visibleBlocks int) {
	if m == nil {
		return
	}
	for face, n := range faces {
		m.visibleFaces.WithLabelValues(face).Set(float64(n))
	}
	m.visibleBlocks.Set(float64(visibleBlocks))
}

// IncStep учитывает шаг игрока
func (m *Metrics) IncStep() {
	if m == nil {
		return
	}
	m.steps.Inc()
}

// IncRespawn учитывает возрождение игрока
func (m *Metrics) IncRespawn(reason string) {
	if m == nil {
		return
	}
	m.respawns.WithLabelValues(reason).Inc()
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "rejected"
}
