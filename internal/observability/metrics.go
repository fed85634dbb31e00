package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annel0/pixelsim/internal/logging"
)

// TickSample сводка одного тика для экспорта в Prometheus.
// Накопительные счётчики (Generated, Restored, ...) передаются как есть,
// приращения вычисляются внутри.
type TickSample struct {
	Duration time.Duration

	NotGenerated int
	Generating   int
	Cached       int
	Active       int
	Queued       int

	Generated          uint64
	Restored           uint64
	Unloaded           uint64
	GenerationFailures uint64
	PersistFailures    uint64

	SimulatedChunks int
	PixelsMoved     int

	ParticlesActive   int
	ParticlesSleeping int
	ParticlesPlaced   int
}

// Metrics инкапсулирует Prometheus-метрики симуляции
type Metrics struct {
	ticks        prometheus.Counter
	tickDuration prometheus.Histogram
	tickErrors   prometheus.Counter

	chunks *prometheus.GaugeVec
	queued prometheus.Gauge

	generated   prometheus.Counter
	restored    prometheus.Counter
	unloaded    prometheus.Counter
	genFailures prometheus.Counter
	persistFail prometheus.Counter

	simulated prometheus.Gauge
	moved     prometheus.Counter

	particles *prometheus.GaugeVec
	placed    prometheus.Counter

	prev TickSample
}

// NewMetrics создаёт метрики и регистрирует их в reg.
// Для глобального регистра передайте prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pixelsim",
			Name:      "ticks_total",
			Help:      "Общее число выполненных тиков.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pixelsim",
			Name:      "tick_duration_seconds",
			Help:      "Длительность тика.",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.02, 0.033, 0.05, 0.1, 0.25},
		}),
		tickErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pixelsim",
			Name:      "tick_errors_total",
			Help:      "Тиков, завершившихся ошибкой.",
		}),
		chunks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pixelsim",
			Name:      "chunks",
			Help:      "Количество чанков в хранилище по состоянию.",
		}, []string{"state"}),
		queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pixelsim",
			Name:      "load_queue_length",
			Help:      "Чанков в очереди загрузки.",
		}),
		generated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pixelsim",
			Name:      "chunks_generated_total",
			Help:      "Чанков, прошедших все стадии генерации.",
		}),
		restored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pixelsim",
			Name:      "chunks_restored_total",
			Help:      "Чанков, восстановленных из хранилища.",
		}),
		unloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pixelsim",
			Name:      "chunks_unloaded_total",
			Help:      "Выгруженных чанков.",
		}),
		genFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pixelsim",
			Name:      "generation_failures_total",
			Help:      "Неудачных стадий генерации.",
		}),
		persistFail: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pixelsim",
			Name:      "persist_failures_total",
			Help:      "Ошибок сохранения и восстановления чанков.",
		}),
		simulated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pixelsim",
			Name:      "simulated_chunks",
			Help:      "Чанков, обновлённых клеточным автоматом за последний тик.",
		}),
		moved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pixelsim",
			Name:      "pixels_moved_total",
			Help:      "Перемещений пикселей клеточным автоматом.",
		}),
		particles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pixelsim",
			Name:      "particles",
			Help:      "Частиц в активном и спящем списках.",
		}, []string{"list"}),
		placed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pixelsim",
			Name:      "particles_placed_total",
			Help:      "Частиц, вернувшихся в сетку.",
		}),
	}

	reg.MustRegister(
		m.ticks, m.tickDuration, m.tickErrors,
		m.chunks, m.queued,
		m.generated, m.restored, m.unloaded, m.genFailures, m.persistFail,
		m.simulated, m.moved,
		m.particles, m.placed,
	)
	return m
}

// Observe записывает сводку успешного тика
func (m *Metrics) Observe(s TickSample) {
	m.ticks.Inc()
	m.tickDuration.Observe(s.Duration.Seconds())

	m.chunks.WithLabelValues("not_generated").Set(float64(s.NotGenerated))
	m.chunks.WithLabelValues("generating").Set(float64(s.Generating))
	m.chunks.WithLabelValues("cached").Set(float64(s.Cached))
	m.chunks.WithLabelValues("active").Set(float64(s.Active))
	m.queued.Set(float64(s.Queued))

	// Для коррекции Counter храним прошлое значение и прибавляем дельту
	addDelta(m.generated, s.Generated, m.prev.Generated)
	addDelta(m.restored, s.Restored, m.prev.Restored)
	addDelta(m.unloaded, s.Unloaded, m.prev.Unloaded)
	addDelta(m.genFailures, s.GenerationFailures, m.prev.GenerationFailures)
	addDelta(m.persistFail, s.PersistFailures, m.prev.PersistFailures)

	m.simulated.Set(float64(s.SimulatedChunks))
	m.moved.Add(float64(s.PixelsMoved))

	m.particles.WithLabelValues("active").Set(float64(s.ParticlesActive))
	m.particles.WithLabelValues("sleeping").Set(float64(s.ParticlesSleeping))
	m.placed.Add(float64(s.ParticlesPlaced))

	m.prev = s
}

// ObserveError учитывает тик, завершившийся ошибкой
func (m *Metrics) ObserveError() {
	m.tickErrors.Inc()
}

func addDelta(c prometheus.Counter, cur, prev uint64) {
	if cur > prev {
		c.Add(float64(cur - prev))
	}
}

// StartHTTP запускает HTTP-эндпоинт Prometheus на указанном адресе (например, ":2112").
// Метод неблокирующий: HTTP-сервер стартует в отдельной горутине.
func StartHTTP(addr string, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	return srv
}
