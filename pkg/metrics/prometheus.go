package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics глобальный контейнер метрик
type Metrics struct {
	// RPC метрики
	RPCRequestsTotal    *prometheus.CounterVec
	RPCRequestDuration  *prometheus.HistogramVec
	RPCRequestsInFlight prometheus.Gauge

	// Сэмплирование
	SamplingRunsTotal *prometheus.CounterVec
	SamplingDuration  *prometheus.HistogramVec
	SamplingSamples   *prometheus.HistogramVec
	SamplingHalfWidth *prometheus.GaugeVec
	VarianceReduction *prometheus.GaugeVec
	PilotCoefficient  prometheus.Gauge

	// Кэш результатов
	CacheOperationsTotal *prometheus.CounterVec

	// Информация о сервисе
	ServiceInfo *prometheus.GaugeVec
}

var (
	defaultMetrics *Metrics
	defaultMu      sync.Mutex
)

// InitMetrics инициализирует метрики в DefaultRegisterer
func InitMetrics(namespace, subsystem string) *Metrics {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	m := newMetrics(promauto.With(prometheus.DefaultRegisterer), namespace, subsystem)
	defaultMetrics = m
	return m
}

// NewWithRegistry создаёт метрики в отдельном реестре (тесты, CLI)
func NewWithRegistry(reg prometheus.Registerer, namespace, subsystem string) *Metrics {
	return newMetrics(promauto.With(reg), namespace, subsystem)
}

func newMetrics(f promauto.Factory, namespace, subsystem string) *Metrics {
	return &Metrics{
		RPCRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rpc_requests_total",
				Help:      "Total number of RPC requests",
			},
			[]string{"procedure", "code"},
		),

		RPCRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rpc_request_duration_seconds",
				Help:      "Duration of RPC requests",
				Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30, 60, 120},
			},
			[]string{"procedure"},
		),

		RPCRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rpc_requests_in_flight",
				Help:      "Current number of RPC requests being processed",
			},
		),

		SamplingRunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sampling_runs_total",
				Help:      "Total number of estimator runs",
			},
			[]string{"method", "policy", "status"},
		),

		SamplingDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sampling_duration_seconds",
				Help:      "Wall-clock duration of estimator runs",
				Buckets:   []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "policy"},
		),

		SamplingSamples: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sampling_samples",
				Help:      "Number of variates drawn per run",
				Buckets:   prometheus.ExponentialBuckets(1000, 4, 10),
			},
			[]string{"method"},
		),

		SamplingHalfWidth: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sampling_half_width",
				Help:      "Confidence interval half-width of the last run",
			},
			[]string{"method"},
		),

		VarianceReduction: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "variance_reduction_ratio",
				Help:      "Uniform variance divided by method variance in the last comparison",
			},
			[]string{"method"},
		),

		PilotCoefficient: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "control_variable_coefficient",
				Help:      "Last control variable coefficient estimated by the pilot",
			},
		),

		CacheOperationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cache_operations_total",
				Help:      "Result cache lookups",
			},
			[]string{"operation", "result"},
		),

		ServiceInfo: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}
}

// Get возвращает глобальные метрики
func Get() *Metrics {
	defaultMu.Lock()
	m := defaultMetrics
	defaultMu.Unlock()

	if m == nil {
		return InitMetrics("montecarlo", "")
	}
	return m
}

// RecordRPCRequest записывает метрики RPC запроса
func (m *Metrics) RecordRPCRequest(procedure, code string, duration time.Duration) {
	m.RPCRequestsTotal.WithLabelValues(procedure, code).Inc()
	m.RPCRequestDuration.WithLabelValues(procedure).Observe(duration.Seconds())
}

// RecordSampling записывает метрики одного прогона оценщика
func (m *Metrics) RecordSampling(method, policy string, success bool, duration time.Duration, n uint64, halfWidth float64) {
	status := "success"
	if !success {
		status = "error"
	}

	m.SamplingRunsTotal.WithLabelValues(method, policy, status).Inc()
	m.SamplingDuration.WithLabelValues(method, policy).Observe(duration.Seconds())
	if success {
		m.SamplingSamples.WithLabelValues(method).Observe(float64(n))
		m.SamplingHalfWidth.WithLabelValues(method).Set(halfWidth)
	}
}

// RecordVarianceReduction записывает выигрыш метода относительно uniform
func (m *Metrics) RecordVarianceReduction(method string, ratio float64) {
	m.VarianceReduction.WithLabelValues(method).Set(ratio)
}

// RecordPilot записывает коэффициент c контрольной переменной
func (m *Metrics) RecordPilot(c float64) {
	m.PilotCoefficient.Set(c)
}

// RecordCache записывает попадание или промах кэша
func (m *Metrics) RecordCache(operation string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheOperationsTotal.WithLabelValues(operation, result).Inc()
}

// SetServiceInfo устанавливает информацию о сервисе
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler возвращает HTTP handler для /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// NewMetricsServer создаёт HTTP сервер для метрик
func NewMetricsServer(port int, path string) *http.Server {
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint
	})

	return &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}
