package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheStatsFunc возвращает текущие счётчики кэша
type CacheStatsFunc func() (hits, misses, size int64)

// CacheCollector экспортирует состояние кэша результатов на момент scrape
type CacheCollector struct {
	stats  CacheStatsFunc
	hits   *prometheus.Desc
	misses *prometheus.Desc
	size   *prometheus.Desc
}

// NewCacheCollector создаёт коллектор поверх функции статистики
func NewCacheCollector(namespace, subsystem string, stats CacheStatsFunc) *CacheCollector {
	return &CacheCollector{
		stats: stats,
		hits: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "result_cache_hits_total"),
			"Result cache hits since start",
			nil, nil,
		),
		misses: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "result_cache_misses_total"),
			"Result cache misses since start",
			nil, nil,
		),
		size: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "result_cache_entries"),
			"Entries currently held by the result cache",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.size
}

// Collect implements prometheus.Collector
func (c *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	hits, misses, size := c.stats()

	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(misses))
	ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(size))
}

// RequestTracker отслеживает активные запросы
type RequestTracker struct {
	mu       sync.Mutex
	active   map[string]int
	inFlight prometheus.Gauge
}

// NewRequestTracker создаёт новый трекер запросов
func NewRequestTracker(inFlight prometheus.Gauge) *RequestTracker {
	return &RequestTracker{
		active:   make(map[string]int),
		inFlight: inFlight,
	}
}

// Start отмечает начало запроса
func (t *RequestTracker) Start(procedure string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.active[procedure]++
	t.inFlight.Inc()
}

// End отмечает завершение запроса
func (t *RequestTracker) End(procedure string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active[procedure] > 0 {
		t.active[procedure]--
		t.inFlight.Dec()
	}
}

// Active возвращает число активных запросов процедуры
func (t *RequestTracker) Active(procedure string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active[procedure]
}

// Timer для измерения времени выполнения
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer создаёт новый таймер
func NewTimer(histogram *prometheus.HistogramVec, labels ...string) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: histogram.WithLabelValues(labels...),
	}
}

// ObserveDuration записывает длительность
func (t *Timer) ObserveDuration() time.Duration {
	duration := time.Since(t.start)
	t.observer.Observe(duration.Seconds())
	return duration
}
