package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func freshRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	return reg
}

func TestInitMetrics(t *testing.T) {
	freshRegistry()

	m := InitMetrics("test", "service")
	if m == nil {
		t.Fatal("InitMetrics returned nil")
	}
	if m.RPCRequestsTotal == nil || m.SamplingRunsTotal == nil || m.SamplingDuration == nil {
		t.Error("metric vectors should not be nil")
	}
	if Get() != m {
		t.Error("Get() should return the initialised instance")
	}
}

func TestGet(t *testing.T) {
	freshRegistry()
	defaultMetrics = nil

	m := Get()
	if m == nil {
		t.Fatal("Get() should not return nil")
	}
	if m2 := Get(); m2 != m {
		t.Error("Get() should return same instance")
	}
}

func TestRecordRPCRequest(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry(), "test", "rpc")

	m.RecordRPCRequest("/montecarlo.v1.IntegrationService/Integrate", "ok", 100*time.Millisecond)
	m.RecordRPCRequest("/montecarlo.v1.IntegrationService/Integrate", "invalid_argument", 5*time.Millisecond)

	got := testutil.ToFloat64(m.RPCRequestsTotal.WithLabelValues("/montecarlo.v1.IntegrationService/Integrate", "ok"))
	if got != 1 {
		t.Errorf("ok counter = %v, want 1", got)
	}
}

func TestRecordSampling(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry(), "test", "sampling")

	m.RecordSampling("uniform", "size", true, 200*time.Millisecond, 100000, 3.5)
	m.RecordSampling("uniform", "size", false, time.Millisecond, 0, 0)

	if v := testutil.ToFloat64(m.SamplingRunsTotal.WithLabelValues("uniform", "size", "success")); v != 1 {
		t.Errorf("success runs = %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.SamplingRunsTotal.WithLabelValues("uniform", "size", "error")); v != 1 {
		t.Errorf("error runs = %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.SamplingHalfWidth.WithLabelValues("uniform")); v != 3.5 {
		t.Errorf("half width = %v, want 3.5", v)
	}
}

func TestRecordVarianceReductionAndPilot(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry(), "test", "vr")

	m.RecordVarianceReduction("importance", 12.5)
	m.RecordPilot(0.97)

	if v := testutil.ToFloat64(m.VarianceReduction.WithLabelValues("importance")); v != 12.5 {
		t.Errorf("ratio = %v, want 12.5", v)
	}
	if v := testutil.ToFloat64(m.PilotCoefficient); v != 0.97 {
		t.Errorf("pilot = %v, want 0.97", v)
	}
}

func TestRecordCache(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry(), "test", "cache")

	m.RecordCache("integrate", true)
	m.RecordCache("integrate", false)
	m.RecordCache("integrate", false)

	if v := testutil.ToFloat64(m.CacheOperationsTotal.WithLabelValues("integrate", "miss")); v != 2 {
		t.Errorf("misses = %v, want 2", v)
	}
}

func TestSetServiceInfo(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry(), "test", "info")
	m.SetServiceInfo("1.0.0", "production")

	if v := testutil.ToFloat64(m.ServiceInfo.WithLabelValues("1.0.0", "production")); v != 1 {
		t.Errorf("service info = %v, want 1", v)
	}
}

func TestCacheCollector(t *testing.T) {
	collector := NewCacheCollector("test", "cache", func() (int64, int64, int64) {
		return 7, 3, 5
	})

	if n := testutil.CollectAndCount(collector); n != 3 {
		t.Errorf("collected %d metrics, want 3", n)
	}

	reg := prometheus.NewRegistry()
	if err := reg.Register(collector); err != nil {
		t.Fatalf("register: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	values := map[string]float64{}
	for _, f := range families {
		m := f.GetMetric()[0]
		if m.GetCounter() != nil {
			values[f.GetName()] = m.GetCounter().GetValue()
		} else {
			values[f.GetName()] = m.GetGauge().GetValue()
		}
	}
	if values["test_cache_result_cache_hits_total"] != 7 {
		t.Errorf("hits = %v", values["test_cache_result_cache_hits_total"])
	}
	if values["test_cache_result_cache_entries"] != 5 {
		t.Errorf("entries = %v", values["test_cache_result_cache_entries"])
	}
}

func TestRequestTracker(t *testing.T) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_in_flight"})
	tracker := NewRequestTracker(gauge)

	tracker.Start("/integrate")
	tracker.Start("/integrate")
	tracker.Start("/compare")

	if tracker.Active("/integrate") != 2 {
		t.Errorf("active(/integrate) = %d, want 2", tracker.Active("/integrate"))
	}
	if v := testutil.ToFloat64(gauge); v != 3 {
		t.Errorf("in flight = %v, want 3", v)
	}

	tracker.End("/integrate")
	tracker.End("/integrate")
	tracker.End("/integrate")
	if tracker.Active("/integrate") != 0 {
		t.Error("active count should not go negative")
	}
	if v := testutil.ToFloat64(gauge); v != 1 {
		t.Errorf("in flight = %v, want 1", v)
	}
}

func TestTimer(t *testing.T) {
	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "test_duration", Buckets: []float64{.01, .1, 1}},
		[]string{"method"},
	)

	timer := NewTimer(histogram, "uniform")
	time.Sleep(10 * time.Millisecond)

	if d := timer.ObserveDuration(); d < 10*time.Millisecond {
		t.Errorf("duration = %v, expected >= 10ms", d)
	}
}

func TestNewMetricsServer(t *testing.T) {
	freshRegistry()
	InitMetrics("test", "server")

	srv := NewMetricsServer(9999, "")
	if srv.Addr != ":9999" {
		t.Errorf("Addr = %s", srv.Addr)
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("metrics status = %d", rec.Code)
	}
}
