package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Интегрирование
	AttrIntegrand  = "integration.integrand"
	AttrLowerBound = "integration.lower"
	AttrUpperBound = "integration.upper"

	// Оценщик
	AttrMethod    = "sampling.method"
	AttrPolicy    = "sampling.policy"
	AttrSamples   = "sampling.samples"
	AttrEstimate  = "sampling.estimate"
	AttrHalfWidth = "sampling.half_width"
	AttrElapsed   = "sampling.elapsed_seconds"
	AttrCacheHit  = "sampling.cache_hit"

	// История
	AttrRunID = "run.id"
)

// IntegrandAttributes возвращает атрибуты задачи интегрирования
func IntegrandAttributes(name string, a, b float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrIntegrand, name),
		attribute.Float64(AttrLowerBound, a),
		attribute.Float64(AttrUpperBound, b),
	}
}

// SamplingAttributes возвращает атрибуты результата оценщика
func SamplingAttributes(method, policy string, n uint64, estimate, halfWidth, elapsed float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrMethod, method),
		attribute.String(AttrPolicy, policy),
		attribute.Int64(AttrSamples, int64(n)),
		attribute.Float64(AttrEstimate, estimate),
		attribute.Float64(AttrHalfWidth, halfWidth),
		attribute.Float64(AttrElapsed, elapsed),
	}
}
