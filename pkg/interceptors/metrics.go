package interceptors

import (
	"context"
	"time"

	"connectrpc.com/connect"

	"montecarlo/pkg/metrics"
)

// MetricsInterceptor записывает метрики запросов
func MetricsInterceptor(m *metrics.Metrics) connect.UnaryInterceptorFunc {
	tracker := metrics.NewRequestTracker(m.RPCRequestsInFlight)

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure
			tracker.Start(procedure)
			defer tracker.End(procedure)

			start := time.Now()

			resp, err := next(ctx, req)

			status := "ok"
			if err != nil {
				status = connect.CodeOf(err).String()
			}
			m.RecordRPCRequest(procedure, status, time.Since(start))

			return resp, err
		}
	}
}
