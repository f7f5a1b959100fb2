package telemetry

import (
	"context"

	"connectrpc.com/connect"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// UnaryInterceptor создаёт connect interceptor для трейсинга
func UnaryInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure

			kind := trace.SpanKindServer
			if req.Spec().IsClient {
				kind = trace.SpanKindClient
			}

			ctx, span := StartSpan(ctx, procedure, trace.WithSpanKind(kind))
			defer span.End()

			span.SetAttributes(
				attribute.String("rpc.system", "connect_rpc"),
				attribute.String("rpc.method", procedure),
			)

			resp, err := next(ctx, req)

			if err != nil {
				span.SetStatus(codes.Error, err.Error())
				span.SetAttributes(
					attribute.String("rpc.connect_rpc.error_code", connect.CodeOf(err).String()),
				)
				span.RecordError(err)
			} else {
				span.SetStatus(codes.Ok, "")
			}

			return resp, err
		}
	}
}
