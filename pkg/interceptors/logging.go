package interceptors

import (
	"context"
	"time"

	"connectrpc.com/connect"

	"montecarlo/pkg/apperror"
	"montecarlo/pkg/logger"
)

// LoggingInterceptor логирует запросы; ошибки клиента - Warn, остальные - Error
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure

			resp, err := next(ctx, req)

			duration := time.Since(start)
			log := logger.WithContext(ctx)

			if err == nil {
				log.Info("Request completed",
					"procedure", procedure,
					"duration_ms", duration.Milliseconds(),
				)
				return resp, nil
			}

			fields := []any{
				"procedure", procedure,
				"duration_ms", duration.Milliseconds(),
				"code", connect.CodeOf(err).String(),
				"error", err,
			}
			if appErr := apperror.FromConnect(err); appErr != nil {
				fields = append(fields, "app_code", appErr.Code)
			}

			if clientError(connect.CodeOf(err)) {
				log.Warn("Request rejected", fields...)
			} else {
				log.Error("Request failed", fields...)
			}
			return resp, err
		}
	}
}

func clientError(code connect.Code) bool {
	switch code {
	case connect.CodeInvalidArgument,
		connect.CodeOutOfRange,
		connect.CodeNotFound,
		connect.CodeResourceExhausted,
		connect.CodeCanceled,
		connect.CodeDeadlineExceeded:
		return true
	default:
		return false
	}
}
