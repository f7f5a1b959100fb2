package interceptors

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"connectrpc.com/connect"

	"montecarlo/pkg/apperror"
	"montecarlo/pkg/logger"
)

// RecoveryInterceptor переводит панику обработчика в CodeInternal
func RecoveryInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (resp connect.AnyResponse, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.WithContext(ctx).Error("Panic recovered",
						"procedure", req.Spec().Procedure,
						"panic", r,
						"stack", string(debug.Stack()),
					)
					resp = nil
					err = connect.NewError(connect.CodeInternal, fmt.Errorf("internal error"))
				}
			}()
			return next(ctx, req)
		}
	}
}

// TimeoutInterceptor ограничивает время обработки запроса
func TimeoutInterceptor(timeout time.Duration) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(ctx, req)
		}
	}
}

// ErrorInterceptor переводит ошибки приложения в connect ошибки с кодом в метаданных
func ErrorInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			resp, err := next(ctx, req)
			if err != nil {
				return nil, apperror.ToConnect(err)
			}
			return resp, nil
		}
	}
}
