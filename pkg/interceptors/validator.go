package interceptors

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"

	"montecarlo/pkg/apperror"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator валидатор запросов; имена полей берутся из json тегов
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateRequest проверяет теги validate; первая ошибка - INVALID_ARGUMENT с полем
func ValidateRequest(msg any) error {
	if msg == nil {
		return nil
	}
	err := Validator().Struct(msg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return nil
		}
		return apperror.Wrap(err, apperror.CodeInvalidArgument, "validation error")
	}

	fe := verrs[0]
	field := fieldPath(fe.Namespace())
	return apperror.NewWithField(apperror.CodeInvalidArgument, describe(field, fe), field)
}

// fieldPath убирает имя структуры: "IntegrateRequest.stop.width" -> "stop.width"
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func describe(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value())
	case "uuid":
		return fmt.Sprintf("%s must be a UUID, got %q", field, fe.Value())
	case "min", "max", "gt", "gte", "lt", "lte":
		return fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed validation %q", field, fe.Tag())
	}
}

// ValidationInterceptor валидирует входящие сообщения
func ValidationInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if err := ValidateRequest(req.Any()); err != nil {
				return nil, apperror.ToConnect(err)
			}
			return next(ctx, req)
		}
	}
}
