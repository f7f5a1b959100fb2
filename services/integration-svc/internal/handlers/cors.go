package handlers

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"montecarlo/pkg/apperror"
	"montecarlo/pkg/config"
	"montecarlo/pkg/interceptors"
)

// CORS middleware для connect и маршрута скачивания отчётов
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	allowedHeaders := prepareAllowedHeaders(cfg.AllowedHeaders)
	allowedMethods := strings.Join(cfg.AllowedMethods, ", ")
	exposedHeaders := prepareExposedHeaders(cfg.ExposedHeaders)
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowed := matchOrigin(cfg.AllowedOrigins, r.Header.Get("Origin")); allowed != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowed)
				if allowed != "*" {
					w.Header().Add("Vary", "Origin")
				}
			}

			w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
			w.Header().Set("Access-Control-Expose-Headers", exposedHeaders)

			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			// Preflight
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// matchOrigin поддерживает "*" и шаблоны вида https://*.example.com
func matchOrigin(allowed []string, origin string) string {
	for _, o := range allowed {
		switch {
		case o == "*":
			return "*"
		case origin == "":
			continue
		case strings.EqualFold(o, origin):
			return origin
		case strings.Contains(o, "://*."):
			scheme, host, _ := strings.Cut(o, "://*")
			if strings.HasPrefix(origin, scheme+"://") && strings.HasSuffix(origin, host) {
				return origin
			}
		}
	}
	return ""
}

// prepareAllowedHeaders раскрывает wildcard в заголовки connect протокола
func prepareAllowedHeaders(headers []string) string {
	if slices.Contains(headers, "*") {
		return strings.Join([]string{
			"Accept",
			"Accept-Encoding",
			"Content-Type",
			"Connect-Protocol-Version",
			"Connect-Timeout-Ms",
			"Grpc-Timeout",
			"X-Grpc-Web",
			"X-User-Agent",
			interceptors.RequestIDHeader,
		}, ", ")
	}
	return strings.Join(headers, ", ")
}

// prepareExposedHeaders добавляет заголовки с кодом ошибки приложения
func prepareExposedHeaders(headers []string) string {
	required := []string{interceptors.RequestIDHeader, apperror.CodeHeader, apperror.FieldHeader, "Content-Disposition"}
	for _, h := range required {
		if !slices.ContainsFunc(headers, func(s string) bool { return strings.EqualFold(s, h) }) {
			headers = append(headers, h)
		}
	}
	return strings.Join(headers, ", ")
}
