// Package swagger отдаёт встроенный OpenAPI документ и Swagger UI
package swagger

import (
	"crypto/sha256"
	"encoding/hex"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"montecarlo/pkg/config"
	"montecarlo/pkg/logger"
)

// Config конфигурация Swagger UI
type Config struct {
	Title        string
	BasePath     string
	SpecPath     string
	DocExpansion string
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Title:        "Monte Carlo Integration API",
		BasePath:     "/swagger",
		SpecPath:     "/openapi.json",
		DocExpansion: "list",
	}
}

// FromConfig конфигурация из секции swagger
func FromConfig(cfg config.SwaggerConfig) *Config {
	c := DefaultConfig()
	if cfg.Title != "" {
		c.Title = cfg.Title
	}
	return c
}

var uiTemplate = template.Must(template.New("swagger-ui").Parse(swaggerUITemplate))

// Handler HTTP handler для Swagger UI и документа
type Handler struct {
	config *Config
	spec   []byte
	etag   string
}

// NewHandler создаёт handler; ETag вычисляется по содержимому документа
func NewHandler(cfg *Config, spec []byte) *Handler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	sum := sha256.Sum256(spec)
	return &Handler{
		config: cfg,
		spec:   spec,
		etag:   `"` + hex.EncodeToString(sum[:8]) + `"`,
	}
}

// ServeHTTP обрабатывает HTTP запросы
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, h.config.BasePath)
	switch strings.TrimPrefix(path, "/") {
	case "", "index.html":
		h.serveUI(w)
	case strings.TrimPrefix(h.config.SpecPath, "/"), "swagger.json":
		h.serveSpec(w, r)
	default:
		http.NotFound(w, r)
	}
}

// serveUI SpecURL берётся из конфигурации и вставляется в script как готовый JS литерал,
// иначе html/template экранирует "/" в "\/"
func (h *Handler) serveUI(w http.ResponseWriter) {
	data := struct {
		Title        string
		SpecURL      template.JS
		DocExpansion string
	}{
		Title:        h.config.Title,
		SpecURL:      template.JS(strconv.Quote(h.config.BasePath + h.config.SpecPath)),
		DocExpansion: h.config.DocExpansion,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if err := uiTemplate.Execute(w, data); err != nil {
		logger.Log.Error("Failed to execute swagger template", "error", err)
	}
}

func (h *Handler) serveSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", h.etag)
	if r.Header.Get("If-None-Match") == h.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(h.spec); err != nil {
		logger.Log.Debug("Failed to write spec", "error", err)
	}
}

// RegisterRoutes монтирует UI и документ в mux
func RegisterRoutes(mux *http.ServeMux, cfg *Config, spec []byte) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	handler := NewHandler(cfg, spec)
	mux.Handle(cfg.BasePath+"/", handler)
	mux.Handle(cfg.BasePath, http.RedirectHandler(cfg.BasePath+"/", http.StatusMovedPermanently))
}

const swaggerUITemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
    <style>
        body { margin: 0; background: #fafafa; }
        .swagger-ui .topbar { display: none; }
    </style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" charset="UTF-8"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({
                url: {{.SpecURL}},
                dom_id: '#swagger-ui',
                deepLinking: true,
                docExpansion: "{{.DocExpansion}}",
                presets: [SwaggerUIBundle.presets.apis],
                validatorUrl: null
            });
        };
    </script>
</body>
</html>`
