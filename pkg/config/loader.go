package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix    = "MCINT_"
	configEnvVar = "CONFIG_PATH"

	defaultServiceName = "integration-service"
	defaultPort        = 8080
)

// Loader собирает Config из значений по умолчанию, yaml файла и окружения
type Loader struct {
	k           *koanf.Koanf
	configPaths []string
	configFile  string
	envPrefix   string
}

type LoaderOption func(*Loader)

func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		k:           koanf.New("."),
		configPaths: []string{"config.yaml", "config/config.yaml", "/etc/montecarlo/config.yaml"},
		envPrefix:   envPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// WithConfigPaths пути поиска необязательного файла
func WithConfigPaths(paths ...string) LoaderOption {
	return func(l *Loader) { l.configPaths = paths }
}

// WithConfigFile явный файл (флаг --config); отсутствие файла - ошибка
func WithConfigFile(path string) LoaderOption {
	return func(l *Loader) { l.configFile = path }
}

func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) { l.envPrefix = prefix }
}

// Load слои по возрастанию приоритета: defaults, файл, переменные окружения
func (l *Loader) Load() (*Config, error) {
	if err := l.k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	switch path, err := l.findConfigFile(); {
	case err != nil:
		return nil, err
	case path != "":
		if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := l.k.Load(env.ProviderWithValue(l.envPrefix, ".", l.envValue(l.knownKeys())), nil); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// findConfigFile пустой путь без ошибки: работаем на defaults и окружении
func (l *Loader) findConfigFile() (string, error) {
	if l.configFile != "" {
		if _, err := os.Stat(l.configFile); err != nil {
			return "", fmt.Errorf("config file %s: %w", l.configFile, err)
		}
		return l.configFile, nil
	}

	candidates := l.configPaths
	if p := os.Getenv(configEnvVar); p != "" {
		candidates = append([]string{p}, candidates...)
	}
	for _, p := range candidates {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if _, err := os.Stat(abs); err == nil {
			return abs, nil
		}
	}
	return "", nil
}

// knownKeys ключи из defaults по имени переменной окружения:
// "rate_limit_burst_size" -> "rate_limit.burst_size"
func (l *Loader) knownKeys() map[string]string {
	keys := l.k.Keys()
	known := make(map[string]string, len(keys))
	for _, key := range keys {
		known[strings.ReplaceAll(key, ".", "_")] = key
	}
	return known
}

func (l *Loader) envValue(known map[string]string) func(string, string) (string, any) {
	return func(envKey, value string) (string, any) {
		name := strings.ToLower(strings.TrimPrefix(envKey, l.envPrefix))
		key, ok := known[name]
		if !ok {
			key = strings.ReplaceAll(name, "_", ".")
		}
		if isSlice(l.k.Get(key)) {
			return key, splitAndTrim(value)
		}
		return key, value
	}
}

func isSlice(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Slice
}

func splitAndTrim(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaults() map[string]any {
	d := map[string]any{}
	for _, section := range []map[string]any{
		serviceDefaults(),
		storageDefaults(),
		samplingDefaults(),
	} {
		for k, v := range section {
			d[k] = v
		}
	}
	return d
}

func serviceDefaults() map[string]any {
	return map[string]any{
		"app.name":        defaultServiceName,
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.debug":       false,

		"http.port":                   defaultPort,
		"http.read_timeout":           30 * time.Second,
		"http.write_timeout":          5 * time.Minute,
		"http.shutdown_timeout":       10 * time.Second,
		"http.request_timeout":        2 * time.Minute,
		"http.cors.enabled":           true,
		"http.cors.allowed_origins":   []string{"*"},
		"http.cors.allowed_methods":   []string{"GET", "POST", "OPTIONS"},
		"http.cors.allowed_headers":   []string{"Content-Type", "Accept", "Origin", "Connect-Protocol-Version", "Connect-Timeout-Ms", "X-Request-ID"},
		"http.cors.exposed_headers":   []string{"X-Request-ID", "X-App-Error-Code", "X-App-Error-Field"},
		"http.cors.allow_credentials": false,
		"http.cors.max_age":           86400,

		"log.level":       "info",
		"log.format":      "json",
		"log.output":      "stdout",
		"log.file_path":   "",
		"log.max_size":    100,
		"log.max_backups": 3,
		"log.max_age":     7,
		"log.compress":    true,

		"metrics.enabled":   true,
		"metrics.port":      9090,
		"metrics.path":      "/metrics",
		"metrics.namespace": "montecarlo",
		"metrics.subsystem": "",

		"tracing.enabled":      false,
		"tracing.endpoint":     "localhost:4317",
		"tracing.service_name": defaultServiceName,
		"tracing.sample_rate":  0.1,

		"rate_limit.enabled":          true,
		"rate_limit.requests":         60,
		"rate_limit.window":           time.Minute,
		"rate_limit.strategy":         "sliding_window",
		"rate_limit.backend":          "memory",
		"rate_limit.burst_size":       10,
		"rate_limit.cleanup_interval": 5 * time.Minute,
		"rate_limit.redis_addr":       "",

		"swagger.enabled": true,
		"swagger.title":   "Monte Carlo Integration API",

		"client.address":     "http://localhost:8080",
		"client.timeout":     5 * time.Minute,
		"client.max_retries": 3,
		"client.protocol":    "connect",
	}
}

func storageDefaults() map[string]any {
	return map[string]any{
		"database.enabled":            false,
		"database.host":               "localhost",
		"database.port":               5432,
		"database.database":           "montecarlo",
		"database.username":           "postgres",
		"database.password":           "",
		"database.ssl_mode":           "disable",
		"database.max_open_conns":     10,
		"database.max_idle_conns":     2,
		"database.conn_max_lifetime":  5 * time.Minute,
		"database.conn_max_idle_time": 5 * time.Minute,
		"database.auto_migrate":       true,

		"cache.enabled":     true,
		"cache.driver":      "memory",
		"cache.host":        "localhost",
		"cache.port":        6379,
		"cache.password":    "",
		"cache.db":          0,
		"cache.default_ttl": time.Hour,
		"cache.max_entries": 1000,

		"report.default_format":          "markdown",
		"report.max_runs":                500,
		"report.title":                   "Monte Carlo Integration Report",
		"report.author":                  defaultServiceName,
		"report.pdf.margin_top":          15.0,
		"report.pdf.margin_left":         15.0,
		"report.pdf.margin_right":        15.0,
		"report.pdf.font_size":           10.0,
		"report.pdf.enable_page_numbers": true,
	}
}

// samplingDefaults бюджеты оценщиков: seed пустой, значит от времени
func samplingDefaults() map[string]any {
	return map[string]any{
		"sampling.seed":             []uint32{},
		"sampling.batch_size":       1000,
		"sampling.default_size":     100000,
		"sampling.max_size":         50000000,
		"sampling.max_samples":      100000000,
		"sampling.default_width":    1.0,
		"sampling.default_time":     time.Second,
		"sampling.max_time":         time.Minute,
		"sampling.points":           30,
		"sampling.pilot_size":       1000,
		"sampling.confidence_level": 0.95,
		"sampling.precision":        3,
		"sampling.reference_nodes":  2000,
	}
}

func Load() (*Config, error) {
	return NewLoader().Load()
}

// LoadWithServiceDefaults подставляет имя и порт сервиса, если они не переопределены
func LoadWithServiceDefaults(serviceName string, port int) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if cfg.HTTP.Port == defaultPort && port != 0 {
		cfg.HTTP.Port = port
	}
	if cfg.App.Name == defaultServiceName {
		cfg.App.Name = serviceName
	}
	if cfg.Tracing.ServiceName == defaultServiceName {
		cfg.Tracing.ServiceName = serviceName
	}
	return cfg, nil
}
