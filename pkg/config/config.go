// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Config конфигурация integration-svc и mcbench
type Config struct {
	App       AppConfig       `koanf:"app"`
	HTTP      HTTPConfig      `koanf:"http"`
	Log       LogConfig       `koanf:"log"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Tracing   TracingConfig   `koanf:"tracing"`
	Database  DatabaseConfig  `koanf:"database"`
	Cache     CacheConfig     `koanf:"cache"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Swagger   SwaggerConfig   `koanf:"swagger"`
	Sampling  SamplingConfig  `koanf:"sampling"`
	Report    ReportConfig    `koanf:"report"`
	Client    ClientConfig    `koanf:"client"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// HTTPConfig connect API; RequestTimeout ограничивает один RPC
type HTTPConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	CORS            CORSConfig    `koanf:"cors"`
}

type CORSConfig struct {
	Enabled          bool     `koanf:"enabled"`
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	ExposedHeaders   []string `koanf:"exposed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level      string `koanf:"level"`       // debug, info, warn, error
	Format     string `koanf:"format"`      // json, text
	Output     string `koanf:"output"`      // stdout, stderr, file
	FilePath   string `koanf:"file_path"`   // путь к файлу логов
	MaxSize    int    `koanf:"max_size"`    // MB
	MaxBackups int    `koanf:"max_backups"` // количество бэкапов
	MaxAge     int    `koanf:"max_age"`     // дней
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig Port 0 или равный HTTP.Port: /metrics на основном mux
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// DatabaseConfig PostgreSQL для истории прогонов
type DatabaseConfig struct {
	Enabled         bool          `koanf:"enabled"` // false - история в памяти
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Database        string        `koanf:"database"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.Username, d.Password, d.Database, d.SSLMode,
	)
}

// CacheConfig кэш результатов с фиксированным seed
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Driver     string        `koanf:"driver"` // redis, memory
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	MaxEntries int           `koanf:"max_entries"` // для in-memory
}

func (c CacheConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RateLimitConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Requests        int           `koanf:"requests"`
	Window          time.Duration `koanf:"window"`
	Strategy        string        `koanf:"strategy"`
	Backend         string        `koanf:"backend"`
	BurstSize       int           `koanf:"burst_size"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	RedisAddr       string        `koanf:"redis_addr"`
}

type SwaggerConfig struct {
	Enabled bool   `koanf:"enabled"`
	Title   string `koanf:"title"`
}

// SamplingConfig параметры оценщиков по умолчанию и лимиты
type SamplingConfig struct {
	Seed            []uint32      `koanf:"seed"`             // пустой - seed от времени
	BatchSize       uint64        `koanf:"batch_size"`       // шаг для адаптивных политик
	DefaultSize     uint64        `koanf:"default_size"`     // N для политики size
	MaxSize         uint64        `koanf:"max_size"`         // верхняя граница N в запросе
	MaxSamples      uint64        `koanf:"max_samples"`      // предохранитель для max_width
	DefaultWidth    float64       `koanf:"default_width"`    // целевая ширина CI
	DefaultTime     time.Duration `koanf:"default_time"`     // бюджет для max_time
	MaxTime         time.Duration `koanf:"max_time"`         // верхняя граница бюджета
	Points          int           `koanf:"points"`           // точек кусочно-линейной аппроксимации
	PilotSize       int           `koanf:"pilot_size"`       // M для метода контрольной переменной
	ConfidenceLevel float64       `koanf:"confidence_level"` // 0.95 -> z = 1.96
	Precision       uint          `koanf:"precision"`        // знаков в CI.String()
	ReferenceNodes  int           `koanf:"reference_nodes"`  // узлов квадратуры для эталона
}

// ReportConfig конфигурация отчётов
type ReportConfig struct {
	DefaultFormat string `koanf:"default_format"` // csv, json, markdown, excel, pdf
	MaxRuns       int    `koanf:"max_runs"`       // максимум прогонов в одном отчёте
	Title         string `koanf:"title"`
	Author        string `koanf:"author"`

	PDF PDFConfig `koanf:"pdf"`
}

// PDFConfig конфигурация PDF генератора
type PDFConfig struct {
	MarginTop         float64 `koanf:"margin_top"`   // mm
	MarginLeft        float64 `koanf:"margin_left"`  // mm
	MarginRight       float64 `koanf:"margin_right"` // mm
	FontSize          float64 `koanf:"font_size"`    // pt
	EnablePageNumbers bool    `koanf:"enable_page_numbers"`
}

// ClientConfig настройки клиента к integration-svc
type ClientConfig struct {
	Address    string        `koanf:"address"`
	Timeout    time.Duration `koanf:"timeout"`
	MaxRetries int           `koanf:"max_retries"`
	Protocol   string        `koanf:"protocol"` // connect, grpc
}

var (
	logLevels    = []string{"debug", "info", "warn", "error"}
	cacheDrivers = []string{"memory", "redis"}
	reportKinds  = []string{"csv", "json", "markdown", "excel", "pdf"}
)

// Validate собирает все нарушения сразу; пустой log.level становится info
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.App.Name == "" {
		fail("app.name is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		fail("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		fail("log.level must be one of %v, got %s", logLevels, c.Log.Level)
	}
	if c.Cache.Enabled && !slices.Contains(cacheDrivers, c.Cache.Driver) {
		fail("cache.driver must be one of %v, got %s", cacheDrivers, c.Cache.Driver)
	}
	if f := c.Report.DefaultFormat; f != "" && !slices.Contains(reportKinds, f) {
		fail("report.default_format must be one of %v, got %s", reportKinds, f)
	}

	s := c.Sampling
	switch {
	case s.BatchSize == 0:
		fail("sampling.batch_size must be positive")
	case s.MaxSize != 0 && s.DefaultSize > s.MaxSize:
		fail("sampling.default_size (%d) exceeds sampling.max_size (%d)", s.DefaultSize, s.MaxSize)
	}
	if s.DefaultWidth <= 0 {
		fail("sampling.default_width must be positive")
	}
	if s.Points < 2 {
		fail("sampling.points must be at least 2, got %d", s.Points)
	}
	if s.PilotSize < 2 {
		fail("sampling.pilot_size must be at least 2, got %d", s.PilotSize)
	}
	if s.ConfidenceLevel <= 0 || s.ConfidenceLevel >= 1 {
		fail("sampling.confidence_level must be in (0, 1), got %g", s.ConfidenceLevel)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
