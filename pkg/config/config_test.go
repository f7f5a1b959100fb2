package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		App:  AppConfig{Name: "test-service"},
		HTTP: HTTPConfig{Port: 8080},
		Log:  LogConfig{Level: "info"},
		Sampling: SamplingConfig{
			BatchSize:       100,
			DefaultSize:     1000,
			MaxSize:         10000,
			DefaultWidth:    0.5,
			Points:          30,
			PilotSize:       100,
			ConfidenceLevel: 0.95,
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "missing app name", mutate: func(c *Config) { c.App.Name = "" }, wantErr: "app.name"},
		{name: "invalid port - zero", mutate: func(c *Config) { c.HTTP.Port = 0 }, wantErr: "http.port"},
		{name: "invalid port - too high", mutate: func(c *Config) { c.HTTP.Port = 70000 }, wantErr: "http.port"},
		{name: "invalid log level", mutate: func(c *Config) { c.Log.Level = "verbose" }, wantErr: "log.level"},
		{name: "zero batch", mutate: func(c *Config) { c.Sampling.BatchSize = 0 }, wantErr: "batch_size"},
		{name: "default above max", mutate: func(c *Config) { c.Sampling.DefaultSize = 20000 }, wantErr: "default_size"},
		{name: "non-positive width", mutate: func(c *Config) { c.Sampling.DefaultWidth = 0 }, wantErr: "default_width"},
		{name: "one point", mutate: func(c *Config) { c.Sampling.Points = 1 }, wantErr: "points"},
		{name: "tiny pilot", mutate: func(c *Config) { c.Sampling.PilotSize = 1 }, wantErr: "pilot_size"},
		{name: "confidence level 1", mutate: func(c *Config) { c.Sampling.ConfidenceLevel = 1 }, wantErr: "confidence_level"},
		{name: "bad cache driver", mutate: func(c *Config) {
			c.Cache.Enabled = true
			c.Cache.Driver = "memcached"
		}, wantErr: "cache.driver"},
		{name: "bad report format", mutate: func(c *Config) { c.Report.DefaultFormat = "docx" }, wantErr: "report.default_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_DefaultsLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Log.Level = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected log level defaulted to info, got %s", cfg.Log.Level)
	}
}

func TestConfig_Environment(t *testing.T) {
	cfg := Config{App: AppConfig{Environment: "dev"}}
	if !cfg.IsDevelopment() || cfg.IsProduction() {
		t.Error("dev should be development")
	}
	cfg.App.Environment = "production"
	if cfg.IsDevelopment() || !cfg.IsProduction() {
		t.Error("production should be production")
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, Username: "u", Password: "p", Database: "mc", SSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=mc sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestCacheConfig_Address(t *testing.T) {
	c := CacheConfig{Host: "redis", Port: 6380}
	if got := c.Address(); got != "redis:6380" {
		t.Errorf("Address() = %q", got)
	}
}
