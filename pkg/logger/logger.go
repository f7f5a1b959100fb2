// Package logger глобальный slog логгер сервиса и логгер запроса в context
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Log до Init ничего не пишет
var Log = slog.New(slog.NewTextHandler(io.Discard, nil))

const defaultLogFile = "logs/integration.log"

type Config struct {
	Level      string
	Format     string // json, text
	Output     string // stdout, stderr, file
	FilePath   string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // дней
	Compress   bool
}

type ctxKey struct{}

// Init JSON в stdout; для CLI и тестов
func Init(level string) {
	InitWithConfig(Config{Level: level, Format: "json", Output: "stdout"})
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func InitWithConfig(cfg Config) {
	InitWithWriter(output(cfg), cfg.Level, cfg.Format)
}

// output файл с ротацией lumberjack; если каталог не создаётся, пишем в stdout
func output(cfg Config) io.Writer {
	switch cfg.Output {
	case "stderr":
		return os.Stderr
	case "file":
		path := cfg.FilePath
		if path == "" {
			path = defaultLogFile
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return os.Stdout
		}
		return &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
	}
	return os.Stdout
}

func InitWithWriter(w io.Writer, level, format string) {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   lvl == slog.LevelDebug,
		ReplaceAttr: replaceAttr,
	}

	if format == "text" {
		Log = slog.New(slog.NewTextHandler(w, opts))
		return
	}
	Log = slog.New(slog.NewJSONHandler(w, opts))
}

// replaceAttr длительности как "1.5s" вместо наносекунд в JSON
func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindDuration {
		return slog.String(a.Key, a.Value.Duration().Round(time.Microsecond).String())
	}
	return a
}

// IntoContext кладёт в ctx логгер с дополнительными полями (request_id, procedure)
func IntoContext(ctx context.Context, args ...any) context.Context {
	return context.WithValue(ctx, ctxKey{}, FromContext(ctx).With(args...))
}

func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return Log
}

func WithContext(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}

// Fatal пишет ошибку и завершает процесс с кодом 1
func Fatal(msg string, args ...any) {
	Log.Error(msg, args...)
	os.Exit(1)
}
