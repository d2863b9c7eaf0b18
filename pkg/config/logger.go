package config

import (
	"log/slog"
	"os"
	"strings"
)

// InitLogger installs a JSON slog logger as the process default and returns it
func InitLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("env", cfg.Env))
	slog.SetDefault(logger)
	return logger
}
