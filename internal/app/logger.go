package app

import (
	"strings"

	"github.com/charlesng35/autodetail/pkg/logger"
)

// ConfigureLogging initialises the global logger with the provided level, defaulting to info.
func ConfigureLogging(level string) error {
	level = strings.TrimSpace(level)
	if level == "" {
		level = "info"
	}
	return logger.Init(level)
}

// ConfigureServerLogging initialises the global logger from the server section.
// Production always logs JSON; a log file enables rotation alongside stdout.
func ConfigureServerLogging(cfg ServerConfig) error {
	level := strings.TrimSpace(cfg.LogLevel)
	if level == "" {
		level = "info"
	}
	return logger.InitWithOptions(logger.Options{
		Level: level,
		JSON:  cfg.Log.JSON || cfg.IsProduction(),
		File: logger.FileOptions{
			Path:       strings.TrimSpace(cfg.Log.File),
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   true,
		},
	})
}
