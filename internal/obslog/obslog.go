// Package obslog is the storage engine's structured-logging entry
// point: a package-level *slog.Logger set once via Init, with a
// fallback default for callers that never call Init (tests).
//
// Grounded on KartikBazzad-bunbase/pkg/logger, the only logging
// approach anywhere in the retrieved example pack: a sync.Once-guarded
// package-level logger over log/slog, no third-party logging library.
package obslog

import (
	"log/slog"
	"os"
	"sync"
)

var (
	once   sync.Once
	logger *slog.Logger
)

// Config selects the handler Init installs.
type Config struct {
	Level  slog.Level
	Format string // "json" or "text"
}

// Init installs the global logger. Only the first call in a process
// takes effect, matching bunbase's logger.Init.
func Init(cfg Config) {
	once.Do(func() {
		logger = newLogger(cfg)
	})
}

// Get returns the global logger, installing a sane default on first
// use if Init was never called.
func Get() *slog.Logger {
	once.Do(func() {
		logger = newLogger(Config{Level: slog.LevelInfo, Format: "text"})
	})
	return logger
}

func newLogger(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
