// Package log provides the process loggers. Output goes to stderr and, when a
// file is configured, to a size-rotated log file. Each category logger tags
// its records with a "category" attribute.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Category names attached to records.
const (
	CategoryApplication = "application"
	CategoryDiscord     = "discord"
	CategoryDatabase    = "database"
	CategoryError       = "error"
)

// Config selects level, format and the rotating log file.
type Config struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Console receives a copy of every record. Nil means os.Stderr.
	Console io.Writer
}

// Logger owns the slog handler and the rotating file behind it.
type Logger struct {
	base *slog.Logger
	file *lumberjack.Logger
	once sync.Once
}

// GlobalLogger is replaced by SetupLogger. Until then it logs text to stderr.
var GlobalLogger = &Logger{base: slog.New(slog.NewTextHandler(os.Stderr, nil))}

var mu sync.RWMutex

// SetupLogger builds a logger from cfg and installs it as GlobalLogger and
// as the slog default.
func SetupLogger(cfg Config) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}
	out := console

	var file *lumberjack.Logger
	if path := strings.TrimSpace(cfg.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		file = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    positiveOr(cfg.MaxSizeMB, 10),
			MaxBackups: positiveOr(cfg.MaxBackups, 5),
			MaxAge:     positiveOr(cfg.MaxAgeDays, 28),
			Compress:   true,
		}
		out = io.MultiWriter(console, file)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "text":
		handler = slog.NewTextHandler(out, opts)
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		return nil, fmt.Errorf("invalid log format %q (want text or json)", cfg.Format)
	}

	l := &Logger{base: slog.New(handler), file: file}
	mu.Lock()
	GlobalLogger = l
	mu.Unlock()
	slog.SetDefault(l.base)
	return l, nil
}

// ParseLevel maps debug, info, warn and error to slog levels. Empty is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
}

// Sync closes the rotating file. Safe to call more than once.
func (l *Logger) Sync() error {
	if l == nil || l.file == nil {
		return nil
	}
	var err error
	l.once.Do(func() { err = l.file.Close() })
	return err
}

// Category returns a logger tagged with the given category.
func (l *Logger) Category(name string) *slog.Logger {
	return l.base.With("category", name)
}

func current() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return GlobalLogger
}

// ApplicationLogger logs lifecycle and flow events.
func ApplicationLogger() *slog.Logger { return current().Category(CategoryApplication) }

// DiscordLogger logs gateway and interaction events.
func DiscordLogger() *slog.Logger { return current().Category(CategoryDiscord) }

// DatabaseLogger logs storage events.
func DatabaseLogger() *slog.Logger { return current().Category(CategoryDatabase) }

// ErrorLoggerRaw logs failures that have no better category.
func ErrorLoggerRaw() *slog.Logger { return current().Category(CategoryError) }

func positiveOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
