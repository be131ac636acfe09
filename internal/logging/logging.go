// Package logging builds the zap loggers used by the command line tool and the
// MCP server.
//
// Console output goes to stderr in zap's console format. When a log file is
// configured, entries are also written to it as JSON through a rotating
// lumberjack writer.
package logging

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelEnvVar overrides the console level when set, e.g. COLORVAR_LOG_LEVEL=debug.
const LevelEnvVar = "COLORVAR_LOG_LEVEL"

// Rotation defaults for the log file.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 28
)

// Options configures New.
type Options struct {
	// Verbose enables debug level.
	Verbose bool

	// Level is used when Verbose is false and LevelEnvVar is unset.
	Level zapcore.Level

	// LogFile is an optional path for a JSON log file. Empty disables it.
	LogFile string

	// Console is the console destination. Nil means os.Stderr.
	Console io.Writer
}

// New returns a logger for opts. Callers should defer Sync.
func New(opts Options) *zap.Logger {
	level := opts.Level
	if v := os.Getenv(LevelEnvVar); v != "" {
		level = ParseLevel(v, level)
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig()), zapcore.AddSync(console), level),
	}
	if opts.LogFile != "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			NewFileWriter(opts.LogFile),
			zapcore.DebugLevel,
		))
	}
	return zap.New(zapcore.NewTee(cores...))
}

// NewFileWriter returns a rotating writer for path.
func NewFileWriter(path string) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAge:     DefaultMaxAgeDays,
	})
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	return cfg
}

// ParseLevel parses debug, info, warn/warning or error, case-insensitively.
// Anything else yields def.
func ParseLevel(s string, def zapcore.Level) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return def
	}
}
