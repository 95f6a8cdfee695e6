// Package logging builds the zap loggers used by the command-line tools.
// Library packages take a *zap.Logger through their options and default to
// a no-op logger.
package logging

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type config struct {
	level       zapcore.Level
	development bool
	fields      map[string]any
	output      zapcore.WriteSyncer
}

// Option configures New.
type Option func(*config)

// WithLevel sets the minimum level by name ("debug", "info", "warn",
// "error"). Unknown names select info.
func WithLevel(level string) Option {
	return func(c *config) {
		c.level = ParseLevel(level)
	}
}

// WithDevelopment switches to the human-readable console encoder.
func WithDevelopment(dev bool) Option {
	return func(c *config) {
		c.development = dev
	}
}

// WithFields attaches fields to every log line.
func WithFields(fields map[string]any) Option {
	return func(c *config) {
		for k, v := range fields {
			if k == "" {
				continue
			}
			c.fields[k] = v
		}
	}
}

// WithOutput redirects log output, stderr by default.
func WithOutput(ws zapcore.WriteSyncer) Option {
	return func(c *config) {
		if ws != nil {
			c.output = ws
		}
	}
}

// ParseLevel converts a level name to a zap level.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New returns a logger writing JSON lines (or console text in development
// mode).
func New(opts ...Option) *zap.Logger {
	cfg := config{
		level:  zapcore.InfoLevel,
		fields: map[string]any{},
		output: zapcore.Lock(os.Stderr),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	var enc zapcore.Encoder
	if cfg.development {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(ec)
	} else {
		enc = zapcore.NewJSONEncoder(encoderConfig())
	}

	core := zapcore.NewCore(enc, cfg.output, zap.NewAtomicLevelAt(cfg.level))
	logger := zap.New(core, zap.AddCaller())

	if len(cfg.fields) > 0 {
		fields := make([]zap.Field, 0, len(cfg.fields))
		for k, v := range cfg.fields {
			fields = append(fields, zap.Any(k, v))
		}
		logger = logger.With(fields...)
	}
	return logger
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     encodeRFC3339NanoUTC,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func encodeRFC3339NanoUTC(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(time.RFC3339Nano))
}
