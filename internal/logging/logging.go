// Package logging wires the process-wide zap logger.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process logger. It starts as a console logger at info level
// and is replaced by Initialize once configuration is loaded.
var Logger = mustBuild(DefaultConfig())

// Config selects level, encoding and destination
type Config struct {
	Level string `json:"level" envconfig:"LEVEL"`

	// Format is json or console
	Format string `json:"format" envconfig:"FORMAT"`

	// Output is stdout, stderr or a file path opened for append
	Output string `json:"output" envconfig:"OUTPUT"`

	// Development adds stack traces to errors and panics on DPanic
	Development bool `json:"development" envconfig:"DEVELOPMENT"`
}

func DefaultConfig() Config {
	return Config{Level: "info", Format: "console", Output: "stderr"}
}

func sink(output string) (zapcore.WriteSyncer, error) {
	switch output {
	case "", "stderr":
		return zapcore.Lock(os.Stderr), nil
	case "stdout":
		return zapcore.Lock(os.Stdout), nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log output: %w", err)
	}
	return zapcore.AddSync(f), nil
}

// Build creates a logger without installing it. An unparseable level falls
// back to info; config validation reports it separately.
func Build(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(enc)
	} else {
		encoder = zapcore.NewJSONEncoder(enc)
	}

	ws, err := sink(cfg.Output)
	if err != nil {
		return nil, err
	}

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return zap.New(zapcore.NewCore(encoder, ws, level), opts...), nil
}

func mustBuild(cfg Config) *zap.Logger {
	l, err := Build(cfg)
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// Initialize builds a logger from cfg and installs it
func Initialize(cfg Config) error {
	l, err := Build(cfg)
	if err != nil {
		return err
	}
	SetLogger(l)
	return nil
}

// SetLogger installs l as the process logger and returns the previous one
func SetLogger(l *zap.Logger) *zap.Logger {
	prev := Logger
	Logger = l
	return prev
}

func Sync() { _ = Logger.Sync() }

// Named returns a child logger tagged with a component name
func Named(component string) *zap.Logger { return Logger.Named(component) }

func Info(msg string, fields ...zap.Field)  { Logger.Info(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { Logger.Fatal(msg, fields...) }
