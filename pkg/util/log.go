package util

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func encoderConfig() zapcore.EncoderConfig {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return encoderCfg
}

func level(verbose bool) zapcore.Level {
	if verbose {
		return zap.DebugLevel
	}
	return zap.InfoLevel
}

func NewLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level(verbose))
	cfg.EncoderConfig = encoderConfig()
	return cfg.Build()
}

// NewLoggerFor picks NewLogger when logPath is empty. A quiet logger with
// no file discards everything.
func NewLoggerFor(logPath string, verbose, quiet bool) (*zap.Logger, error) {
	switch {
	case logPath != "":
		return NewLoggerWithFile(logPath, verbose, quiet)
	case quiet:
		return zap.NewNop(), nil
	default:
		return NewLogger(verbose)
	}
}

// NewLoggerWithFile creates a logger that writes to both stderr and a file.
// The CLI passes quiet=true so only the file receives entries and the
// terminal stays readable.
func NewLoggerWithFile(logPath string, verbose, quiet bool) (*zap.Logger, error) {
	dir := filepath.Dir(logPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	lvl := level(verbose)
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(file), lvl)
	if quiet {
		return zap.New(fileCore), nil
	}

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.Lock(os.Stderr), lvl),
		fileCore,
	)
	return zap.New(core), nil
}
