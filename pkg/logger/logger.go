package logger

import (
	"fmt"
	"log"
	"runtime/debug"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Logger *zap.SugaredLogger

// Options selects the zap preset and where log lines go.
type Options struct {
	Dev bool
	// Level is a zap level name; empty keeps the preset's level.
	Level string
	// Output lists zap sink paths; empty keeps stderr.
	Output []string
}

// Configure builds the package logger from the development or production
// preset adjusted by opts.
func Configure(opts Options) error {
	cfg := zap.NewProductionConfig()
	if opts.Dev {
		cfg = zap.NewDevelopmentConfig()
	}

	if opts.Level != "" {
		level, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}
	if len(opts.Output) > 0 {
		cfg.OutputPaths = opts.Output
	}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	Logger = l.Named("tablespec").Sugar()
	Debug("Logger initialized (dev=%t)", opts.Dev)
	return nil
}

// SetLogger swaps the package logger, mostly for tests using zaptest.
func SetLogger(l *zap.Logger) {
	if l == nil {
		Logger = nil
		return
	}
	Logger = l.Sugar()
}

// Sync flushes buffered entries.
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

func logf(level zapcore.Level, template string, args ...interface{}) {
	if Logger == nil {
		log.Printf("%s: "+template, append([]interface{}{level.CapitalString()}, args...)...)
		return
	}
	Logger.Logf(level, template, args...)
}

func Info(template string, args ...interface{}) {
	logf(zapcore.InfoLevel, template, args...)
}

func Warn(template string, args ...interface{}) {
	logf(zapcore.WarnLevel, template, args...)
}

func Error(template string, args ...interface{}) {
	logf(zapcore.ErrorLevel, template, args...)
}

func Debug(template string, args ...interface{}) {
	logf(zapcore.DebugLevel, template, args...)
}

// CatchPanic recovers a panic in the calling goroutine and logs it with a stack trace.
// Use as: defer logger.CatchPanic("worker")
func CatchPanic(location string) {
	if err := recover(); err != nil {
		Error("Panic in %s: %v\nStack trace:\n%s", location, err, string(debug.Stack()))
	}
}
