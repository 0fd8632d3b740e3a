// Package logger wraps zap with context-aware task fields.
package logger

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/pkg/utils/contextkey"
)

var globalLogger *Logger

// Logger wraps a zap logger.
type Logger struct {
	zap *zap.Logger
}

// Config holds logger configuration.
type Config struct {
	Level      string `yaml:"level"`      // debug, info, warn, error
	Format     string `yaml:"format"`     // json, console
	OutputPath string `yaml:"outputPath"` // file path or "stdout"
}

// Init initializes the global logger.
func Init(cfg Config) error {
	logger, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	globalLogger = logger
	return nil
}

// NewLogger creates a logger instance.
func NewLogger(cfg Config) (*Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     rfc3339TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	outputPath := cfg.OutputPath
	if outputPath == "" {
		outputPath = "stdout"
	}

	var writeSyncer zapcore.WriteSyncer
	if outputPath == "stdout" {
		writeSyncer = zapcore.AddSync(os.Stdout)
	} else {
		file, err := os.OpenFile(outputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writeSyncer = zapcore.AddSync(file)
	}

	core := zapcore.NewCore(encoder, writeSyncer, level)
	zapLogger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	return &Logger{zap: zapLogger}, nil
}

func rfc3339TimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format(time.RFC3339))
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// WithContext returns a zap logger enriched with fields from the context.
func (l *Logger) WithContext(ctx context.Context) *zap.Logger {
	return l.zap.With(fieldsFromContext(ctx)...)
}

func fieldsFromContext(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if taskID, ok := contextkey.TaskID(ctx); ok {
		fields = append(fields, zap.String("task_id", taskID))
	}
	return fields
}

func global() *Logger {
	if globalLogger == nil {
		// Fall back to a default console logger so callers never nil-deref.
		logger, err := NewLogger(Config{})
		if err != nil {
			panic(err)
		}
		globalLogger = logger
	}
	return globalLogger
}

// Debug logs a debug message with context fields.
func Debug(ctx context.Context, msg string, fields ...zap.Field) {
	global().WithContext(ctx).Debug(msg, fields...)
}

// Info logs an info message with context fields.
func Info(ctx context.Context, msg string, fields ...zap.Field) {
	global().WithContext(ctx).Info(msg, fields...)
}

// Warn logs a warning with context fields.
func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	global().WithContext(ctx).Warn(msg, fields...)
}

// Error logs an error with context fields.
func Error(ctx context.Context, msg string, fields ...zap.Field) {
	global().WithContext(ctx).Error(msg, fields...)
}
