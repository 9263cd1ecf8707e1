package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps logrus.Logger with correlation-ID tracking and component
// identification, so every log line in camrig can be traced back to both
// the subsystem that emitted it and the batch/request that caused it.
type Logger struct {
	*logrus.Logger
	correlationID string
	component     string
	mu            sync.RWMutex
}

// LoggingConfig mirrors config.LoggingConfig; duplicated here (rather than
// imported) to avoid an import cycle between config and logging, the same
// tradeoff the teacher makes between its config and logging packages.
type LoggingConfig struct {
	Level          string `mapstructure:"level"`
	Format         string `mapstructure:"format"`
	FileEnabled    bool   `mapstructure:"file_enabled"`
	FilePath       string `mapstructure:"file_path"`
	MaxFileSize    int    `mapstructure:"max_file_size"` // bytes
	BackupCount    int    `mapstructure:"backup_count"`
	ConsoleEnabled bool   `mapstructure:"console_enabled"`
}

// CorrelationIDKey is the context key correlation IDs are stored under.
const CorrelationIDKey = "correlation_id"

// SetupLogging configures the global logger factory and the global logger
// from a fully resolved LoggingConfig, modeled on the teacher's
// SetupLogging (internal/logging/logger.go).
func SetupLogging(config *LoggingConfig) error {
	ConfigureFactory(config)

	logger := GetLogger("camrig")

	level, err := logrus.ParseLevel(strings.ToLower(config.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if config.ConsoleEnabled {
		logger.SetOutput(os.Stdout)
		logger.SetFormatter(createConsoleFormatter(config.Format))
	}

	if config.FileEnabled && config.FilePath != "" {
		if err := setupFileHandler(logger, config); err != nil {
			return fmt.Errorf("setting up file handler: %w", err)
		}
	}

	return nil
}

func setupFileHandler(logger *Logger, config *LoggingConfig) error {
	logDir := filepath.Dir(config.FilePath)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	fileHandler := &lumberjack.Logger{
		Filename:   config.FilePath,
		MaxSize:    config.MaxFileSize / (1024 * 1024),
		MaxBackups: config.BackupCount,
		MaxAge:     30,
		Compress:   true,
	}

	logger.SetOutput(fileHandler)
	logger.SetFormatter(createFileFormatter(config.Format))
	return nil
}

func createConsoleFormatter(format string) logrus.Formatter {
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		ForceColors:     true,
	}
}

func createFileFormatter(format string) logrus.Formatter {
	if strings.Contains(strings.ToLower(format), "json") {
		return &logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05"}
	}
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   true,
	}
}

// WithCorrelationID returns a new logger sharing the underlying
// logrus.Logger but tagged with the given correlation ID.
func (l *Logger) WithCorrelationID(id string) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &Logger{
		Logger:        l.Logger,
		correlationID: id,
		component:     l.component,
	}
}

// WithField returns a new logger with one structured field attached.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		Logger:        l.Logger.WithField(key, value).Logger,
		correlationID: l.correlationID,
		component:     l.component,
	}
}

// WithError returns a new logger with an error field attached.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger:        l.Logger.WithError(err).Logger,
		correlationID: l.correlationID,
		component:     l.component,
	}
}

// Fields is a type alias for logrus.Fields for a cleaner call-site API.
type Fields = logrus.Fields

// WithFields returns a new logger with multiple structured fields attached.
func (l *Logger) WithFields(fields Fields) *Logger {
	return &Logger{
		Logger:        l.Logger.WithFields(fields).Logger,
		correlationID: l.correlationID,
		component:     l.component,
	}
}

// LogWithContext logs msg at level, attaching the logger's component and
// any correlation ID found on the logger itself or in ctx.
func (l *Logger) LogWithContext(ctx context.Context, level logrus.Level, msg string) {
	entry := l.Logger.WithField("component", l.component)

	if l.correlationID != "" {
		entry = entry.WithField("correlation_id", l.correlationID)
	} else if id := GetCorrelationIDFromContext(ctx); id != "" {
		entry = entry.WithField("correlation_id", id)
	}

	entry.Log(level, msg)
}

// GenerateCorrelationID returns a new v4 UUID string for request/batch
// tracing.
func GenerateCorrelationID() string {
	return uuid.New().String()
}

// GetCorrelationIDFromContext extracts a correlation ID from ctx, or ""
// if none is set.
func GetCorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// WithCorrelationID returns a child context carrying the given
// correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

func (l *Logger) DebugWithContext(ctx context.Context, msg string) { l.LogWithContext(ctx, logrus.DebugLevel, msg) }
func (l *Logger) InfoWithContext(ctx context.Context, msg string)  { l.LogWithContext(ctx, logrus.InfoLevel, msg) }
func (l *Logger) WarnWithContext(ctx context.Context, msg string)  { l.LogWithContext(ctx, logrus.WarnLevel, msg) }
func (l *Logger) ErrorWithContext(ctx context.Context, msg string) { l.LogWithContext(ctx, logrus.ErrorLevel, msg) }
