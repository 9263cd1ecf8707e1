package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// TestLoggerConfig represents a test logger configuration
type TestLoggerConfig struct {
	Component     string
	Level         logrus.Level
	Format        string
	ConsoleOutput bool
	FileOutput    bool
	FilePath      string
}

// TestFixture represents a test fixture with predefined values
type TestFixture struct {
	CorrelationID string
	Component     string
	Message       string
	Level         logrus.Level
	Fields        map[string]interface{}
}

// DefaultTestConfig returns a default test configuration
func DefaultTestConfig() *TestLoggerConfig {
	return &TestLoggerConfig{
		Component:     "test-component",
		Level:         logrus.InfoLevel,
		Format:        "text",
		ConsoleOutput: true,
		FileOutput:    false,
		FilePath:      "",
	}
}

// CreateTestLogger creates a logger for testing with the given configuration
func CreateTestLogger(t *testing.T, config *TestLoggerConfig) *Logger {
	t.Helper()

	if config == nil {
		config = DefaultTestConfig()
	}

	// Use the factory to get a logger with consistent configuration
	logger := GetLogger(config.Component)
	logger.SetLevel(config.Level)

	return logger
}

// CreateTestContext creates a test context with optional correlation ID
func CreateTestContext(correlationID string) context.Context {
	if correlationID == "" {
		return context.Background()
	}
	return WithCorrelationID(context.Background(), correlationID)
}

// CreateTestFixtures creates a set of test fixtures for different scenarios
func CreateTestFixtures() []TestFixture {
	return []TestFixture{
		{
			CorrelationID: "11111111-1111-1111-1111-111111111111",
			Component:     "device",
			Message:       "device open started",
			Level:         logrus.InfoLevel,
			Fields: map[string]interface{}{
				"device": "cam-a",
				"action": "open",
			},
		},
		{
			CorrelationID: "22222222-2222-2222-2222-222222222222",
			Component:     "capture",
			Message:       "batch shutter released",
			Level:         logrus.DebugLevel,
			Fields: map[string]interface{}{
				"batch_size": 4,
			},
		},
		{
			CorrelationID: "33333333-3333-3333-3333-333333333333",
			Component:     "sink",
			Message:       "frame written",
			Level:         logrus.InfoLevel,
			Fields: map[string]interface{}{
				"path": "/var/lib/camrig/captures/cam-a_20260101_000000.jpg",
			},
		},
		{
			CorrelationID: "44444444-4444-4444-4444-444444444444",
			Component:     "timesync",
			Message:       "time sync verification completed",
			Level:         logrus.InfoLevel,
			Fields: map[string]interface{}{
				"devices":    3,
				"tolerance":  "5s",
				"within_tol": true,
			},
		},
	}
}

// CreateTestLoggingConfig creates a test logging configuration
func CreateTestLoggingConfig(level, format string, consoleEnabled, fileEnabled bool, filePath string) *LoggingConfig {
	return &LoggingConfig{
		Level:          level,
		Format:         format,
		ConsoleEnabled: consoleEnabled,
		FileEnabled:    fileEnabled,
		FilePath:       filePath,
		MaxFileSize:    10,
		BackupCount:    3,
	}
}

// CreateTempLogFile creates a temporary log file for testing
func CreateTempLogFile(t *testing.T) string {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "logging_test")
	require.NoError(t, err)

	t.Cleanup(func() {
		os.RemoveAll(tempDir)
	})

	logFilePath := filepath.Join(tempDir, "test.log")

	// Create the actual log file
	file, err := os.Create(logFilePath)
	require.NoError(t, err)
	file.Close()

	return logFilePath
}

// TestLogLevels returns all available log levels for testing
func TestLogLevels() []logrus.Level {
	return []logrus.Level{
		logrus.TraceLevel,
		logrus.DebugLevel,
		logrus.InfoLevel,
		logrus.WarnLevel,
		logrus.ErrorLevel,
		logrus.FatalLevel,
	}
}

// TestFormats returns all available log formats for testing
func TestFormats() []string {
	return []string{"text", "json", ""}
}

// TestComponents returns common component names for testing
func TestComponents() []string {
	return []string{"auth", "database", "api", "camera", "storage", "cache"}
}

// AssertLoggerBasicProperties asserts basic logger properties
func AssertLoggerBasicProperties(t *testing.T, logger *Logger, expectedComponent string) {
	t.Helper()

	require.NotNil(t, logger)
	require.NotNil(t, logger.Logger)
	require.Equal(t, expectedComponent, logger.component)
}

// AssertCorrelationIDInContext asserts that correlation ID is properly set in context
func AssertCorrelationIDInContext(t *testing.T, ctx context.Context, expectedID string) {
	t.Helper()

	if expectedID == "" {
		require.Empty(t, GetCorrelationIDFromContext(ctx))
	} else {
		require.Equal(t, expectedID, GetCorrelationIDFromContext(ctx))
	}
}
