package monitoring

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	// Allow time for lumberjack file handles to be released
	t.Cleanup(func() {
		time.Sleep(100 * time.Millisecond)
	})

	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "test.log")

	cfg := &LogConfig{
		Level:      "info",
		Format:     "json",
		Output:     "file",
		FilePath:   logPath,
		MaxSizeMB:  10,
		MaxBackups: 2,
		MaxAgeDays: 7,
		Compress:   false,
	}

	logger, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.Info("test message", zap.String("url", "https://open.spotify.com/track/abc"))
	logger.Sync()

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Errorf("Log file was not created: %s", logPath)
	}
}

func TestNewLoggerConsole(t *testing.T) {
	cfg := &LogConfig{
		Level:  "debug",
		Format: "console",
		Output: "console",
	}

	logger, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("Failed to create console logger: %v", err)
	}
	defer logger.Sync()

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
}

func TestNewLoggerBothOutputs(t *testing.T) {
	t.Cleanup(func() {
		time.Sleep(100 * time.Millisecond)
	})

	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "test.log")

	cfg := &LogConfig{
		Level:      "info",
		Format:     "console",
		Output:     "both",
		FilePath:   logPath,
		MaxSizeMB:  10,
		MaxBackups: 2,
		MaxAgeDays: 7,
		Compress:   false,
	}

	logger, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.Info("test message to both outputs")
	logger.Sync()

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Errorf("Log file was not created: %s", logPath)
	}
}

func TestNewDevelopmentLogger(t *testing.T) {
	logger, err := NewDevelopmentLogger()
	if err != nil {
		t.Fatalf("Failed to create development logger: %v", err)
	}
	defer logger.Sync()

	logger.Debug("development debug message")
	logger.Info("development info message")
}

func TestNewProductionLogger(t *testing.T) {
	t.Cleanup(func() {
		time.Sleep(100 * time.Millisecond)
	})

	tempDir := t.TempDir()

	logger, err := NewProductionLogger(tempDir)
	if err != nil {
		t.Fatalf("Failed to create production logger: %v", err)
	}

	logger.Info("production info message")
	logger.Sync()
}

func TestInvalidLogLevel(t *testing.T) {
	cfg := &LogConfig{
		Level:  "invalid",
		Format: "json",
		Output: "console",
	}

	_, err := NewLogger(cfg)
	if err == nil {
		t.Error("Expected error for invalid log level, got nil")
	}
}
