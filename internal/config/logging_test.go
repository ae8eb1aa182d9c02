package config_test

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/paylink/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		expected config.LogLevel
	}{
		{"off", config.LogLevelOff},
		{"OFF", config.LogLevelOff},
		{"none", config.LogLevelOff},
		{"error", config.LogLevelError},
		{"DEBUG", config.LogLevelDebug},
		{"  debug  ", config.LogLevelDebug},
		{"warn", config.LogLevelError},
		{"", config.LogLevelError},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, config.ParseLogLevel(tt.input))
		})
	}
}

func TestLogLevel_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "off", config.LogLevelOff.String())
	assert.Equal(t, "error", config.LogLevelError.String())
	assert.Equal(t, "debug", config.LogLevelDebug.String())
	assert.Equal(t, "error", config.LogLevel(99).String())
}

func TestNewLogger_LevelOffCreatesNoFile(t *testing.T) {
	t.Parallel()
	logPath := filepath.Join(t.TempDir(), "test.log")

	logger, err := config.NewLogger(config.LogLevelOff, logPath)
	require.NoError(t, err)
	logger.Error("never written")
	logger.ErrorAttrs("never written", slog.String("key", "value"))
	require.NoError(t, logger.Close())

	_, err = os.Stat(logPath)
	assert.True(t, os.IsNotExist(err))
}

func TestNewLogger_CreatesDirectory(t *testing.T) {
	t.Parallel()
	logPath := filepath.Join(t.TempDir(), "nested", "logs", "paylink.log")

	logger, err := config.NewLogger(config.LogLevelError, logPath)
	require.NoError(t, err)
	defer func() { _ = logger.Close() }()

	_, err = os.Stat(filepath.Dir(logPath))
	assert.NoError(t, err)
}

func TestNewLogger_InvalidPath(t *testing.T) {
	t.Parallel()
	_, err := config.NewLogger(config.LogLevelDebug, "/proc/nonexistent/test.log")
	assert.Error(t, err)
}

func TestNullLogger(t *testing.T) {
	t.Parallel()
	logger := config.NullLogger()

	assert.Equal(t, config.LogLevelOff, logger.Level())
	assert.Nil(t, logger.Structured())

	// None of these should panic
	logger.Debug("debug")
	logger.Error("error")
	logger.DebugAttrs("debug", slog.String("k", "v"))
	logger.ErrorAttrs("error", slog.String("k", "v"))
	assert.NoError(t, logger.Close())
}

func TestLogger_LevelFiltering(t *testing.T) {
	t.Parallel()
	logPath := filepath.Join(t.TempDir(), "test.log")

	logger, err := config.NewLogger(config.LogLevelError, logPath)
	require.NoError(t, err)
	defer func() { _ = logger.Close() }()

	logger.Debug("hidden debug %d", 1)
	logger.Error("visible error %s", "phoenix")

	content := string(readLogFile(t, logPath))
	assert.NotContains(t, content, "hidden debug")
	assert.Contains(t, content, "[ERROR] visible error phoenix")

	logger.SetLevel(config.LogLevelDebug)
	logger.Debug("now visible")
	assert.Contains(t, string(readLogFile(t, logPath)), "[DEBUG] now visible")
}

func TestLogger_Writer(t *testing.T) {
	t.Parallel()
	logPath := filepath.Join(t.TempDir(), "test.log")

	logger, err := config.NewLogger(config.LogLevelDebug, logPath)
	require.NoError(t, err)
	defer func() { _ = logger.Close() }()

	writer := logger.Writer(config.LogLevelDebug)
	require.Implements(t, (*io.Writer)(nil), writer)

	_, err = io.Copy(writer, bytes.NewBufferString("copied via io\n"))
	require.NoError(t, err)

	assert.Contains(t, string(readLogFile(t, logPath)), "copied via io")
}

func TestLogger_DebugAttrs(t *testing.T) {
	t.Parallel()
	logPath := filepath.Join(t.TempDir(), "test.log")

	logger, err := config.NewLogger(config.LogLevelDebug, logPath)
	require.NoError(t, err)
	defer func() { _ = logger.Close() }()

	logger.DebugAttrs("callback fetched",
		slog.String("wallet", "bitbanana"),
		slog.Int("status", 200),
	)

	content := string(readLogFile(t, logPath))
	assert.Contains(t, content, "callback fetched")
	assert.Contains(t, content, "wallet=bitbanana")
	assert.Contains(t, content, "status=200")
}

func TestLogger_DebugAttrs_LevelFiltering(t *testing.T) {
	t.Parallel()
	logPath := filepath.Join(t.TempDir(), "test.log")

	logger, err := config.NewLogger(config.LogLevelError, logPath)
	require.NoError(t, err)
	defer func() { _ = logger.Close() }()

	logger.DebugAttrs("debug attrs", slog.String("key", "value"))
	logger.ErrorAttrs("error attrs", slog.Bool("fatal", true))

	content := string(readLogFile(t, logPath))
	assert.NotContains(t, content, "debug attrs")
	assert.Contains(t, content, "error attrs")
	assert.Contains(t, content, "fatal=true")
}

func TestNewStructuredLogger(t *testing.T) {
	t.Parallel()
	logPath := filepath.Join(t.TempDir(), "test.log")

	logger, err := config.NewStructuredLogger(config.LogLevelDebug, logPath)
	require.NoError(t, err)
	defer func() { _ = logger.Close() }()

	slogger := logger.Structured()
	require.NotNil(t, slogger)
	slogger.Info("json structured message", "key", "value")

	content := string(readLogFile(t, logPath))
	assert.Contains(t, content, `"msg":"json structured message"`)
	assert.Contains(t, content, `"key":"value"`)
}

func TestLogger_SetJSONOutput_BackToText(t *testing.T) {
	t.Parallel()
	logPath := filepath.Join(t.TempDir(), "test.log")

	logger, err := config.NewStructuredLogger(config.LogLevelDebug, logPath)
	require.NoError(t, err)
	defer func() { _ = logger.Close() }()

	logger.SetJSONOutput(false)
	logger.Structured().Info("text again", "key", "value")

	content := string(readLogFile(t, logPath))
	assert.Contains(t, content, "key=value")
	assert.NotContains(t, content, "{")
}

func TestLogger_LogFormat(t *testing.T) {
	t.Parallel()
	logPath := filepath.Join(t.TempDir(), "test.log")

	logger, err := config.NewLogger(config.LogLevelDebug, logPath)
	require.NoError(t, err)
	defer func() { _ = logger.Close() }()

	logger.Debug("test message")

	lines := strings.Split(strings.TrimSpace(string(readLogFile(t, logPath))), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "[DEBUG] test message")
}

func TestLogger_Concurrent(t *testing.T) {
	t.Parallel()
	logPath := filepath.Join(t.TempDir(), "test.log")

	logger, err := config.NewLogger(config.LogLevelDebug, logPath)
	require.NoError(t, err)
	defer func() { _ = logger.Close() }()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.Debug("message %d", n)
			logger.ErrorAttrs("error", slog.Int("n", n))
			_ = logger.Level()
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(string(readLogFile(t, logPath))), "\n")
	assert.Len(t, lines, 20)
}

// readLogFile is a test helper that reads a log file.
// #nosec G304 -- test helper with controlled paths from t.TempDir()
func readLogFile(t *testing.T, path string) []byte {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return content
}

func TestNewConsoleLogger(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	logger := config.NewConsoleLogger(&buf, config.LogLevelError, true)
	logger.Info("server started", "listen", "127.0.0.1:8402")
	logger.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "server started")
	assert.Contains(t, out, "listen=127.0.0.1:8402")
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "\x1b[")
}

func TestNewConsoleLogger_Debug(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	config.NewConsoleLogger(&buf, config.LogLevelDebug, true).Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}
