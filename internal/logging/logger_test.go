package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initTestLogger(t *testing.T, level LogLevel, withFile bool) (*bytes.Buffer, string) {
	t.Helper()
	var console bytes.Buffer
	cfg := Config{Level: level, Console: &console}
	path := ""
	if withFile {
		path = filepath.Join(t.TempDir(), "logs", "test.log")
		cfg.FilePath = path
	}
	require.NoError(t, Init(cfg))
	t.Cleanup(func() {
		require.NoError(t, Init(Config{Level: INFO}))
	})
	return &console, path
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"trace":   TRACE,
		"DEBUG":   DEBUG,
		"":        INFO,
		" info ":  INFO,
		"warning": WARN,
		"Error":   ERROR,
	}
	for name, want := range tests {
		got, err := ParseLevel(name)
		assert.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestLogger_ConsoleLevelFilter(t *testing.T) {
	console, _ := initTestLogger(t, INFO, false)

	Debug("скрытое сообщение")
	Info("видимое %d", 1)
	Error("ошибка %s", "x")

	out := console.String()
	assert.NotContains(t, out, "скрытое")
	assert.Contains(t, out, "[INFO] видимое 1")
	assert.Contains(t, out, "[ERROR] ошибка x")
}

func TestLogger_FileGetsAllLevels(t *testing.T) {
	console, path := initTestLogger(t, WARN, true)

	Trace("трассировка")
	Warn("предупреждение")
	Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[TRACE] трассировка")
	assert.Contains(t, string(data), "[WARN] предупреждение")
	assert.NotContains(t, console.String(), "трассировка")
}

func TestComponentLogger(t *testing.T) {
	console, _ := initTestLogger(t, DEBUG, false)

	logger := GetComponentLogger("sim")
	assert.Same(t, logger, GetComponentLogger("sim"), "Логгер компонента создаётся один раз")
	assert.Equal(t, "sim", logger.Component())

	logger.Debug("шаг %d", 3)
	assert.Contains(t, console.String(), "[DEBUG] [sim] шаг 3")

	require.NoError(t, GetLoggerManager().SetLogLevel("sim", ERROR, ERROR))
	logger.Warn("не должно попасть")
	assert.NotContains(t, console.String(), "не должно попасть")
	assert.False(t, logger.Enabled(WARN))

	assert.Error(t, GetLoggerManager().SetLogLevel("unknown", INFO, INFO))
	assert.Contains(t, GetLoggerManager().ListComponents(), "sim")
}
