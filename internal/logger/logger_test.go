package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type testConfig struct {
	level, output, file string
}

func (c testConfig) GetLevel() string  { return c.level }
func (c testConfig) GetOutput() string { return c.output }
func (c testConfig) GetFile() string   { return c.file }

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLogLevel("DEBUG"))
	assert.Equal(t, WARN, ParseLogLevel("warning"))
	assert.Equal(t, INFO, ParseLogLevel("verbose"))
}

func TestLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(INFO, zapcore.AddSync(&buf))
	require.NoError(t, err)

	l.With(zap.String("phase", "tallied")).Info("phase advanced to %s", "tallied")
	l.Debug("hidden")
	l.Sync()

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "phase advanced to tallied", entry["message"])
	assert.Equal(t, "tallied", entry["phase"])
}

func TestNewFromConfig(t *testing.T) {
	_, err := NewFromConfig(testConfig{level: "info", output: "kafka"})
	assert.Error(t, err)

	_, err = NewFromConfig(testConfig{level: "info", output: "file"})
	assert.Error(t, err)

	l, err := NewFromConfig(testConfig{level: "warn", output: "file", file: filepath.Join(t.TempDir(), "ivs.log")})
	require.NoError(t, err)
	l.Warn("rotating %d", 1)
	l.Sync()
}
