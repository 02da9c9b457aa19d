package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitForCLI_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelWarn, &buf)

	Debug("Test", "debug message")
	Info("Test", "info message")
	Warn("Test", "warn message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
}

func TestInitForCLIJSON_EmitsJSONLines(t *testing.T) {
	var buf bytes.Buffer
	InitForCLIJSON(LevelInfo, &buf)

	Info("Router", "job %q routed", "abc")

	out := buf.String()
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "{"))
	assert.Contains(t, out, `"subsystem":"Router"`)
}

func TestError_IncludesErrorAttribute(t *testing.T) {
	var buf bytes.Buffer
	InitForCLIJSON(LevelError, &buf)

	Error("Pipeline", assert.AnError, "job failed")

	assert.Contains(t, buf.String(), `"error"`)
}

func TestLogLevel_StringAndSlogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, slog.LevelWarn, LevelWarn.SlogLevel())
}
