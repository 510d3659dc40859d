package common

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	return &buf
}

func TestLogInfo(t *testing.T) {
	buf := captureLogs(t)

	LogInfo("ledger built", Fields{"lines": 3})

	out := buf.String()
	assert.Contains(t, out, `"msg":"ledger built"`)
	assert.Contains(t, out, `"lines":3`)
}

func TestLogError(t *testing.T) {
	buf := captureLogs(t)

	LogError(errors.New("disk full"), "save failed", Fields{"session": 7})

	out := buf.String()
	assert.Contains(t, out, `"msg":"save failed"`)
	assert.Contains(t, out, `"error":"disk full"`)
	assert.Contains(t, out, `"session":7`)
}

func TestSetupLogger(t *testing.T) {
	for _, format := range []string{"json", "console", "unknown"} {
		assert.NoError(t, SetupLogger(slog.LevelInfo, format))
	}
}
