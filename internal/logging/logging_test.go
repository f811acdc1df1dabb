package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{"": slog.LevelInfo, "debug": slog.LevelDebug, "WARN": slog.LevelWarn, " error ": slog.LevelError} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	log, done, err := Setup(Options{Level: "warn", Format: "json", Writer: &buf})
	require.NoError(t, err)
	defer done()

	log.Info("hidden")
	log.Warn("dataset loaded", "rows", 5)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "dataset loaded", rec["msg"])
	assert.Equal(t, float64(5), rec["rows"])
}

func TestSetupRejectsFormat(t *testing.T) {
	_, _, err := Setup(Options{Format: "xml"})
	require.Error(t, err)
}

func TestMultiHandlerRespectsLevels(t *testing.T) {
	var quiet, verbose bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(&verbose, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}}
	log := slog.New(h).With("dataset", "jobs")
	log.Debug("rendered")
	assert.Empty(t, quiet.String())
	assert.Contains(t, verbose.String(), "dataset=jobs")
}
