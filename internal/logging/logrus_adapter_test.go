package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogrusAdapter(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		format      string
		expectLevel logrus.Level
		expectJSON  bool
	}{
		{name: "debug text", level: "debug", format: "text", expectLevel: logrus.DebugLevel},
		{name: "info json", level: "info", format: "json", expectLevel: logrus.InfoLevel, expectJSON: true},
		{name: "upper case level", level: "WARN", format: "text", expectLevel: logrus.WarnLevel},
		{name: "invalid level defaults to info", level: "chatty", format: "text", expectLevel: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogrusAdapter(tt.level, tt.format)
			adapter, ok := logger.(*LogrusAdapter)
			require.True(t, ok)
			assert.Equal(t, tt.expectLevel, adapter.logger.Level)

			_, isJSON := adapter.logger.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.expectJSON, isJSON)
		})
	}
}

func TestLogrusAdapter_WritesFields(t *testing.T) {
	base := logrus.New()
	var buf bytes.Buffer
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.JSONFormatter{})

	logger := NewLogrusAdapterFromLogger(base).
		WithField(FieldOwner, 7).
		WithError(errors.New("boom"))
	logger.Info("row skipped", F(FieldReason, "bad_date"), F(FieldRow, 3))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
	assert.Equal(t, "row skipped", payload["msg"])
	assert.Equal(t, "bad_date", payload[FieldReason])
	assert.Equal(t, float64(3), payload[FieldRow])
	assert.Equal(t, float64(7), payload[FieldOwner])
	assert.Equal(t, "boom", payload["error"])
}

func TestLogrusAdapter_LevelFiltering(t *testing.T) {
	adapter := NewLogrusAdapter("warn", "text").(*LogrusAdapter)
	var buf bytes.Buffer
	adapter.SetOutput(&buf)

	adapter.Debug("hidden")
	adapter.Info("hidden too")
	assert.Empty(t, buf.String())

	adapter.Warn("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestNewLogrusAdapterFromLogger_Nil(t *testing.T) {
	assert.NotNil(t, NewLogrusAdapterFromLogger(nil))
}

func TestMockLogger_DerivedLoggersShareEntries(t *testing.T) {
	mock := NewMockLogger()
	child := mock.WithField(FieldStage, "transfer")
	child.WithError(errors.New("timeout")).Warn("stage failed")
	mock.Info("done")

	entries := mock.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0].Level)
	assert.Equal(t, []Field{{Key: FieldStage, Value: "transfer"}}, entries[0].Fields)
	assert.EqualError(t, entries[0].Error, "timeout")
	assert.True(t, mock.HasEntry("INFO", "done"))
	assert.Len(t, mock.EntriesByLevel("WARN"), 1)

	mock.Clear()
	assert.Empty(t, mock.Entries())
}

func TestDiscard(t *testing.T) {
	logger := Discard().WithField("a", 1).WithError(errors.New("x")).WithFields(F("b", 2))
	assert.NotPanics(t, func() { logger.Error("nothing") })
}
