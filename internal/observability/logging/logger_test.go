package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/yussieik/pazpaz-sub002/internal/handler/http/requestid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ───────── Logger construction and context propagation ───────── */

func newBufferLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level})
	return slog.New(handler), &buf
}

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "output should be valid JSON")
	return entry
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
	}{
		{name: "default level"},
		{name: "debug level", logLevel: "debug"},
		{name: "unknown level falls back to info", logLevel: "chatty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.logLevel != "" {
				t.Setenv("LOG_LEVEL", tt.logLevel)
			}
			assert.NotNil(t, NewLogger(), "logger should not be nil")
		})
	}
}

func TestNewTextLogger(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	assert.NotNil(t, NewTextLogger(), "logger should not be nil")
}

func TestLogger_LevelsAndJSONShape(t *testing.T) {
	tests := []struct {
		name    string
		logFunc func(*slog.Logger, string)
		message string
		level   string
	}{
		{"info", func(l *slog.Logger, m string) { l.Info(m) }, "appointment created", "INFO"},
		{"debug", func(l *slog.Logger, m string) { l.Debug(m) }, "cache miss for client list", "DEBUG"},
		{"warn", func(l *slog.Logger, m string) { l.Warn(m) }, "session note autosave retried", "WARN"},
		{"error", func(l *slog.Logger, m string) { l.Error(m) }, "reminder dispatch failed", "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferLogger(slog.LevelDebug)

			tt.logFunc(logger, tt.message)

			entry := decodeLogLine(t, buf)
			assert.Equal(t, tt.message, entry["msg"])
			assert.Equal(t, tt.level, entry["level"])
			assert.NotEmpty(t, entry["time"], "entry should carry a timestamp")
		})
	}
}

func TestLogger_DebugFilteredAtInfoLevel(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	logger.Debug("this should not appear")
	logger.Info("this should appear")

	output := buf.String()
	assert.NotContains(t, output, "this should not appear", "debug message should be filtered")
	assert.Contains(t, output, "this should appear", "info message should be logged")
}

func TestWithRequestID(t *testing.T) {
	t.Run("request id from context is attached", func(t *testing.T) {
		logger, buf := newBufferLogger(slog.LevelInfo)
		ctx := requestid.WithRequestID(context.Background(), "550e8400-e29b-41d4-a716-446655440000")

		WithRequestID(ctx, logger).Info("listing appointments")

		entry := decodeLogLine(t, buf)
		assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", entry["request_id"])
	})

	t.Run("missing request id leaves logger untouched", func(t *testing.T) {
		logger, buf := newBufferLogger(slog.LevelInfo)

		WithRequestID(context.Background(), logger).Info("listing appointments")

		assert.Contains(t, buf.String(), "listing appointments")
		assert.NotContains(t, buf.String(), "request_id", "should not contain request_id field")
	})
}

func TestWithFields(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]interface{}
	}{
		{
			name:   "workspace scope",
			fields: map[string]interface{}{"workspace_id": "ws-coastal-clinic"},
		},
		{
			name: "mixed audit fields",
			fields: map[string]interface{}{
				"workspace_id": "ws-coastal-clinic",
				"action":       "appointment.create",
				"attempts":     3,
				"conflict":     true,
			},
		},
		{
			name:   "numeric fields",
			fields: map[string]interface{}{"count": 42, "duration_ms": 123.45},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferLogger(slog.LevelInfo)

			WithFields(logger, tt.fields).Info("audit event")

			entry := decodeLogLine(t, buf)
			for key, want := range tt.fields {
				require.Contains(t, entry, key, "output should contain field %s", key)
				if n, ok := want.(int); ok {
					// JSON numbers decode as float64
					assert.Equal(t, float64(n), entry[key], "field %s should match", key)
				} else {
					assert.Equal(t, want, entry[key], "field %s should match", key)
				}
			}
		})
	}
}

func TestWithFields_EmptyMap(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	WithFields(logger, map[string]interface{}{}).Info("audit event")

	entry := decodeLogLine(t, buf)
	assert.Equal(t, "audit event", entry["msg"])
}

func TestFromContext(t *testing.T) {
	t.Run("returns logger stored in context", func(t *testing.T) {
		logger, buf := newBufferLogger(slog.LevelInfo)
		ctx := WithLogger(context.Background(), logger)

		FromContext(ctx).Info("stored logger used")
		assert.Contains(t, buf.String(), "stored logger used")
	})

	t.Run("falls back to default when absent", func(t *testing.T) {
		assert.Equal(t, slog.Default(), FromContext(context.Background()))
	})

	t.Run("falls back to default on wrong value type", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), loggerContextKey, "not a logger")
		assert.Equal(t, slog.Default(), FromContext(ctx))
	})
}

func TestLogger_RequestScopedWorkflow(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelDebug)

	ctx := WithLogger(context.Background(), logger)
	ctx = requestid.WithRequestID(ctx, "req-7f3a")

	scoped := WithRequestID(ctx, FromContext(ctx))
	scoped = WithFields(scoped, map[string]interface{}{
		"workspace_id": "ws-coastal-clinic",
		"action":       "session.finalize",
	})
	scoped.Info("session note finalized")

	entry := decodeLogLine(t, buf)
	assert.Equal(t, "session note finalized", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "req-7f3a", entry["request_id"])
	assert.Equal(t, "ws-coastal-clinic", entry["workspace_id"])
	assert.Equal(t, "session.finalize", entry["action"])
	assert.NotEmpty(t, entry["time"])
}

func TestLogger_OneJSONLinePerEntry(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	logger.Info("first message")
	logger.Warn("second message")
	logger.Error("third message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3, "should have 3 log entries")

	for i, line := range lines {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), "line %d should be valid JSON", i+1)
		assert.NotEmpty(t, entry["msg"], "line %d should have message", i+1)
		assert.NotEmpty(t, entry["level"], "line %d should have level", i+1)
	}
}

func TestLoggerContextKey_IsTyped(t *testing.T) {
	assert.IsType(t, contextKey(""), loggerContextKey)
}

func BenchmarkLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message")
	}
}

func BenchmarkLogger_WithFields(b *testing.B) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	fields := map[string]interface{}{
		"workspace_id": "ws-coastal-clinic",
		"action":       "benchmark",
		"count":        100,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		WithFields(base, fields).Info("benchmark message")
	}
}
