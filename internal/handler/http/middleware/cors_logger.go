package middleware

import (
	"log/slog"
)

// SlogAdapter bridges log/slog to the CORSLogger interface, turning the
// map-based fields into slog attributes.
type SlogAdapter struct {
	Logger *slog.Logger
}

func slogArgs(fields map[string]interface{}) []interface{} {
	args := make([]interface{}, 0, len(fields))
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	return args
}

// Info logs at info level with the given fields.
func (a *SlogAdapter) Info(msg string, fields map[string]interface{}) {
	if fields == nil {
		a.Logger.Info(msg)
		return
	}
	a.Logger.Info(msg, slogArgs(fields)...)
}

// Warn logs at warn level with the given fields.
func (a *SlogAdapter) Warn(msg string, fields map[string]interface{}) {
	if fields == nil {
		a.Logger.Warn(msg)
		return
	}
	a.Logger.Warn(msg, slogArgs(fields)...)
}

// Debug logs at debug level with the given fields.
func (a *SlogAdapter) Debug(msg string, fields map[string]interface{}) {
	if fields == nil {
		a.Logger.Debug(msg)
		return
	}
	a.Logger.Debug(msg, slogArgs(fields)...)
}

// NoOpLogger discards everything. Tests use it to keep CORS middleware
// quiet.
type NoOpLogger struct{}

func (l *NoOpLogger) Info(msg string, fields map[string]interface{})  {}
func (l *NoOpLogger) Warn(msg string, fields map[string]interface{})  {}
func (l *NoOpLogger) Debug(msg string, fields map[string]interface{}) {}
