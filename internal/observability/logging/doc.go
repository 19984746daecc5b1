// Package logging builds the application's slog loggers and carries
// them through contexts.
//
// NewLogger produces the JSON logger used in production; NewTextLogger
// is the readable variant for local runs. LOG_LEVEL=debug lowers the
// level on either. WithRequestID attaches the request ID from a
// context so every line of a request shares one correlation key, and
// WithLogger/FromContext pass a scoped logger down the call chain.
//
//	logger := logging.NewLogger()
//	logger.Info("api starting", slog.String("version", version))
//
//	logger = logging.WithRequestID(ctx, logger)
//	logger.Info("appointment booked")
package logging
