// Package logger provides structured logging functionality for the application.
//
// It configures a JSON log/slog handler from the server configuration and
// carries request- or job-scoped loggers through context.Context.
package logger
