// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// Context keys for logging
const (
	CorrelationID LogContextKey = "correlation_id"
)

// GenerateCorrelationID creates a new unique correlation ID.
func GenerateCorrelationID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	if id := ctx.Value(CorrelationID); id != nil {
		return id.(string)
	}
	return ""
}

// RepoLogger provides structured logging for repository operations.
type RepoLogger struct {
	tableName string
	logger    *Logger
}

// NewRepoLogger creates a new RepoLogger for the given table.
func NewRepoLogger(tableName string) *RepoLogger {
	return &RepoLogger{
		tableName: tableName,
		logger:    GlobalLogger,
	}
}

// LogWrite logs a repository write operation.
func (l *RepoLogger) LogWrite(ctx context.Context, operation string, fields map[string]interface{}) {
	attrs := []any{
		slog.String("table", l.tableName),
		slog.String("operation", operation),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.InfoContext(ctx, "repository write", attrs...)
}

// LogError logs a repository error.
func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	l.logger.ErrorContext(ctx, "repository error",
		slog.String("table", l.tableName),
		slog.String("operation", operation),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
		slog.String("error", err.Error()),
	)
}

// LogPipelineStart logs the start of a scrape pipeline run.
func LogPipelineStart(ctx context.Context, platform, username string, fields map[string]interface{}) {
	attrs := []any{
		slog.String("platform", platform),
		slog.String("username", username),
		slog.String("type", "pipeline_start"),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	GlobalLogger.InfoContext(ctx, "scrape pipeline started", attrs...)
}

// LogPipelineEnd logs the completion of a scrape pipeline run.
func LogPipelineEnd(ctx context.Context, platform, username string, fields map[string]interface{}) {
	attrs := []any{
		slog.String("platform", platform),
		slog.String("username", username),
		slog.String("type", "pipeline_end"),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	GlobalLogger.InfoContext(ctx, "scrape pipeline completed", attrs...)
}

// LogPipelineError logs a failed scrape pipeline run.
func LogPipelineError(ctx context.Context, platform, username string, err error, fields map[string]interface{}) {
	attrs := []any{
		slog.String("platform", platform),
		slog.String("username", username),
		slog.String("type", "pipeline_error"),
		slog.String("error", err.Error()),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	GlobalLogger.ErrorContext(ctx, "scrape pipeline failed", attrs...)
}

// LogSkippedRecord logs one raw record excluded from a batch, with the field
// names the provider actually sent.
func LogSkippedRecord(ctx context.Context, platform string, index int, reason string, fields []string) {
	GlobalLogger.WarnContext(ctx, "record skipped",
		slog.String("platform", platform),
		slog.Int("index", index),
		slog.String("reason", reason),
		slog.Any("fields", fields),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}
