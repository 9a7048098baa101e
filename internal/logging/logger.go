// Package logging configures slog and carries per-mention fields through context.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

type ctxKey string

const ctxKeyFields ctxKey = "log_fields"

// Fields are attached to every record logged through FromContext
type Fields struct {
	TraceID   string
	MentionID int64
	Component string
}

// Setup installs the default logger. format is "text" or "json".
func Setup(w io.Writer, level, format string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return fmt.Errorf("log format %q: expected text or json", format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// WithMention starts a trace for one mention
func WithMention(ctx context.Context, mentionID int64) context.Context {
	fields := fieldsFrom(ctx)
	fields.MentionID = mentionID
	fields.TraceID = uuid.NewString()
	return context.WithValue(ctx, ctxKeyFields, fields)
}

// WithComponent tags records with the emitting component
func WithComponent(ctx context.Context, component string) context.Context {
	fields := fieldsFrom(ctx)
	fields.Component = component
	return context.WithValue(ctx, ctxKeyFields, fields)
}

// FromContext returns the default logger enriched with the context's fields
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	fields := fieldsFrom(ctx)

	var attrs []any
	if fields.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", fields.TraceID))
	}
	if fields.MentionID != 0 {
		attrs = append(attrs, slog.Int64("mention_id", fields.MentionID))
	}
	if fields.Component != "" {
		attrs = append(attrs, slog.String("component", fields.Component))
	}
	if len(attrs) == 0 {
		return logger
	}
	return logger.With(attrs...)
}

func fieldsFrom(ctx context.Context) Fields {
	if ctx == nil {
		return Fields{}
	}
	fields, _ := ctx.Value(ctxKeyFields).(Fields)
	return fields
}
