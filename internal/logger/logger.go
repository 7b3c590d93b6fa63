// Package logger carries slog attributes on a context so every record logged
// with that context picks them up.
package logger

import (
	"context"
	"io"
	"log/slog"
)

type contextKey string

const attrKey contextKey = "attrKey"

// ContextHandler wraps a [slog.Handler] and appends the attributes stored on
// the record's context by [Ctx].
type ContextHandler struct {
	slog.Handler
}

func NewContextHandler(handler slog.Handler) ContextHandler {
	return ContextHandler{Handler: handler}
}

func (h ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	if attrs := Attrs(ctx); len(attrs) > 0 {
		record.AddAttrs(attrs...)
	}

	return h.Handler.Handle(ctx, record)
}

func (h ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return ContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h ContextHandler) WithGroup(name string) slog.Handler {
	return ContextHandler{Handler: h.Handler.WithGroup(name)}
}

// Ctx returns a copy of ctx carrying toAppend on top of what it already had.
func Ctx(ctx context.Context, toAppend ...slog.Attr) context.Context {
	existing := Attrs(ctx)
	attrs := make([]slog.Attr, 0, len(existing)+len(toAppend))
	attrs = append(attrs, existing...)
	attrs = append(attrs, toAppend...)

	return context.WithValue(ctx, attrKey, attrs)
}

// Attrs are the attributes attached to ctx.
func Attrs(ctx context.Context) []slog.Attr {
	attrs, _ := ctx.Value(attrKey).([]slog.Attr)
	return attrs
}

// New builds a context aware logger writing text, or JSON when format is "json".
func New(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var base slog.Handler = slog.NewTextHandler(w, opts)
	if format == "json" {
		base = slog.NewJSONHandler(w, opts)
	}

	return slog.New(NewContextHandler(base))
}
