package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// NewSlogHandler returns a slog.Handler that forwards records to the provided
// Logger, so host components that speak log/slog share one destination.
// Returns nil for a nil logger.
func NewSlogHandler(l *Logger) slog.Handler {
	if l == nil {
		return nil
	}
	return &slogAdapter{log: l}
}

type slogAdapter struct {
	log    *Logger
	groups []string
	attrs  []slog.Attr
}

func (h *slogAdapter) Enabled(_ context.Context, level slog.Level) bool {
	return slogLevelToLoggerLevel(level) >= h.log.GetLevel()
}

func (h *slogAdapter) Handle(_ context.Context, record slog.Record) error {
	var sb strings.Builder
	sb.WriteString(record.Message)

	// Pre-bound attrs were qualified in WithAttrs; only record attrs still
	// need the group prefix.
	for _, attr := range h.attrs {
		if !attr.Equal(slog.Attr{}) {
			fmt.Fprintf(&sb, " %s=%v", attr.Key, attr.Value)
		}
	}
	record.Attrs(func(attr slog.Attr) bool {
		if !attr.Equal(slog.Attr{}) {
			fmt.Fprintf(&sb, " %s=%v", h.qualify(attr.Key), attr.Value)
		}
		return true
	})

	switch {
	case record.Level >= slog.LevelError:
		h.log.Error("%s", sb.String())
	case record.Level >= slog.LevelWarn:
		h.log.Warn("%s", sb.String())
	case record.Level >= slog.LevelInfo:
		h.log.Info("%s", sb.String())
	default:
		h.log.Debug("%s", sb.String())
	}
	return nil
}

func (h *slogAdapter) WithAttrs(attrs []slog.Attr) slog.Handler {
	combined := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	combined = append(combined, h.attrs...)
	for _, attr := range attrs {
		combined = append(combined, slog.Attr{
			Key:   h.qualify(attr.Key),
			Value: attr.Value,
		})
	}
	return &slogAdapter{
		log:    h.log,
		groups: append([]string(nil), h.groups...),
		attrs:  combined,
	}
}

func (h *slogAdapter) qualify(key string) string {
	if len(h.groups) == 0 || key == "" {
		return key
	}
	return strings.Join(h.groups, ".") + "." + key
}

func (h *slogAdapter) WithGroup(name string) slog.Handler {
	groups := append([]string(nil), h.groups...)
	if name != "" {
		groups = append(groups, name)
	}
	return &slogAdapter{
		log:    h.log,
		groups: groups,
		attrs:  append([]slog.Attr(nil), h.attrs...),
	}
}

func slogLevelToLoggerLevel(level slog.Level) Level {
	switch {
	case level >= slog.LevelError:
		return LevelError
	case level >= slog.LevelWarn:
		return LevelWarn
	case level >= slog.LevelInfo:
		return LevelInfo
	default:
		return LevelDebug
	}
}
