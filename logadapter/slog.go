package logadapter

import (
	"context"
	"log/slog"

	"github.com/kramer-control/brain-client/blog"
)

// Slog writes blog.Events through an *slog.Logger, for applications
// that would rather not pull in an extra logging dependency.
type Slog struct {
	logger *slog.Logger
}

// NewSlog wraps logger.
func NewSlog(logger *slog.Logger) *Slog {
	return &Slog{logger: logger}
}

// Log writes event at Debug level (Error for blog.CategoryError).
func (s *Slog) Log(event blog.Event) {
	level := slog.LevelDebug
	if event.Category == blog.CategoryError {
		level = slog.LevelError
	}

	attrs := []slog.Attr{
		slog.String("conn_id", event.ConnectionID),
		slog.String("category", event.Category.String()),
	}
	if event.Endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", event.Endpoint))
	}
	if dir := event.Direction.String(); dir != "" {
		attrs = append(attrs, slog.String("direction", dir))
	}
	if sc := event.StateChange; sc != nil {
		attrs = append(attrs, slog.String("old_state", sc.OldState), slog.String("new_state", sc.NewState))
	}
	if errData := event.Error; errData != nil {
		attrs = append(attrs, slog.String("error", errData.Message))
	}

	s.logger.LogAttrs(context.Background(), level, event.Message, attrs...)
}

var _ blog.Logger = (*Slog)(nil)
