package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes registry events to an slog.Logger.
// Useful for development when you want to see registry decisions in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger. Errors are logged at Warn
// level, everything else at Debug.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("registry_id", event.RegistryID),
		slog.String("category", event.Category.String()),
		slog.String("outcome", event.Outcome.String()),
	}

	if event.Category == CategoryTeardown || event.Category == CategoryUnsubscribe {
		attrs = append(attrs, slog.String("trigger", event.Trigger.String()))
	}

	if s := event.Subscription; s != nil {
		attrs = append(attrs,
			slog.String("observer", s.ObserverID),
			slog.String("target", s.TargetID),
			slog.String("key_path", s.KeyPath),
		)
		if s.ObserverClass != "" {
			attrs = append(attrs, slog.String("observer_class", s.ObserverClass))
		}
		if s.TargetClass != "" {
			attrs = append(attrs, slog.String("target_class", s.TargetClass))
		}
		if s.Context != "" {
			attrs = append(attrs, slog.String("context", s.Context))
		}
		if s.Options != "" {
			attrs = append(attrs, slog.String("options", s.Options))
		}
	}

	if o := event.Object; o != nil {
		attrs = append(attrs, slog.String("object", o.ID))
		if o.Class != "" {
			attrs = append(attrs, slog.String("class", o.Class))
		}
	}

	level := slog.LevelDebug
	if e := event.Error; e != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("error_msg", e.Message))
		if e.Context != "" {
			attrs = append(attrs, slog.String("error_context", e.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), level, "registry", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
