package registry

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/safekvo/safekvo-go/pkg/kvo"
	"github.com/safekvo/safekvo-go/pkg/log"
)

// Config holds registry configuration.
type Config struct {
	// Facility performs the real registrations. Defaults to kvo.Host{}.
	Facility Facility

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// EventLogger receives the structured event trace.
	// If nil, events are discarded.
	EventLogger log.Logger

	// RegistryID identifies this registry in the event trace.
	// Generated if empty.
	RegistryID string
}

// DefaultConfig returns the default registry configuration.
func DefaultConfig() Config {
	return Config{
		Facility:    kvo.Host{},
		EventLogger: log.NoopLogger{},
	}
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.Facility == nil {
		c.Facility = kvo.Host{}
	}
	if c.EventLogger == nil {
		c.EventLogger = log.NoopLogger{}
	}
	if c.RegistryID == "" {
		c.RegistryID = uuid.NewString()
	}
	return c
}
