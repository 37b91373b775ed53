package log

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter specifies criteria for filtering registry events.
// Empty/nil fields match all events for that criterion.
type Filter struct {
	// RegistryID filters by exact registry ID match.
	RegistryID string

	// Category filters by event category.
	Category *Category

	// Outcome filters by outcome.
	Outcome *Outcome

	// Trigger filters by trigger.
	Trigger *Trigger

	// ObjectID matches events whose observer, target or object has this ID.
	ObjectID string

	// KeyPath filters by exact key path.
	KeyPath string

	// TimeStart filters events at or after this time.
	TimeStart *time.Time

	// TimeEnd filters events before this time.
	TimeEnd *time.Time
}

// Matches returns true if the event matches all filter criteria.
func (f *Filter) Matches(event Event) bool {
	if f.RegistryID != "" && event.RegistryID != f.RegistryID {
		return false
	}
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.Outcome != nil && event.Outcome != *f.Outcome {
		return false
	}
	if f.Trigger != nil && event.Trigger != *f.Trigger {
		return false
	}
	if f.ObjectID != "" && !event.Involves(f.ObjectID) {
		return false
	}
	if f.KeyPath != "" && (event.Subscription == nil || event.Subscription.KeyPath != f.KeyPath) {
		return false
	}
	if f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	return true
}

// Reader reads registry events from a CBOR-encoded file.
// It provides an iterator interface for streaming large files.
type Reader struct {
	file    *os.File
	decoder *cbor.Decoder
	filter  Filter
}

// NewReader creates a Reader that reads all events from the specified log file.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader creates a Reader that reads events matching the filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		file:    f,
		decoder: NewDecoder(f),
		filter:  filter,
	}, nil
}

// Next returns the next event that matches the filter.
// Returns io.EOF when no more events are available.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.decoder.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, err
		}
		if r.filter.Matches(event) {
			return event, nil
		}
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
