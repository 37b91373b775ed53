package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/safekvo/safekvo-go/pkg/log"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	Output     string
	RegistryID string
	ObjectID   string
	KeyPath    string
	TimeStart  string
	TimeEnd    string
	Category   string
	Outcome    string
	Trigger    string
}

// buildFilter converts the string options into a log.Filter.
func (opts FilterOptions) buildFilter() (log.Filter, error) {
	filter := log.Filter{
		RegistryID: opts.RegistryID,
		ObjectID:   opts.ObjectID,
		KeyPath:    opts.KeyPath,
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return filter, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return filter, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	if opts.Category != "" {
		c, err := parseCategory(opts.Category)
		if err != nil {
			return filter, err
		}
		filter.Category = &c
	}

	if opts.Outcome != "" {
		o, err := parseOutcome(opts.Outcome)
		if err != nil {
			return filter, err
		}
		filter.Outcome = &o
	}

	if opts.Trigger != "" {
		tr, err := parseTrigger(opts.Trigger)
		if err != nil {
			return filter, err
		}
		filter.Trigger = &tr
	}

	return filter, nil
}

// RunFilter filters the log file and writes matching events to a new file.
// It returns the number of events written.
func RunFilter(path string, opts FilterOptions) (int, error) {
	filter, err := opts.buildFilter()
	if err != nil {
		return 0, err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(opts.Output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output logger: %w", err)
	}

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Close()
			return count, fmt.Errorf("failed to read event: %w", err)
		}
		logger.Log(event)
		count++
	}

	if err := logger.Close(); err != nil {
		return count, fmt.Errorf("failed to close output: %w", err)
	}
	return count, nil
}
