// Package commands implements the kvo-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/safekvo/safekvo-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Category *log.Category
	Outcome  *log.Outcome
	Trigger  *log.Trigger
	ObjectID string
}

// matches reports whether the event passes the filter.
func (f ViewFilter) matches(e log.Event) bool {
	if f.Category != nil && e.Category != *f.Category {
		return false
	}
	if f.Outcome != nil && e.Outcome != *f.Outcome {
		return false
	}
	if f.Trigger != nil && e.Trigger != *f.Trigger {
		return false
	}
	if f.ObjectID != "" && !e.Involves(f.ObjectID) {
		return false
	}
	return true
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [reg:id] CATEGORY OUTCOME (TRIGGER)
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [reg:%s] %-11s %s", ts, shortenID(event.RegistryID), event.Category, event.Outcome)
	if event.Category == log.CategoryTeardown || event.Trigger != log.TriggerExplicit {
		fmt.Fprintf(w, " (%s)", event.Trigger)
	}
	fmt.Fprintln(w)

	if event.Subscription != nil {
		formatSubscriptionDetails(w, event.Subscription)
	}
	if event.Object != nil {
		fmt.Fprintf(w, "  Object: %s\n", formatObject(event.Object.ID, event.Object.Class))
	}
	if event.Error != nil {
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenID returns the first 8 characters of an ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatObject(id, class string) string {
	if class == "" {
		return shortenID(id)
	}
	return fmt.Sprintf("%s (%s)", shortenID(id), class)
}

// formatSubscriptionDetails writes the subscription tuple.
func formatSubscriptionDetails(w io.Writer, sub *log.SubscriptionRef) {
	fmt.Fprintf(w, "  Observer: %s\n", formatObject(sub.ObserverID, sub.ObserverClass))
	fmt.Fprintf(w, "  Target:   %s\n", formatObject(sub.TargetID, sub.TargetClass))
	fmt.Fprintf(w, "  KeyPath:  %s\n", sub.KeyPath)
	if sub.Options != "" {
		fmt.Fprintf(w, "  Options:  %s\n", sub.Options)
	}
	if sub.Context != "" {
		fmt.Fprintf(w, "  Context:  %s\n", sub.Context)
	}
}

// formatErrorDetails writes error details.
func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  During:  %s\n", err.Context)
	}
}

// filterEvents returns events matching the filter criteria.
func filterEvents(events []log.Event, filter ViewFilter) []log.Event {
	var result []log.Event
	for _, e := range events {
		if filter.matches(e) {
			result = append(result, e)
		}
	}
	return result
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	return parseCategory(s)
}

// parseCategory parses a category string (case-insensitive).
func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "subscribe":
		return log.CategorySubscribe, nil
	case "unsubscribe":
		return log.CategoryUnsubscribe, nil
	case "teardown":
		return log.CategoryTeardown, nil
	case "hook":
		return log.CategoryHook, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be subscribe, unsubscribe, teardown, hook, or error)", s)
	}
}

// ParseOutcomeFlag parses an outcome string from command-line flag (case-insensitive).
func ParseOutcomeFlag(s string) (log.Outcome, error) {
	return parseOutcome(s)
}

func parseOutcome(s string) (log.Outcome, error) {
	switch strings.ToLower(s) {
	case "applied":
		return log.OutcomeApplied, nil
	case "noop":
		return log.OutcomeNoop, nil
	case "deferred":
		return log.OutcomeDeferred, nil
	case "skipped":
		return log.OutcomeSkipped, nil
	case "released":
		return log.OutcomeReleased, nil
	default:
		return 0, fmt.Errorf("invalid outcome: %s (must be applied, noop, deferred, skipped, or released)", s)
	}
}

// ParseTriggerFlag parses a trigger string from command-line flag (case-insensitive).
func ParseTriggerFlag(s string) (log.Trigger, error) {
	return parseTrigger(s)
}

func parseTrigger(s string) (log.Trigger, error) {
	switch strings.ToLower(s) {
	case "explicit":
		return log.TriggerExplicit, nil
	case "observer", "observer_invalidated":
		return log.TriggerObserverInvalidated, nil
	case "target", "target_invalidated":
		return log.TriggerTargetInvalidated, nil
	default:
		return 0, fmt.Errorf("invalid trigger: %s (must be explicit, observer, or target)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if !filter.matches(event) {
			continue
		}
		formatEvent(output, event)
	}

	return nil
}
