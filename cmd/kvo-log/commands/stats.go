package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/safekvo/safekvo-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	EventsByOutcome  map[log.Outcome]int
	EventsByTrigger  map[log.Trigger]int
	Registries       map[string]*RegistryStats
	KeyPaths         map[string]int
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// RegistryStats holds statistics for a single registry.
type RegistryStats struct {
	FirstSeen       time.Time
	LastSeen        time.Time
	Events          int
	Registrations   int
	Unregistrations int
	Teardowns       int
	Absorbed        int
}

// Live returns the registrations not yet balanced by an unregistration.
func (r *RegistryStats) Live() int {
	return r.Registrations - r.Unregistrations
}

func newStats() *Stats {
	return &Stats{
		EventsByCategory: make(map[log.Category]int),
		EventsByOutcome:  make(map[log.Outcome]int),
		EventsByTrigger:  make(map[log.Trigger]int),
		Registries:       make(map[string]*RegistryStats),
		KeyPaths:         make(map[string]int),
	}
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByCategory[event.Category]++
	s.EventsByOutcome[event.Outcome]++
	if event.Category == log.CategoryUnsubscribe || event.Category == log.CategoryTeardown {
		s.EventsByTrigger[event.Trigger]++
	}

	// Track time range
	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	reg, ok := s.Registries[event.RegistryID]
	if !ok {
		reg = &RegistryStats{
			FirstSeen: event.Timestamp,
			LastSeen:  event.Timestamp,
		}
		s.Registries[event.RegistryID] = reg
	}
	reg.Events++
	if event.Timestamp.After(reg.LastSeen) {
		reg.LastSeen = event.Timestamp
	}

	switch {
	case event.Category == log.CategorySubscribe && event.Outcome == log.OutcomeApplied:
		reg.Registrations++
	case event.Category == log.CategoryUnsubscribe && event.Outcome == log.OutcomeApplied:
		reg.Unregistrations++
	case event.Category == log.CategoryTeardown && event.Outcome == log.OutcomeApplied:
		reg.Unregistrations++
		reg.Teardowns++
	case event.Category == log.CategoryUnsubscribe && event.Outcome == log.OutcomeNoop:
		reg.Absorbed++
	}

	if event.Subscription != nil && event.Category == log.CategorySubscribe {
		s.KeyPaths[event.Subscription.KeyPath]++
	}

	if event.Error != nil {
		s.Errors++
	}
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := newStats()
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Subscription Registry Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategorySubscribe, log.CategoryUnsubscribe, log.CategoryTeardown, log.CategoryHook, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Outcome:")
	for _, o := range []log.Outcome{log.OutcomeApplied, log.OutcomeNoop, log.OutcomeDeferred, log.OutcomeSkipped, log.OutcomeReleased} {
		if count := stats.EventsByOutcome[o]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", o.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.EventsByTrigger) > 0 {
		fmt.Fprintln(w, "Removals by Trigger:")
		for _, tr := range []log.Trigger{log.TriggerExplicit, log.TriggerObserverInvalidated, log.TriggerTargetInvalidated} {
			if count := stats.EventsByTrigger[tr]; count > 0 {
				fmt.Fprintf(w, "  %-22s %d\n", tr.String()+":", count)
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Registries: %d\n", len(stats.Registries))
	if len(stats.Registries) > 0 {
		type regInfo struct {
			id    string
			stats *RegistryStats
		}
		regs := make([]regInfo, 0, len(stats.Registries))
		for id, rs := range stats.Registries {
			regs = append(regs, regInfo{id, rs})
		}
		sort.Slice(regs, func(i, j int) bool {
			return regs[i].stats.FirstSeen.Before(regs[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, r := range regs {
			duration := r.stats.LastSeen.Sub(r.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenID(r.id), r.stats.Events, duration)
			fmt.Fprintf(w, "           Registered: %d, unregistered: %d (teardowns %d)\n",
				r.stats.Registrations, r.stats.Unregistrations, r.stats.Teardowns)
			if r.stats.Absorbed > 0 {
				fmt.Fprintf(w, "           Absorbed removes: %d\n", r.stats.Absorbed)
			}
			if live := r.stats.Live(); live != 0 {
				fmt.Fprintf(w, "           Live at end of log: %d\n", live)
			}
		}
	}

	if len(stats.KeyPaths) > 0 {
		paths := make([]string, 0, len(stats.KeyPaths))
		for p := range stats.KeyPaths {
			paths = append(paths, p)
		}
		sort.Slice(paths, func(i, j int) bool {
			if stats.KeyPaths[paths[i]] != stats.KeyPaths[paths[j]] {
				return stats.KeyPaths[paths[i]] > stats.KeyPaths[paths[j]]
			}
			return paths[i] < paths[j]
		})
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Key Paths:")
		for _, p := range paths {
			fmt.Fprintf(w, "  %-20s %d\n", p, stats.KeyPaths[p])
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
