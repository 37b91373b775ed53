package log

import (
	"io"
	"path/filepath"
	"testing"
	"time"
)

func createTestLogFile(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.klog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create test log: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func readAllFiltered(t *testing.T, path string, filter Filter) []Event {
	t.Helper()
	reader, err := NewFilteredReader(path, filter)
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	var read []Event
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return read
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		read = append(read, event)
	}
}

func TestReaderIteratesEvents(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), RegistryID: "reg-1", Category: CategorySubscribe},
		{Timestamp: time.Now(), RegistryID: "reg-2", Category: CategoryUnsubscribe},
		{Timestamp: time.Now(), RegistryID: "reg-3", Category: CategoryTeardown},
	}

	read := readAllFiltered(t, createTestLogFile(t, events), Filter{})

	if len(read) != 3 {
		t.Fatalf("got %d events, want 3", len(read))
	}
	if read[0].RegistryID != "reg-1" {
		t.Errorf("first event RegistryID = %q, want %q", read[0].RegistryID, "reg-1")
	}
	if read[2].RegistryID != "reg-3" {
		t.Errorf("last event RegistryID = %q, want %q", read[2].RegistryID, "reg-3")
	}
}

func TestReaderHandlesEmptyFile(t *testing.T) {
	read := readAllFiltered(t, createTestLogFile(t, nil), Filter{})
	if len(read) != 0 {
		t.Errorf("got %d events from empty file, want 0", len(read))
	}
}

func TestReaderFilters(t *testing.T) {
	base := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	sub := func(obs, tgt, path string) *SubscriptionRef {
		return &SubscriptionRef{ObserverID: obs, TargetID: tgt, KeyPath: path}
	}
	events := []Event{
		{Timestamp: base, RegistryID: "a", Category: CategorySubscribe, Subscription: sub("o1", "t1", "volume")},
		{Timestamp: base.Add(time.Second), RegistryID: "a", Category: CategoryUnsubscribe, Outcome: OutcomeNoop, Subscription: sub("o1", "t1", "volume")},
		{Timestamp: base.Add(2 * time.Second), RegistryID: "b", Category: CategoryTeardown, Trigger: TriggerTargetInvalidated, Subscription: sub("o2", "t1", "title")},
		{Timestamp: base.Add(3 * time.Second), RegistryID: "b", Category: CategoryHook, Outcome: OutcomeReleased, Object: &ObjectRef{ID: "o2"}},
	}
	path := createTestLogFile(t, events)

	teardown := CategoryTeardown
	noop := OutcomeNoop
	target := TriggerTargetInvalidated
	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"registry", Filter{RegistryID: "b"}, 2},
		{"category", Filter{Category: &teardown}, 1},
		{"outcome", Filter{Outcome: &noop}, 1},
		{"trigger", Filter{Trigger: &target}, 1},
		{"object as target", Filter{ObjectID: "t1"}, 3},
		{"object as hook", Filter{ObjectID: "o2"}, 2},
		{"key path", Filter{KeyPath: "volume"}, 2},
		{"time window", Filter{TimeStart: &start, TimeEnd: &end}, 2},
		{"combined", Filter{RegistryID: "a", KeyPath: "title"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := readAllFiltered(t, path, tt.filter)
			if len(got) != tt.want {
				t.Errorf("got %d events, want %d", len(got), tt.want)
			}
		})
	}
}

func TestNewReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "nope.klog")); err == nil {
		t.Error("NewReader succeeded for missing file")
	}
}
