package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func newJSONAdapter(buf *bytes.Buffer) *SlogAdapter {
	handler := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogAdapter(slog.New(handler))
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	if buf.Len() == 0 {
		t.Fatal("no output produced")
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	return entry
}

func TestSlogAdapterLogsSubscriptionEvent(t *testing.T) {
	var buf bytes.Buffer
	adapter := newJSONAdapter(&buf)

	adapter.Log(Event{
		Timestamp:  time.Now(),
		RegistryID: "reg-1",
		Category:   CategoryTeardown,
		Outcome:    OutcomeApplied,
		Trigger:    TriggerTargetInvalidated,
		Subscription: &SubscriptionRef{
			ObserverID:    "obs-1",
			ObserverClass: "Controller",
			TargetID:      "tgt-1",
			TargetClass:   "Player",
			KeyPath:       "volume",
			Context:       "ctx1",
			Options:       "new|old",
		},
	})

	entry := decodeEntry(t, &buf)

	want := map[string]string{
		"level":          "DEBUG",
		"registry_id":    "reg-1",
		"category":       "TEARDOWN",
		"outcome":        "APPLIED",
		"trigger":        "TARGET_INVALIDATED",
		"observer":       "obs-1",
		"observer_class": "Controller",
		"target":         "tgt-1",
		"target_class":   "Player",
		"key_path":       "volume",
		"context":        "ctx1",
		"options":        "new|old",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s: got %v, want %q", k, entry[k], v)
		}
	}
}

func TestSlogAdapterOmitsTriggerForSubscribe(t *testing.T) {
	var buf bytes.Buffer
	adapter := newJSONAdapter(&buf)

	adapter.Log(Event{Category: CategorySubscribe, Subscription: &SubscriptionRef{KeyPath: "k"}})

	entry := decodeEntry(t, &buf)
	if _, ok := entry["trigger"]; ok {
		t.Error("subscribe events should not carry a trigger")
	}
	if _, ok := entry["context"]; ok {
		t.Error("empty context should be omitted")
	}
}

func TestSlogAdapterLogsHookEvent(t *testing.T) {
	var buf bytes.Buffer
	adapter := newJSONAdapter(&buf)

	adapter.Log(Event{Category: CategoryHook, Outcome: OutcomeReleased, Object: &ObjectRef{ID: "obj-1", Class: "Player"}})

	entry := decodeEntry(t, &buf)
	if entry["object"] != "obj-1" {
		t.Errorf("object: got %v, want %q", entry["object"], "obj-1")
	}
	if entry["class"] != "Player" {
		t.Errorf("class: got %v, want %q", entry["class"], "Player")
	}
	if entry["outcome"] != "RELEASED" {
		t.Errorf("outcome: got %v, want %q", entry["outcome"], "RELEASED")
	}
}

func TestSlogAdapterLogsErrorAtWarn(t *testing.T) {
	var buf bytes.Buffer
	adapter := newJSONAdapter(&buf)

	adapter.Log(Event{
		Category: CategoryError,
		Error:    &ErrorEventData{Message: "unknown key path", Context: "register"},
	})

	entry := decodeEntry(t, &buf)
	if entry["level"] != "WARN" {
		t.Errorf("level: got %v, want WARN", entry["level"])
	}
	if entry["error_msg"] != "unknown key path" {
		t.Errorf("error_msg: got %v", entry["error_msg"])
	}
	if entry["error_context"] != "register" {
		t.Errorf("error_context: got %v", entry["error_context"])
	}
}
