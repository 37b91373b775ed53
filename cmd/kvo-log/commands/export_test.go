package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/safekvo/safekvo-go/pkg/log"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.klog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func subscription(observer, target, keyPath string) *log.SubscriptionRef {
	return &log.SubscriptionRef{
		ObserverID:    observer,
		ObserverClass: "Controller",
		TargetID:      target,
		TargetClass:   "Player",
		KeyPath:       keyPath,
		Options:       "new",
	}
}

func TestExportToJSONL(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	events := []log.Event{
		{
			Timestamp:    ts,
			RegistryID:   "reg12345",
			Category:     log.CategorySubscribe,
			Outcome:      log.OutcomeApplied,
			Subscription: subscription("obs-1", "tgt-1", "volume"),
		},
		{
			Timestamp:    ts.Add(time.Second),
			RegistryID:   "reg12345",
			Category:     log.CategoryUnsubscribe,
			Outcome:      log.OutcomeApplied,
			Subscription: subscription("obs-1", "tgt-1", "volume"),
		},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line 1 is not valid JSON: %v", err)
	}
	if first["RegistryID"] != "reg12345" {
		t.Errorf("expected RegistryID reg12345, got %v", first["RegistryID"])
	}
	sub, ok := first["Subscription"].(map[string]any)
	if !ok {
		t.Fatalf("expected Subscription object, got %T", first["Subscription"])
	}
	if sub["KeyPath"] != "volume" {
		t.Errorf("expected KeyPath volume, got %v", sub["KeyPath"])
	}
}

func TestExportToCSV(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	events := []log.Event{
		{
			Timestamp:    ts,
			RegistryID:   "reg12345",
			Category:     log.CategoryTeardown,
			Outcome:      log.OutcomeApplied,
			Trigger:      log.TriggerTargetInvalidated,
			Subscription: subscription("obs-1", "tgt-1", "title"),
		},
		{
			Timestamp:  ts,
			RegistryID: "reg12345",
			Category:   log.CategoryHook,
			Outcome:    log.OutcomeReleased,
			Object:     &log.ObjectRef{ID: "tgt-1", Class: "Player"},
		},
		{
			Timestamp:  ts,
			RegistryID: "reg12345",
			Category:   log.CategoryError,
			Outcome:    log.OutcomeApplied,
			Error:      &log.ErrorEventData{Message: "observer not registered", Context: "unregister"},
		},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(records))
	}
	if records[0][0] != "timestamp" || records[0][7] != "key_path" {
		t.Errorf("unexpected header: %v", records[0])
	}

	teardown := records[1]
	if teardown[2] != "TEARDOWN" || teardown[4] != "TARGET_INVALIDATED" {
		t.Errorf("unexpected teardown row: %v", teardown)
	}
	if teardown[5] != "obs-1" || teardown[6] != "tgt-1" || teardown[7] != "title" {
		t.Errorf("unexpected subscription columns: %v", teardown)
	}
	if records[2][10] != "tgt-1" {
		t.Errorf("expected object_id tgt-1, got %q", records[2][10])
	}
	if records[3][11] != "observer not registered" {
		t.Errorf("expected error message, got %q", records[3][11])
	}
}

func TestExportWritesToStdout(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	path := createTestLogFile(t, []log.Event{
		{Timestamp: ts, RegistryID: "reg-stdout", Category: log.CategorySubscribe},
	})

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	runErr := RunExport(path, "jsonl", "")

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("failed to read pipe: %v", err)
	}

	if runErr != nil {
		t.Fatalf("RunExport failed: %v", runErr)
	}
	if !strings.Contains(buf.String(), "reg-stdout") {
		t.Errorf("expected event on stdout, got: %s", buf.String())
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, []log.Event{{RegistryID: "r"}})

	err := RunExport(path, "xml", filepath.Join(t.TempDir(), "out.xml"))
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	if !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExportMissingFile(t *testing.T) {
	err := RunExport(filepath.Join(t.TempDir(), "missing.klog"), "jsonl", "")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
