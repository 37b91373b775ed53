package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/safekvo/safekvo-go/pkg/log"
)

// RunExport exports the log file to the specified format.
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

var csvHeader = []string{
	"timestamp", "registry_id", "category", "outcome", "trigger",
	"observer_id", "target_id", "key_path", "options", "context", "object_id", "error",
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := cw.Write(csvRow(event)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

func csvRow(event log.Event) []string {
	row := []string{
		event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		event.RegistryID,
		event.Category.String(),
		event.Outcome.String(),
		event.Trigger.String(),
		"", "", "", "", "", "", "",
	}
	if s := event.Subscription; s != nil {
		row[5], row[6], row[7], row[8], row[9] = s.ObserverID, s.TargetID, s.KeyPath, s.Options, s.Context
	}
	if event.Object != nil {
		row[10] = event.Object.ID
	}
	if event.Error != nil {
		row[11] = event.Error.Message
	}
	return row
}
