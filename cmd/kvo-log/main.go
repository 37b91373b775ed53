// Command kvo-log is a tool for viewing and analyzing subscription registry
// event logs.
//
// Log files are created by kvo-shell with the -event-log flag, or by any
// registry configured with a log.FileLogger as its EventLogger.
//
// Usage:
//
//	kvo-log <command> [flags] <file.klog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSON or CSV format
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	kvo-log view run.klog
//
//	# View only teardowns caused by a target going away
//	kvo-log view --category teardown --trigger target run.klog
//
//	# Export to JSONL
//	kvo-log export --format jsonl run.klog
//
//	# Keep the events of one object and save to a new file
//	kvo-log filter --object-id 6f1c2a80 -o player.klog run.klog
//
//	# Show statistics
//	kvo-log stats run.klog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/safekvo/safekvo-go/cmd/kvo-log/commands"
)

const usage = `kvo-log - Subscription Registry Log Analyzer

Usage:
  kvo-log <command> [flags] <file.klog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSON or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "kvo-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// requirePath returns the single positional log file argument.
func requirePath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `kvo-log view - View log file in human-readable format

Usage:
  kvo-log view [flags] <file.klog>

Flags:
`)
		fs.PrintDefaults()
	}

	category := fs.String("category", "", "Filter by category (subscribe, unsubscribe, teardown, hook, error)")
	outcome := fs.String("outcome", "", "Filter by outcome (applied, noop, deferred, skipped, released)")
	trigger := fs.String("trigger", "", "Filter by trigger (explicit, observer, target)")
	objectID := fs.String("object-id", "", "Filter by observer, target or object ID")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	filter := commands.ViewFilter{ObjectID: *objectID}

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fail(err)
		}
		filter.Category = &c
	}

	if *outcome != "" {
		o, err := commands.ParseOutcomeFlag(*outcome)
		if err != nil {
			fail(err)
		}
		filter.Outcome = &o
	}

	if *trigger != "" {
		tr, err := commands.ParseTriggerFlag(*trigger)
		if err != nil {
			fail(err)
		}
		filter.Trigger = &tr
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `kvo-log export - Export log file to JSON or CSV format

Usage:
  kvo-log export [flags] <file.klog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `kvo-log filter - Filter log file and write to new file

Usage:
  kvo-log filter [flags] <file.klog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	registryID := fs.String("registry-id", "", "Filter by registry ID")
	objectID := fs.String("object-id", "", "Filter by observer, target or object ID")
	keyPath := fs.String("key-path", "", "Filter by key path")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")
	category := fs.String("category", "", "Filter by category (subscribe, unsubscribe, teardown, hook, error)")
	outcome := fs.String("outcome", "", "Filter by outcome (applied, noop, deferred, skipped, released)")
	trigger := fs.String("trigger", "", "Filter by trigger (explicit, observer, target)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	opts := commands.FilterOptions{
		Output:     *output,
		RegistryID: *registryID,
		ObjectID:   *objectID,
		KeyPath:    *keyPath,
		TimeStart:  *timeStart,
		TimeEnd:    *timeEnd,
		Category:   *category,
		Outcome:    *outcome,
		Trigger:    *trigger,
	}

	count, err := commands.RunFilter(path, opts)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Filtered %d events to %s\n", count, *output)
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `kvo-log stats - Show statistics about the log file

Usage:
  kvo-log stats <file.klog>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
