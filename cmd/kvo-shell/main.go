// Command kvo-shell is an interactive playground and scenario runner for
// the subscription registry.
//
// Without -scenario it starts an interactive shell in which objects can be
// created, observed, mutated, invalidated and released, showing every
// facility call the registry makes. With -scenario it runs YAML scenario
// files and exits non-zero if any of them fails.
//
// Usage:
//
//	kvo-shell [flags]
//
// Flags:
//
//	-log-level string   Log level: debug, info, warn, error (default "info")
//	-event-log string   File path for registry event logging (CBOR format)
//	-trace              Print every registry event to the console
//	-scenario string    Scenario file or directory to run instead of the shell
//	-verbose            List every step when running scenarios
//	-timeout duration   Timeout per scenario (default 10s)
//
// Examples:
//
//	# Start the interactive shell
//	kvo-shell -trace
//
//	# Run all scenarios and keep the event trace
//	kvo-shell -scenario ./scenarios -event-log run.klog
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/safekvo/safekvo-go/cmd/kvo-shell/interactive"
	"github.com/safekvo/safekvo-go/internal/scenario"
	kvolog "github.com/safekvo/safekvo-go/pkg/log"
)

// Config holds the command configuration.
type Config struct {
	LogLevel     string
	EventLog     string
	Trace        bool
	ScenarioPath string
	Verbose      bool
	Timeout      time.Duration
}

var config Config

func init() {
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&config.EventLog, "event-log", "", "File path for registry event logging (CBOR format)")
	flag.BoolVar(&config.Trace, "trace", false, "Print every registry event to the console")
	flag.StringVar(&config.ScenarioPath, "scenario", "", "Scenario file or directory to run instead of the shell")
	flag.BoolVar(&config.Verbose, "verbose", false, "List every step when running scenarios")
	flag.DurationVar(&config.Timeout, "timeout", scenario.DefaultTimeout, "Timeout per scenario")
}

func main() {
	flag.Parse()

	level, err := validateConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	// Set up event logging if requested
	var fileLogger *kvolog.FileLogger
	if config.EventLog != "" {
		fileLogger, err = kvolog.NewFileLogger(config.EventLog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create event logger: %v\n", err)
			os.Exit(1)
		}
	}
	// Only set logger when non-nil to avoid typed-nil interface issue.
	var events kvolog.Logger
	if fileLogger != nil {
		events = fileLogger
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var code int
	if config.ScenarioPath != "" {
		code = runScenarios(ctx, level, events)
	} else {
		code = runShell(ctx, cancel, level, events)
	}

	if fileLogger != nil {
		if err := fileLogger.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to close event log: %v\n", err)
			code = 1
		}
		written, dropped := fileLogger.Count()
		fmt.Fprintf(os.Stderr, "Event log: %d events written to %s (%d dropped)\n", written, config.EventLog, dropped)
	}

	os.Exit(code)
}

func runScenarios(ctx context.Context, level slog.Level, events kvolog.Logger) int {
	scenarios, err := interactive.LoadScenarios(config.ScenarioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	if config.Trace {
		events = kvolog.NewMultiLogger(events, kvolog.NewSlogAdapter(logger))
	}

	runner := scenario.NewRunner(scenario.Config{
		Logger:         logger,
		EventLogger:    events,
		DefaultTimeout: config.Timeout,
	})

	_, failed := scenario.WriteReport(os.Stdout, runner.RunAll(ctx, scenarios), config.Verbose)
	if failed > 0 {
		return 1
	}
	return 0
}

func runShell(ctx context.Context, cancel context.CancelFunc, level slog.Level, events kvolog.Logger) int {
	shell, err := interactive.New(interactive.Options{
		Level:       level,
		EventLogger: events,
		TraceEvents: config.Trace,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	shell.Run(ctx, cancel)
	return 0
}

func validateConfig() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(config.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid log level %q", config.LogLevel)
	}
	if config.Timeout <= 0 {
		return level, fmt.Errorf("timeout must be positive, got %s", config.Timeout)
	}
	return level, nil
}
