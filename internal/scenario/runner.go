package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/safekvo/safekvo-go/pkg/log"
	"github.com/safekvo/safekvo-go/pkg/registry"
)

// DefaultTimeout bounds a scenario without its own timeout.
const DefaultTimeout = 10 * time.Second

// Config configures a Runner.
type Config struct {
	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// EventLogger receives the event trace of every scenario's registry.
	EventLogger log.Logger

	// DefaultTimeout applies to scenarios without a timeout.
	DefaultTimeout time.Duration
}

// Result is the outcome of one scenario.
type Result struct {
	Scenario *Scenario
	Passed   bool
	Steps    []StepResult
	Stats    registry.Stats
	Counts   Counts
	Duration time.Duration

	// Error is set when the scenario could not be set up.
	Error error
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index       int
	Action      string
	Description string
	Passed      bool

	// Err is the error returned by the action.
	Err error

	// Failures lists the unmet expectations.
	Failures []string
}

// Runner executes scenarios, each against a fresh Session.
type Runner struct {
	config Config
}

// NewRunner creates a runner.
func NewRunner(config Config) *Runner {
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = DefaultTimeout
	}
	return &Runner{config: config}
}

// Run executes a single scenario. Execution stops at the first failing step.
func (r *Runner) Run(ctx context.Context, sc *Scenario) *Result {
	start := time.Now()
	result := &Result{Scenario: sc, Passed: true}

	timeout := r.config.DefaultTimeout
	if sc.Timeout != "" {
		if d, err := time.ParseDuration(sc.Timeout); err == nil {
			timeout = d
		}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	session := NewSession(SessionConfig{
		Logger:      r.config.Logger,
		EventLogger: r.config.EventLogger,
	})

	for _, spec := range sc.Objects {
		if err := session.Create(spec); err != nil {
			result.Passed = false
			result.Error = fmt.Errorf("object %q: %w", spec.Name, err)
			result.Duration = time.Since(start)
			return result
		}
	}

	for i, step := range sc.Steps {
		sr := StepResult{
			Index:       i + 1,
			Action:      step.Action,
			Description: step.Description,
		}
		sr.Err = session.Execute(ctx, step)
		sr.Failures = session.Check(step.Expect, sr.Err)
		sr.Passed = len(sr.Failures) == 0
		result.Steps = append(result.Steps, sr)

		if !sr.Passed {
			result.Passed = false
			r.debugLog("step failed", "scenario", sc.ID, "step", sr.Index, "action", sr.Action, "failures", sr.Failures)
			break
		}
	}

	result.Stats = session.Registry.Stats()
	result.Counts = session.Facility.Counts()
	result.Duration = time.Since(start)
	r.debugLog("scenario finished", "scenario", sc.ID, "passed", result.Passed, "duration", result.Duration)
	return result
}

// RunAll executes scenarios in order.
func (r *Runner) RunAll(ctx context.Context, scenarios []*Scenario) []*Result {
	results := make([]*Result, 0, len(scenarios))
	for _, sc := range scenarios {
		results = append(results, r.Run(ctx, sc))
	}
	return results
}

// debugLog logs a debug message if a logger is configured.
func (r *Runner) debugLog(msg string, args ...any) {
	if r.config.Logger != nil {
		r.config.Logger.Debug(msg, args...)
	}
}
