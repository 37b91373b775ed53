// Package interactive provides the interactive command-line interface
// for kvo-shell.
package interactive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/safekvo/safekvo-go/internal/scenario"
	"github.com/safekvo/safekvo-go/pkg/kvo"
	"github.com/safekvo/safekvo-go/pkg/log"
)

// Options configures the shell.
type Options struct {
	// Level is the minimum level of operational log output.
	Level slog.Leveler

	// EventLogger receives the registry's event trace. May be nil.
	EventLogger log.Logger

	// TraceEvents prints every registry event to the console.
	TraceEvents bool
}

// Shell handles interactive mode for kvo-shell.
type Shell struct {
	session *scenario.Session
	options Options
	rl      *readline.Instance
	out     io.Writer
}

// New creates a new interactive shell with a fresh session.
func New(opts Options) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "kvo> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	s := newShell(rl.Stdout(), rl.Stderr(), opts)
	s.rl = rl
	return s, nil
}

// newShell creates a shell writing to out, without a line editor.
func newShell(out, logOut io.Writer, opts Options) *Shell {
	if opts.Level == nil {
		opts.Level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: opts.Level}))

	events := opts.EventLogger
	if opts.TraceEvents {
		events = log.NewMultiLogger(events, log.NewSlogAdapter(logger))
	}

	return &Shell{
		session: scenario.NewSession(scenario.SessionConfig{
			Logger:      logger,
			EventLogger: events,
		}),
		options: opts,
		out:     out,
	}
}

// Run starts the interactive command loop.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}

		if s.Execute(ctx, line) {
			cancel()
			return
		}
	}
}

// Execute runs one command line. It returns true when the shell should exit.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" || strings.HasPrefix(input, "#") {
		return false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "new", "n":
		s.cmdNew(args)

	case "declare", "d":
		s.cmdDeclare(args)

	case "observe", "o":
		s.cmdObserve(ctx, args)

	case "unobserve", "u":
		s.cmdUnobserve(ctx, args)

	case "unobserve-any", "ua":
		s.cmdUnobserveAny(ctx, args)

	case "set", "s":
		s.cmdSet(ctx, args)

	case "get", "g":
		s.cmdGet(args)

	case "invalidate", "inv":
		s.cmdObjectAction(ctx, scenario.ActionInvalidate, args)

	case "release", "rel":
		s.cmdObjectAction(ctx, scenario.ActionRelease, args)

	case "objects":
		s.cmdObjects()

	case "list", "ls", "l":
		s.cmdList()

	case "stats":
		s.cmdStats()

	case "run":
		s.cmdRun(ctx, args)

	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return true

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *Shell) printHelp() {
	fmt.Fprint(s.out, `
Commands:
  new <name> [class]                          Create an object
  declare <name> <key> <type> [default]       Declare an attribute (types: int64, uint32, string, object, ...)
  observe <obs> <target> <path> [opts] [ctx]  Subscribe (opts: new,old,initial,prior; ctx: label)
  unobserve <obs> <target> <path> [ctx]       Unsubscribe one context
  unobserve-any <obs> <target> <path>         Unsubscribe every context
  set <name> <path> <value|@object|nil>       Set a value and notify observers
  get <name> <path>                           Read a value
  invalidate <name>                           Invalidate an object
  release <name>                              Drop an object and wait for collection
  objects                                     List objects
  list                                        List subscriptions
  stats                                       Show registry and facility counters
  run <file|dir>                              Run scenario files
  help                                        Show this help
  quit                                        Exit

`)
}

func (s *Shell) cmdNew(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: new <name> [class]")
		return
	}
	spec := scenario.ObjectSpec{Name: args[0], Class: "Object"}
	if len(args) > 1 {
		spec.Class = args[1]
	}
	if err := s.session.Create(spec); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	obj, _ := s.session.Object(spec.Name)
	fmt.Fprintf(s.out, "Created %s = %s\n", spec.Name, obj)
}

func (s *Shell) cmdDeclare(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(s.out, "Usage: declare <name> <key> <type> [default]")
		return
	}
	attr := scenario.AttributeSpec{Key: args[1], Type: args[2], Nullable: true}
	if len(args) > 3 {
		attr.Default = parseValue(args[3])
		attr.Nullable = false
	}
	if err := s.session.Declare(args[0], attr); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Declared %s.%s (%s)\n", args[0], args[1], args[2])
}

func (s *Shell) cmdObserve(ctx context.Context, args []string) {
	if len(args) < 3 {
		fmt.Fprintln(s.out, "Usage: observe <observer> <target> <path> [options] [context]")
		return
	}
	params := tupleParams(args)
	params["options"] = "new"
	if len(args) > 3 {
		params["options"] = args[3]
	}
	if len(args) > 4 {
		params["context"] = args[4]
	}
	s.step(ctx, scenario.ActionAddObserver, params)
}

func (s *Shell) cmdUnobserve(ctx context.Context, args []string) {
	if len(args) < 3 {
		fmt.Fprintln(s.out, "Usage: unobserve <observer> <target> <path> [context]")
		return
	}
	params := tupleParams(args)
	if len(args) > 3 {
		params["context"] = args[3]
	}
	s.step(ctx, scenario.ActionRemoveObserver, params)
}

func (s *Shell) cmdUnobserveAny(ctx context.Context, args []string) {
	if len(args) < 3 {
		fmt.Fprintln(s.out, "Usage: unobserve-any <observer> <target> <path>")
		return
	}
	s.step(ctx, scenario.ActionRemoveObserverAny, tupleParams(args))
}

func (s *Shell) cmdSet(ctx context.Context, args []string) {
	if len(args) < 3 {
		fmt.Fprintln(s.out, "Usage: set <name> <path> <value|@object|nil>")
		return
	}
	params := map[string]any{"object": args[0], "key_path": args[1]}
	if ref, ok := strings.CutPrefix(args[2], "@"); ok {
		params["value_object"] = ref
	} else {
		params["value"] = parseValue(strings.Join(args[2:], " "))
	}
	s.step(ctx, scenario.ActionSetValue, params)
}

func (s *Shell) cmdGet(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: get <name> <path>")
		return
	}
	obj, err := s.session.Object(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	v, err := obj.ValueForKeyPath(args[1])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "%s.%s = %s\n", args[0], args[1], formatValue(v))
}

func (s *Shell) cmdObjectAction(ctx context.Context, action string, args []string) {
	if len(args) < 1 {
		fmt.Fprintf(s.out, "Usage: %s <name>\n", action)
		return
	}
	if action == scenario.ActionRelease {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	s.step(ctx, action, map[string]any{"object": args[0]})
}

// step executes an action through the session and reports the outcome.
func (s *Shell) step(ctx context.Context, action string, params map[string]any) {
	before := s.session.Facility.Counts()
	err := s.session.Execute(ctx, scenario.Step{Action: action, Params: params})
	after := s.session.Facility.Counts()

	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	} else {
		fmt.Fprintf(s.out, "OK (register +%d, unregister +%d, %d live)\n",
			after.Adds-before.Adds, after.Removes-before.Removes, s.session.Registry.Count())
	}
	if after.Violations > before.Violations {
		fmt.Fprintf(s.out, "WARNING: facility saw %d over-removal(s)\n", after.Violations-before.Violations)
	}
}

func (s *Shell) cmdObjects() {
	names := s.session.Names()
	if len(names) == 0 {
		fmt.Fprintln(s.out, "No objects.")
		return
	}
	for _, name := range names {
		obj, _ := s.session.Object(name)
		notes, _ := s.session.Notifications(name)
		state := "valid"
		if !obj.IsValid() {
			state = "invalid"
		}
		fmt.Fprintf(s.out, "  %-12s %-24s %-8s keys=%s observations=%d notifications=%d\n",
			name, obj, state, strings.Join(obj.Keys(), ","), obj.ObservationCount(), notes)
	}
}

func (s *Shell) cmdList() {
	subs := s.session.Registry.Subscriptions()
	if len(subs) == 0 {
		fmt.Fprintln(s.out, "No subscriptions.")
		return
	}
	for _, sub := range subs {
		pending := ""
		if sub.Pending {
			pending = " (pending)"
		}
		fmt.Fprintf(s.out, "  %s -> %s.%s [%s] ctx=%s%s\n",
			s.session.NameOf(sub.ObserverID), s.session.NameOf(sub.TargetID),
			sub.KeyPath, sub.Options, sub.Context, pending)
	}
}

func (s *Shell) cmdStats() {
	st := s.session.Registry.Stats()
	c := s.session.Facility.Counts()

	fmt.Fprintf(s.out, "Subscriptions:    %d\n", st.Subscriptions)
	fmt.Fprintf(s.out, "Participants:     %d\n", st.Participants)
	fmt.Fprintf(s.out, "Registrations:    %d\n", st.Registrations)
	fmt.Fprintf(s.out, "Unregistrations:  %d\n", st.Unregistrations)
	fmt.Fprintf(s.out, "Duplicate adds:   %d\n", st.DuplicateAdds)
	fmt.Fprintf(s.out, "Absorbed removes: %d\n", st.AbsorbedRemoves)
	fmt.Fprintf(s.out, "Teardowns:        %d\n", st.Teardowns)
	fmt.Fprintf(s.out, "Reclaimed skips:  %d\n", st.ReclaimedSkips)
	fmt.Fprintf(s.out, "Facility errors:  %d\n", st.FacilityErrors)
	fmt.Fprintf(s.out, "Facility calls:   add=%d remove=%d violations=%d\n", c.Adds, c.Removes, c.Violations)
}

func (s *Shell) cmdRun(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: run <file|dir>")
		return
	}
	scenarios, err := LoadScenarios(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	runner := scenario.NewRunner(scenario.Config{EventLogger: s.options.EventLogger})
	scenario.WriteReport(s.out, runner.RunAll(ctx, scenarios), true)
}

// LoadScenarios loads a scenario file, or every scenario in a directory.
func LoadScenarios(path string) ([]*scenario.Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return scenario.LoadDirectory(path)
	}
	sc, err := scenario.LoadScenario(path)
	if err != nil {
		return nil, err
	}
	return []*scenario.Scenario{sc}, nil
}

func tupleParams(args []string) map[string]any {
	return map[string]any{
		"observer": args[0],
		"target":   args[1],
		"key_path": args[2],
	}
}

// parseValue converts a command-line token into an attribute value.
func parseValue(s string) any {
	switch s {
	case "nil", "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		return unquoted
	}
	if n, err := strconv.ParseInt(s, 0, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case *kvo.Object:
		return val.String()
	case string:
		return strconv.Quote(val)
	default:
		return fmt.Sprint(val)
	}
}
