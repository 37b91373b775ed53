package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync/atomic"
	"time"

	"github.com/safekvo/safekvo-go/pkg/kvo"
	"github.com/safekvo/safekvo-go/pkg/lifecycle"
	"github.com/safekvo/safekvo-go/pkg/log"
	"github.com/safekvo/safekvo-go/pkg/registry"
	"golang.org/x/sync/errgroup"
)

// Session errors.
var (
	ErrUnknownObject  = errors.New("unknown object")
	ErrReleasedObject = errors.New("object was released")
	ErrDuplicateName  = errors.New("object name already in use")
	ErrMissingParam   = errors.New("missing parameter")
)

// SessionConfig configures a Session.
type SessionConfig struct {
	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// EventLogger receives the registry's event trace.
	EventLogger log.Logger
}

// Session holds named objects and a registry over a counting strict
// facility. It is not safe for concurrent use; the registry it drives is.
type Session struct {
	Registry *registry.Registry
	Facility *CountingFacility

	logger        *slog.Logger
	objects       map[string]*kvo.Object
	lifetimes     map[string]*lifecycle.Lifetime
	released      map[string]bool
	contexts      map[string]kvo.Context
	notifications map[string]*atomic.Int64
}

// NewSession creates an empty session.
func NewSession(config SessionConfig) *Session {
	facility := NewCountingFacility(kvo.Host{Strict: true})
	return &Session{
		Registry: registry.NewWithConfig(registry.Config{
			Facility:    facility,
			Logger:      config.Logger,
			EventLogger: config.EventLogger,
		}),
		Facility:      facility,
		logger:        config.Logger,
		objects:       make(map[string]*kvo.Object),
		lifetimes:     make(map[string]*lifecycle.Lifetime),
		released:      make(map[string]bool),
		contexts:      make(map[string]kvo.Context),
		notifications: make(map[string]*atomic.Int64),
	}
}

// Create creates a named object and declares its attributes.
func (s *Session) Create(spec ObjectSpec) error {
	if _, exists := s.lifetimes[spec.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, spec.Name)
	}

	class := spec.Class
	if class == "" {
		class = "Object"
	}
	obj := kvo.NewObject(class)

	// The handler must not capture obj, or release could never collect it.
	counter := &atomic.Int64{}
	obj.HandleChanges(func(kvo.Change) { counter.Add(1) })

	for _, attr := range spec.Attributes {
		if err := declare(obj, attr); err != nil {
			return err
		}
	}

	s.objects[spec.Name] = obj
	s.lifetimes[spec.Name] = obj.Lifetime()
	s.notifications[spec.Name] = counter
	s.debugLog("created object", "name", spec.Name, "object", obj)
	return nil
}

// Declare declares an attribute on a named object.
func (s *Session) Declare(name string, attr AttributeSpec) error {
	obj, err := s.Object(name)
	if err != nil {
		return err
	}
	return declare(obj, attr)
}

func declare(obj *kvo.Object, attr AttributeSpec) error {
	dt, err := kvo.ParseDataType(attr.Type)
	if err != nil {
		return err
	}
	return obj.Declare(kvo.AttributeMetadata{
		Key:      attr.Key,
		Type:     dt,
		Nullable: attr.Nullable,
		Default:  attr.Default,
		MinValue: attr.Min,
		MaxValue: attr.Max,
	})
}

// Object returns the named object.
func (s *Session) Object(name string) (*kvo.Object, error) {
	if obj, ok := s.objects[name]; ok {
		return obj, nil
	}
	if s.released[name] {
		return nil, fmt.Errorf("%w: %q", ErrReleasedObject, name)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownObject, name)
}

// Names returns the names of the objects still held, sorted.
func (s *Session) Names() []string {
	names := make([]string, 0, len(s.objects))
	for name := range s.objects {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NameOf returns the session name of the object with the given ID.
func (s *Session) NameOf(id lifecycle.ID) string {
	for name, lt := range s.lifetimes {
		if lt.ID() == id {
			return name
		}
	}
	return id.String()[:8]
}

// Context returns the context token for label. The same label yields the
// same token for the whole session; an empty label is the empty context.
func (s *Session) Context(label string) kvo.Context {
	if label == "" || label == "-" {
		return kvo.Context{}
	}
	if ctx, ok := s.contexts[label]; ok {
		return ctx
	}
	ctx := kvo.NewContext(label)
	s.contexts[label] = ctx
	return ctx
}

// Notifications returns the number of changes delivered to the named
// object so far.
func (s *Session) Notifications(name string) (int64, error) {
	counter, ok := s.notifications[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownObject, name)
	}
	return counter.Load(), nil
}

// Execute performs a single step's action.
func (s *Session) Execute(ctx context.Context, step Step) error {
	p := params(step.Params)

	switch step.Action {
	case ActionAddObserver:
		observer, target, keyPath, err := s.tuple(p)
		if err != nil {
			return err
		}
		options, err := kvo.ParseOptions(p.str("options", "new"))
		if err != nil {
			return err
		}
		return s.Registry.AddObserver(observer, target, keyPath, options, s.Context(p.str("context", "")))

	case ActionRemoveObserver:
		observer, target, keyPath, err := s.tuple(p)
		if err != nil {
			return err
		}
		s.Registry.RemoveObserver(observer, target, keyPath, s.Context(p.str("context", "")))
		return nil

	case ActionRemoveObserverAny:
		observer, target, keyPath, err := s.tuple(p)
		if err != nil {
			return err
		}
		s.Registry.RemoveObserverAnyContext(observer, target, keyPath)
		return nil

	case ActionSetValue:
		obj, err := s.param(p, "object")
		if err != nil {
			return err
		}
		keyPath := p.str("key_path", "")
		if keyPath == "" {
			return fmt.Errorf("%w: key_path", ErrMissingParam)
		}
		value := p["value"]
		if ref := p.str("value_object", ""); ref != "" {
			if value, err = s.Object(ref); err != nil {
				return err
			}
		}
		return obj.SetValueForKeyPath(keyPath, value)

	case ActionInvalidate:
		obj, err := s.param(p, "object")
		if err != nil {
			return err
		}
		obj.Invalidate()
		return nil

	case ActionRelease:
		return s.Release(ctx, p.str("object", ""))

	case ActionConcurrentAddRemove:
		return s.concurrentAddRemove(ctx, p)

	case ActionCheck:
		return nil

	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
}

// Release drops the session's reference to the named object and forces
// garbage collection until the object's invalidation has completed.
func (s *Session) Release(ctx context.Context, name string) error {
	if _, err := s.Object(name); err != nil {
		return err
	}
	lt := s.lifetimes[name]
	delete(s.objects, name)
	s.released[name] = true

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		runtime.GC()
		select {
		case <-lt.Done():
			s.debugLog("released object collected", "name", name)
			return nil
		case <-ctx.Done():
			return fmt.Errorf("object %q not collected: %w", name, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (s *Session) concurrentAddRemove(ctx context.Context, p params) error {
	observer, target, keyPath, err := s.tuple(p)
	if err != nil {
		return err
	}
	workers := p.int("workers", 4)
	iterations := p.int("iterations", 100)
	subCtx := s.Context(p.str("context", ""))

	g, gctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			for range iterations {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := s.Registry.AddObserver(observer, target, keyPath, kvo.OptionNew, subCtx); err != nil {
					return err
				}
				s.Registry.RemoveObserver(observer, target, keyPath, subCtx)
			}
			return nil
		})
	}
	return g.Wait()
}

// tuple resolves the observer, target and key_path parameters.
func (s *Session) tuple(p params) (observer, target *kvo.Object, keyPath string, err error) {
	if observer, err = s.param(p, "observer"); err != nil {
		return nil, nil, "", err
	}
	if target, err = s.param(p, "target"); err != nil {
		return nil, nil, "", err
	}
	if keyPath = p.str("key_path", ""); keyPath == "" {
		return nil, nil, "", fmt.Errorf("%w: key_path", ErrMissingParam)
	}
	return observer, target, keyPath, nil
}

func (s *Session) param(p params, key string) (*kvo.Object, error) {
	name := p.str(key, "")
	if name == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingParam, key)
	}
	return s.Object(name)
}

// debugLog logs a debug message if a logger is configured.
func (s *Session) debugLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

// params provides typed access to step parameters.
type params map[string]any

func (p params) str(key, def string) string {
	if v, ok := p[key]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return def
}

func (p params) int(key string, def int) int {
	if n, ok := toInt(p[key]); ok {
		return n
	}
	return def
}

// toInt converts the numeric types YAML decodes into an int.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
