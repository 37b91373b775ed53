package kvo

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"weak"

	"github.com/safekvo/safekvo-go/pkg/lifecycle"
)

// Object errors.
var (
	ErrUnknownKeyPath  = errors.New("unknown key path")
	ErrNilIntermediate = errors.New("nil object in key path")
	ErrNotRegistered   = errors.New("observer not registered for key path")
	ErrNilObserver     = errors.New("nil observer")
	ErrInvalidObject   = errors.New("object is invalidated")
)

// Object is an observable host object with declared attributes.
//
// An Object is both a potential target (its attributes can be observed)
// and a potential observer (changes are delivered to the handler set with
// HandleChanges). Registrations on an object are counted: adding the same
// observation twice requires removing it twice.
type Object struct {
	class    string
	lifetime *lifecycle.Lifetime

	mu           sync.RWMutex
	attributes   map[string]*Attribute
	observations []*observation
	handler      func(Change)
}

// observation is one registration in an object's observation table.
// The observer is held weakly; the table never keeps an observer alive.
type observation struct {
	observer   weak.Pointer[Object]
	observerID lifecycle.ID
	keyPath    string
	options    Options
	context    Context
}

// NewObject creates an object of the given class. The object is
// invalidated explicitly with Invalidate, or automatically once it has
// been garbage collected.
func NewObject(class string) *Object {
	o := &Object{
		class:      class,
		lifetime:   lifecycle.NewLifetime(),
		attributes: make(map[string]*Attribute),
	}
	lifecycle.Track(o, o.lifetime)
	return o
}

// ID returns the object's identity.
func (o *Object) ID() lifecycle.ID {
	return o.lifetime.ID()
}

// Class returns the object's class name.
func (o *Object) Class() string {
	return o.class
}

// Lifetime returns the object's lifetime.
func (o *Object) Lifetime() *lifecycle.Lifetime {
	return o.lifetime
}

// IsValid returns true until the object is invalidated.
func (o *Object) IsValid() bool {
	return o.lifetime.IsValid()
}

// Invalidate announces that the object is about to be reclaimed.
// Returns false if it was already invalidated.
func (o *Object) Invalidate() bool {
	return o.lifetime.Invalidate()
}

// String returns "Class(abcdef12)".
func (o *Object) String() string {
	id := o.ID().String()
	return fmt.Sprintf("%s(%s)", o.class, id[:8])
}

// Declare adds an attribute, replacing any attribute with the same key.
func (o *Object) Declare(meta AttributeMetadata) error {
	if meta.Key == "" || strings.Contains(meta.Key, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidAttributeKey, meta.Key)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.attributes[meta.Key] = newAttribute(&meta)
	return nil
}

// Attribute returns the attribute declared under key.
func (o *Object) Attribute(key string) (*Attribute, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	attr, ok := o.attributes[key]
	return attr, ok
}

// Keys returns the declared attribute keys in sorted order.
func (o *Object) Keys() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	keys := make([]string, 0, len(o.attributes))
	for k := range o.attributes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// HandleChanges sets the function receiving changes for observations in
// which this object is the observer.
func (o *Object) HandleChanges(fn func(Change)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.handler = fn
}

func (o *Object) deliver(change Change) {
	o.mu.RLock()
	fn := o.handler
	o.mu.RUnlock()

	if fn != nil {
		fn(change)
	}
}

// AddObserver registers observer for changes of keyPath on o. Each call
// adds a registration, even if an identical one exists.
func (o *Object) AddObserver(observer *Object, keyPath string, options Options, ctx Context) error {
	if observer == nil {
		return ErrNilObserver
	}
	if !o.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidObject, o)
	}
	if err := o.validateKeyPath(keyPath); err != nil {
		return err
	}

	o.mu.Lock()
	o.observations = append(o.observations, &observation{
		observer:   weak.Make(observer),
		observerID: observer.ID(),
		keyPath:    keyPath,
		options:    options,
		context:    ctx,
	})
	o.mu.Unlock()

	if options.Has(OptionInitial) {
		change := Change{
			KeyPath: keyPath,
			Target:  o,
			Context: ctx,
			Initial: true,
		}
		if options.Has(OptionNew) {
			change.New, _ = o.ValueForKeyPath(keyPath)
		}
		observer.deliver(change)
	}

	return nil
}

// RemoveObserver removes the most recent registration matching the
// observer, key path and context. It returns ErrNotRegistered if there is
// none.
func (o *Object) RemoveObserver(observerID lifecycle.ID, keyPath string, ctx Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i := len(o.observations) - 1; i >= 0; i-- {
		ob := o.observations[i]
		if ob.observerID == observerID && ob.keyPath == keyPath && ob.context == ctx {
			o.observations = slices.Delete(o.observations, i, i+1)
			return nil
		}
	}

	return fmt.Errorf("%w: %q on %s (context %s)", ErrNotRegistered, keyPath, o, ctx)
}

// ObservationCount returns the number of registrations on o.
func (o *Object) ObservationCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.observations)
}

// ObservationCountFor returns the number of registrations on o held by
// the given observer.
func (o *Object) ObservationCountFor(observerID lifecycle.ID) int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	n := 0
	for _, ob := range o.observations {
		if ob.observerID == observerID {
			n++
		}
	}
	return n
}

// matching returns the registrations affected by a change of relPath.
func (o *Object) matching(relPath string) []*observation {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var out []*observation
	for _, ob := range o.observations {
		if ob.keyPath == relPath || strings.HasPrefix(ob.keyPath, relPath+".") {
			out = append(out, ob)
		}
	}
	return out
}

// SetValue sets a single attribute. Equivalent to SetValueForKeyPath with
// a one-segment path.
func (o *Object) SetValue(key string, value any) error {
	return o.SetValueForKeyPath(key, value)
}

// Value returns a single attribute's value.
func (o *Object) Value(key string) (any, error) {
	return o.ValueForKeyPath(key)
}
