package registry

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
	"weak"

	"github.com/safekvo/safekvo-go/pkg/kvo"
	"github.com/safekvo/safekvo-go/pkg/lifecycle"
	"github.com/safekvo/safekvo-go/pkg/log"
)

// Facility is the notification facility the registry drives.
//
// Register must deliver changes of keyPath on target to observer until a
// matching Unregister. Unregister identifies the observer by ID because
// the observer may already have been reclaimed when its subscriptions are
// torn down.
type Facility interface {
	Register(target, observer *kvo.Object, keyPath string, options kvo.Options, ctx kvo.Context) error
	Unregister(target *kvo.Object, observerID lifecycle.ID, keyPath string, ctx kvo.Context) error
}

// KeyPathValidator is implemented by facilities that can reject a key
// path without registering. AddObserver consults it before a new
// subscription becomes visible, so a duplicate add never joins a
// registration that is bound to fail on its key path.
type KeyPathValidator interface {
	ValidateKeyPath(target *kvo.Object, keyPath string) error
}

// Compile-time interface satisfaction checks.
var (
	_ Facility         = kvo.Host{}
	_ KeyPathValidator = kvo.Host{}
)

// key identifies a subscription.
type key struct {
	observer lifecycle.ID
	target   lifecycle.ID
	keyPath  string
	context  kvo.Context
}

// entryState tracks the facility registration of an entry.
type entryState uint8

const (
	// stateRegistering means Register has been called but not returned.
	stateRegistering entryState = iota

	// stateActive means Register succeeded.
	stateActive
)

// entry is a live subscription.
type entry struct {
	key           key
	observer      weak.Pointer[kvo.Object]
	target        weak.Pointer[kvo.Object]
	observerClass string
	targetClass   string
	options       kvo.Options
	createdAt     time.Time
	state         entryState

	// retired is set when a removal overtakes the registration; the
	// registering call then performs the unregistration.
	retired   bool
	retiredBy log.Trigger

	// duplicates counts adds that joined the entry while registering.
	duplicates int
}

// participant is an object taking part in at least one subscription.
type participant struct {
	hook       lifecycle.Hook
	class      string
	asObserver map[key]struct{}
	asTarget   map[key]struct{}
}

func (p *participant) idle() bool {
	return len(p.asObserver) == 0 && len(p.asTarget) == 0
}

// removal is an unregistration to perform once the lock is released.
type removal struct {
	entry   *entry
	trigger log.Trigger
	ref     *log.SubscriptionRef
}

// counters are the registry's running totals.
type counters struct {
	registrations   atomic.Uint64
	unregistrations atomic.Uint64
	duplicateAdds   atomic.Uint64
	absorbedRemoves atomic.Uint64
	teardowns       atomic.Uint64
	reclaimedSkips  atomic.Uint64
	facilityErrors  atomic.Uint64
}

// Registry tracks subscriptions and keeps facility registrations balanced.
type Registry struct {
	mu sync.Mutex

	id       string
	facility Facility
	logger   *slog.Logger
	events   log.Logger

	// Live subscriptions by key
	entries map[key]*entry

	// Objects with an attached invalidation hook, with the keys they
	// take part in
	participants map[lifecycle.ID]*participant

	stats counters
}

// New creates a registry driving the given facility.
func New(facility Facility) *Registry {
	cfg := DefaultConfig()
	cfg.Facility = facility
	return NewWithConfig(cfg)
}

// NewWithConfig creates a registry with custom configuration.
func NewWithConfig(config Config) *Registry {
	config = config.withDefaults()
	return &Registry{
		id:           config.RegistryID,
		facility:     config.Facility,
		logger:       config.Logger,
		events:       config.EventLogger,
		entries:      make(map[key]*entry),
		participants: make(map[lifecycle.ID]*participant),
	}
}

// ID returns the registry's identifier in the event trace.
func (r *Registry) ID() string {
	return r.id
}

// AddObserver subscribes observer to changes of keyPath on target.
//
// Repeating the call with the same observer, target, key path and context
// is a no-op apart from updating the recorded options. Nil participants,
// and participants that are already invalidated, are ignored. The only
// error returned is the facility's own registration error, unchanged.
// If a participant is invalidated while the registration is in flight,
// the teardown settles the subscription and no error is returned.
//
// A repeated add that arrives while the first registration is still in
// flight returns nil at once. Key path errors are caught before that
// window when the facility implements KeyPathValidator.
func (r *Registry) AddObserver(observer, target *kvo.Object, keyPath string, options kvo.Options, ctx kvo.Context) error {
	if observer == nil || target == nil {
		r.debugLog("AddObserver: nil participant ignored", "keyPath", keyPath)
		return nil
	}

	if v, ok := r.facility.(KeyPathValidator); ok && observer.IsValid() && target.IsValid() {
		if err := v.ValidateKeyPath(target, keyPath); err != nil {
			r.stats.facilityErrors.Add(1)
			r.debugLog("AddObserver: key path rejected", "keyPath", keyPath, "error", err)
			r.emit([]log.Event{r.errorEvent(refFor(observer, target, keyPath, options, ctx.String()), err, "validate")})
			return err
		}
	}

	k := key{observer: observer.ID(), target: target.ID(), keyPath: keyPath, context: ctx}
	var trace []log.Event

	r.mu.Lock()

	if e, exists := r.entries[k]; exists {
		e.options = options
		if e.state == stateRegistering {
			e.duplicates++
		}
		trace = append(trace, r.subscriptionEvent(log.CategorySubscribe, log.OutcomeNoop, log.TriggerExplicit, e.ref()))
		r.mu.Unlock()

		r.stats.duplicateAdds.Add(1)
		r.emit(trace)
		return nil
	}

	obsPart, ok := r.joinLocked(observer, &trace)
	if !ok {
		trace = append(trace, r.subscriptionEvent(log.CategorySubscribe, log.OutcomeSkipped, log.TriggerObserverInvalidated, refFor(observer, target, keyPath, options, ctx.String())))
		r.mu.Unlock()

		r.debugLog("AddObserver: observer already invalidated", "observer", observer, "keyPath", keyPath)
		r.emit(trace)
		return nil
	}
	tgtPart, ok := r.joinLocked(target, &trace)
	if !ok {
		r.releaseIfIdleLocked(observer.ID(), &trace)
		trace = append(trace, r.subscriptionEvent(log.CategorySubscribe, log.OutcomeSkipped, log.TriggerTargetInvalidated, refFor(observer, target, keyPath, options, ctx.String())))
		r.mu.Unlock()

		r.debugLog("AddObserver: target already invalidated", "target", target, "keyPath", keyPath)
		r.emit(trace)
		return nil
	}

	e := &entry{
		key:           k,
		observer:      weak.Make(observer),
		target:        weak.Make(target),
		observerClass: observer.Class(),
		targetClass:   target.Class(),
		options:       options,
		createdAt:     time.Now(),
		state:         stateRegistering,
	}
	r.entries[k] = e
	obsPart.asObserver[k] = struct{}{}
	tgtPart.asTarget[k] = struct{}{}

	r.mu.Unlock()
	r.emit(trace)
	trace = trace[:0]

	err := r.facility.Register(target, observer, keyPath, options, ctx)

	r.mu.Lock()
	ref := e.ref()
	if err != nil {
		if !e.retired {
			r.forgetLocked(e, &trace)
		}
		duplicates := e.duplicates

		if trigger, torn := tornDown(e, observer, target); torn {
			// The teardown already settled the subscription.
			trace = append(trace, r.subscriptionEvent(log.CategorySubscribe, log.OutcomeSkipped, trigger, ref))
			r.mu.Unlock()

			r.debugLog("AddObserver: participant invalidated during registration", "keyPath", keyPath, "error", err)
			r.emit(trace)
			return nil
		}

		trace = append(trace, r.errorEvent(ref, err, "register"))
		r.mu.Unlock()

		r.stats.facilityErrors.Add(1)
		r.debugLog("AddObserver: facility rejected registration", "keyPath", keyPath, "error", err)
		if duplicates > 0 && r.logger != nil {
			r.logger.Warn("registration failed after duplicate adds returned",
				"keyPath", keyPath,
				"target", target,
				"duplicates", duplicates,
				"error", err)
		}
		r.emit(trace)
		return err
	}
	e.state = stateActive
	retired, trigger := e.retired, e.retiredBy
	trace = append(trace, r.subscriptionEvent(log.CategorySubscribe, log.OutcomeApplied, log.TriggerExplicit, ref))
	r.mu.Unlock()

	r.stats.registrations.Add(1)
	r.emit(trace)

	if retired {
		r.unregister(removal{entry: e, trigger: trigger, ref: ref})
	}
	return nil
}

// RemoveObserver removes the subscription of observer to keyPath on target
// registered with ctx. It is a no-op if there is no such subscription.
func (r *Registry) RemoveObserver(observer, target *kvo.Object, keyPath string, ctx kvo.Context) {
	if observer == nil || target == nil {
		return
	}

	k := key{observer: observer.ID(), target: target.ID(), keyPath: keyPath, context: ctx}
	var trace []log.Event
	var pending []removal

	r.mu.Lock()
	e, matched := r.entries[k]
	if matched {
		if rm, now := r.retireLocked(e, log.TriggerExplicit, &trace); now {
			pending = append(pending, rm)
		}
	} else {
		trace = append(trace, r.subscriptionEvent(log.CategoryUnsubscribe, log.OutcomeNoop, log.TriggerExplicit, refFor(observer, target, keyPath, kvo.OptionNone, ctx.String())))
	}
	r.mu.Unlock()

	r.finishRemoval(trace, pending, matched, "RemoveObserver", keyPath)
}

// RemoveObserverAnyContext removes every subscription of observer to
// keyPath on target, whatever context it was registered with. It is a
// no-op if there is none.
func (r *Registry) RemoveObserverAnyContext(observer, target *kvo.Object, keyPath string) {
	if observer == nil || target == nil {
		return
	}

	observerID := observer.ID()
	var trace []log.Event
	var pending []removal

	r.mu.Lock()
	var matches []*entry
	if p, ok := r.participants[target.ID()]; ok {
		for k := range p.asTarget {
			if k.observer == observerID && k.keyPath == keyPath {
				matches = append(matches, r.entries[k])
			}
		}
	}
	for _, e := range matches {
		if rm, now := r.retireLocked(e, log.TriggerExplicit, &trace); now {
			pending = append(pending, rm)
		}
	}
	if len(matches) == 0 {
		trace = append(trace, r.subscriptionEvent(log.CategoryUnsubscribe, log.OutcomeNoop, log.TriggerExplicit, refFor(observer, target, keyPath, kvo.OptionNone, "*")))
	}
	r.mu.Unlock()

	r.finishRemoval(trace, pending, len(matches) > 0, "RemoveObserverAnyContext", keyPath)
}

func (r *Registry) finishRemoval(trace []log.Event, pending []removal, matched bool, op, keyPath string) {
	if !matched {
		r.stats.absorbedRemoves.Add(1)
		r.debugLog(op+": no matching subscription", "keyPath", keyPath)
	}
	r.emit(trace)
	for _, rm := range pending {
		r.unregister(rm)
	}
}

// invalidated is the hook attached to every participant.
func (r *Registry) invalidated(id lifecycle.ID) {
	var trace []log.Event
	var pending []removal

	r.mu.Lock()
	p, ok := r.participants[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	// The hook has run; there is nothing left to cancel.
	delete(r.participants, id)

	retire := func(keys map[key]struct{}, trigger log.Trigger) {
		for k := range keys {
			e, exists := r.entries[k]
			if !exists {
				continue
			}
			r.stats.teardowns.Add(1)
			if rm, now := r.retireLocked(e, trigger, &trace); now {
				pending = append(pending, rm)
			}
		}
	}
	retire(p.asObserver, log.TriggerObserverInvalidated)
	retire(p.asTarget, log.TriggerTargetInvalidated)
	r.mu.Unlock()

	r.debugLog("invalidated: tearing down subscriptions", "object", id, "class", p.class, "count", len(pending))
	r.emit(trace)
	for _, rm := range pending {
		r.unregister(rm)
	}
}

// joinLocked returns the participant record for obj, attaching the
// invalidation hook on first use. Returns false if obj is already
// being invalidated.
func (r *Registry) joinLocked(obj *kvo.Object, trace *[]log.Event) (*participant, bool) {
	id := obj.ID()
	if p, ok := r.participants[id]; ok {
		return p, true
	}

	hook, ok := obj.Lifetime().OnInvalidate(r.invalidated)
	if !ok {
		return nil, false
	}

	p := &participant{
		hook:       hook,
		class:      obj.Class(),
		asObserver: make(map[key]struct{}),
		asTarget:   make(map[key]struct{}),
	}
	r.participants[id] = p
	*trace = append(*trace, r.hookEvent(log.OutcomeApplied, id, p.class))
	return p, true
}

// releaseIfIdleLocked cancels the hook of a participant that no longer
// takes part in any subscription.
func (r *Registry) releaseIfIdleLocked(id lifecycle.ID, trace *[]log.Event) {
	p, ok := r.participants[id]
	if !ok || !p.idle() {
		return
	}
	p.hook.Cancel()
	delete(r.participants, id)
	*trace = append(*trace, r.hookEvent(log.OutcomeReleased, id, p.class))
}

// forgetLocked drops all bookkeeping for e.
func (r *Registry) forgetLocked(e *entry, trace *[]log.Event) {
	delete(r.entries, e.key)
	if p, ok := r.participants[e.key.observer]; ok {
		delete(p.asObserver, e.key)
	}
	if p, ok := r.participants[e.key.target]; ok {
		delete(p.asTarget, e.key)
	}
	r.releaseIfIdleLocked(e.key.observer, trace)
	r.releaseIfIdleLocked(e.key.target, trace)
}

// retireLocked removes e from the registry. It returns the removal to
// perform when e's registration has completed; otherwise the removal is
// left to the registering call and ok is false.
func (r *Registry) retireLocked(e *entry, trigger log.Trigger, trace *[]log.Event) (rm removal, ok bool) {
	r.forgetLocked(e, trace)
	ref := e.ref()

	if e.state == stateRegistering {
		e.retired = true
		e.retiredBy = trigger
		*trace = append(*trace, r.subscriptionEvent(removalCategory(trigger), log.OutcomeDeferred, trigger, ref))
		return removal{}, false
	}
	return removal{entry: e, trigger: trigger, ref: ref}, true
}

// unregister performs the facility call for a retired entry. Called
// without the lock held, at most once per entry.
func (r *Registry) unregister(rm removal) {
	e := rm.entry
	category := removalCategory(rm.trigger)

	target := e.target.Value()
	if target == nil {
		// The target's storage is gone, and its registrations with it.
		r.stats.reclaimedSkips.Add(1)
		r.emit([]log.Event{r.subscriptionEvent(category, log.OutcomeSkipped, rm.trigger, rm.ref)})
		return
	}

	if err := r.facility.Unregister(target, e.key.observer, e.key.keyPath, e.key.context); err != nil {
		r.stats.facilityErrors.Add(1)
		if r.logger != nil {
			r.logger.Warn("facility rejected unregistration",
				"keyPath", e.key.keyPath,
				"target", target,
				"trigger", rm.trigger.String(),
				"error", err)
		}
		r.emit([]log.Event{r.errorEvent(rm.ref, err, "unregister")})
		return
	}

	r.stats.unregistrations.Add(1)
	r.emit([]log.Event{r.subscriptionEvent(category, log.OutcomeApplied, rm.trigger, rm.ref)})
}

// tornDown reports whether an invalidation of either participant has
// overtaken e's registration, and which one.
func tornDown(e *entry, observer, target *kvo.Object) (log.Trigger, bool) {
	switch {
	case e.retired && e.retiredBy != log.TriggerExplicit:
		return e.retiredBy, true
	case !target.IsValid():
		return log.TriggerTargetInvalidated, true
	case !observer.IsValid():
		return log.TriggerObserverInvalidated, true
	}
	return log.TriggerExplicit, false
}

func removalCategory(trigger log.Trigger) log.Category {
	if trigger == log.TriggerExplicit {
		return log.CategoryUnsubscribe
	}
	return log.CategoryTeardown
}

// debugLog logs a debug message if a logger is configured.
func (r *Registry) debugLog(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
