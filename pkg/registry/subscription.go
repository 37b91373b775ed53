package registry

import (
	"slices"
	"time"

	"github.com/safekvo/safekvo-go/pkg/kvo"
	"github.com/safekvo/safekvo-go/pkg/lifecycle"
)

// Subscription is a snapshot of a live subscription.
type Subscription struct {
	ObserverID    lifecycle.ID
	ObserverClass string
	TargetID      lifecycle.ID
	TargetClass   string
	KeyPath       string
	Options       kvo.Options
	Context       kvo.Context
	CreatedAt     time.Time

	// Pending is true while the facility registration is in flight.
	Pending bool
}

// Stats are running totals of registry decisions.
type Stats struct {
	// Facility calls that succeeded
	Registrations   uint64
	Unregistrations uint64

	// Requests absorbed without a facility call
	DuplicateAdds   uint64
	AbsorbedRemoves uint64

	// Subscriptions retired by an invalidation
	Teardowns uint64

	// Unregistrations skipped because the target was already reclaimed
	ReclaimedSkips uint64

	// Errors returned by the facility
	FacilityErrors uint64

	// Current state
	Subscriptions int
	Participants  int
}

// Count returns the number of live subscriptions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Participants returns the number of objects with an attached
// invalidation hook.
func (r *Registry) Participants() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants)
}

// IsObserving reports whether the subscription exists.
func (r *Registry) IsObserving(observer, target *kvo.Object, keyPath string, ctx kvo.Context) bool {
	if observer == nil || target == nil {
		return false
	}
	k := key{observer: observer.ID(), target: target.ID(), keyPath: keyPath, context: ctx}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[k]
	return ok
}

// Subscriptions returns a snapshot of all live subscriptions, oldest first.
func (r *Registry) Subscriptions() []Subscription {
	r.mu.Lock()
	result := make([]Subscription, 0, len(r.entries))
	for _, e := range r.entries {
		result = append(result, Subscription{
			ObserverID:    e.key.observer,
			ObserverClass: e.observerClass,
			TargetID:      e.key.target,
			TargetClass:   e.targetClass,
			KeyPath:       e.key.keyPath,
			Options:       e.options,
			Context:       e.key.context,
			CreatedAt:     e.createdAt,
			Pending:       e.state == stateRegistering,
		})
	}
	r.mu.Unlock()

	slices.SortFunc(result, func(a, b Subscription) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return result
}

// SubscriptionsOf returns the live subscriptions the object with the given
// ID takes part in, as observer or target.
func (r *Registry) SubscriptionsOf(id lifecycle.ID) []Subscription {
	var result []Subscription
	for _, s := range r.Subscriptions() {
		if s.ObserverID == id || s.TargetID == id {
			result = append(result, s)
		}
	}
	return result
}

// Stats returns the registry's running totals.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	subs, parts := len(r.entries), len(r.participants)
	r.mu.Unlock()

	return Stats{
		Registrations:   r.stats.registrations.Load(),
		Unregistrations: r.stats.unregistrations.Load(),
		DuplicateAdds:   r.stats.duplicateAdds.Load(),
		AbsorbedRemoves: r.stats.absorbedRemoves.Load(),
		Teardowns:       r.stats.teardowns.Load(),
		ReclaimedSkips:  r.stats.reclaimedSkips.Load(),
		FacilityErrors:  r.stats.facilityErrors.Load(),
		Subscriptions:   subs,
		Participants:    parts,
	}
}
