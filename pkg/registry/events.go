package registry

import (
	"time"

	"github.com/safekvo/safekvo-go/pkg/kvo"
	"github.com/safekvo/safekvo-go/pkg/lifecycle"
	"github.com/safekvo/safekvo-go/pkg/log"
)

// ref describes e for the event trace. Reads options, so the caller
// must hold the lock.
func (e *entry) ref() *log.SubscriptionRef {
	return &log.SubscriptionRef{
		ObserverID:    e.key.observer.String(),
		ObserverClass: e.observerClass,
		TargetID:      e.key.target.String(),
		TargetClass:   e.targetClass,
		KeyPath:       e.key.keyPath,
		Context:       e.key.context.String(),
		Options:       e.options.String(),
	}
}

// refFor describes a request that matched no entry.
func refFor(observer, target *kvo.Object, keyPath string, options kvo.Options, contextLabel string) *log.SubscriptionRef {
	ref := &log.SubscriptionRef{
		ObserverID:    observer.ID().String(),
		ObserverClass: observer.Class(),
		TargetID:      target.ID().String(),
		TargetClass:   target.Class(),
		KeyPath:       keyPath,
		Context:       contextLabel,
	}
	if options != kvo.OptionNone {
		ref.Options = options.String()
	}
	return ref
}

func (r *Registry) subscriptionEvent(category log.Category, outcome log.Outcome, trigger log.Trigger, ref *log.SubscriptionRef) log.Event {
	return log.Event{
		Timestamp:    time.Now(),
		RegistryID:   r.id,
		Category:     category,
		Outcome:      outcome,
		Trigger:      trigger,
		Subscription: ref,
	}
}

func (r *Registry) hookEvent(outcome log.Outcome, id lifecycle.ID, class string) log.Event {
	return log.Event{
		Timestamp:  time.Now(),
		RegistryID: r.id,
		Category:   log.CategoryHook,
		Outcome:    outcome,
		Object:     &log.ObjectRef{ID: id.String(), Class: class},
	}
}

func (r *Registry) errorEvent(ref *log.SubscriptionRef, err error, op string) log.Event {
	return log.Event{
		Timestamp:    time.Now(),
		RegistryID:   r.id,
		Category:     log.CategoryError,
		Subscription: ref,
		Error: &log.ErrorEventData{
			Message: err.Error(),
			Context: op,
		},
	}
}

// emit hands events to the event logger. Called without the lock held.
func (r *Registry) emit(events []log.Event) {
	for _, ev := range events {
		r.events.Log(ev)
	}
}
