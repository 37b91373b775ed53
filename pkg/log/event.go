package log

import (
	"time"
)

// Event represents a registry event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// RegistryID identifies the registry that produced the event (UUID).
	RegistryID string `cbor:"2,keyasint"`

	// Category classifies the event.
	Category Category `cbor:"3,keyasint"`

	// Outcome records what the registry did.
	Outcome Outcome `cbor:"4,keyasint"`

	// Trigger records why the registry acted.
	Trigger Trigger `cbor:"5,keyasint,omitempty"`

	// Type-specific payload. Subscription is set for subscription events,
	// Object for hook events, Error for errors (possibly with Subscription).
	Subscription *SubscriptionRef `cbor:"6,keyasint,omitempty"`
	Object       *ObjectRef       `cbor:"7,keyasint,omitempty"`
	Error        *ErrorEventData  `cbor:"8,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategorySubscribe indicates an add request.
	CategorySubscribe Category = 0
	// CategoryUnsubscribe indicates an explicit remove request.
	CategoryUnsubscribe Category = 1
	// CategoryTeardown indicates removal caused by invalidation.
	CategoryTeardown Category = 2
	// CategoryHook indicates an invalidation hook being attached or released.
	CategoryHook Category = 3
	// CategoryError indicates an error reported by the facility.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategorySubscribe:
		return "SUBSCRIBE"
	case CategoryUnsubscribe:
		return "UNSUBSCRIBE"
	case CategoryTeardown:
		return "TEARDOWN"
	case CategoryHook:
		return "HOOK"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Outcome records the registry's decision for a request.
type Outcome uint8

const (
	// OutcomeApplied means the facility was called.
	OutcomeApplied Outcome = 0
	// OutcomeNoop means the request was absorbed without a facility call.
	OutcomeNoop Outcome = 1
	// OutcomeDeferred means the facility call is left to an in-flight add.
	OutcomeDeferred Outcome = 2
	// OutcomeSkipped means a participant was already gone.
	OutcomeSkipped Outcome = 3
	// OutcomeReleased means a hook was detached.
	OutcomeReleased Outcome = 4
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "APPLIED"
	case OutcomeNoop:
		return "NOOP"
	case OutcomeDeferred:
		return "DEFERRED"
	case OutcomeSkipped:
		return "SKIPPED"
	case OutcomeReleased:
		return "RELEASED"
	default:
		return "UNKNOWN"
	}
}

// Trigger records what caused a removal.
type Trigger uint8

const (
	// TriggerExplicit is a caller request.
	TriggerExplicit Trigger = 0
	// TriggerObserverInvalidated is the observer's invalidation.
	TriggerObserverInvalidated Trigger = 1
	// TriggerTargetInvalidated is the target's invalidation.
	TriggerTargetInvalidated Trigger = 2
)

// String returns the trigger name.
func (t Trigger) String() string {
	switch t {
	case TriggerExplicit:
		return "EXPLICIT"
	case TriggerObserverInvalidated:
		return "OBSERVER_INVALIDATED"
	case TriggerTargetInvalidated:
		return "TARGET_INVALIDATED"
	default:
		return "UNKNOWN"
	}
}

// SubscriptionRef identifies the subscription an event is about.
type SubscriptionRef struct {
	ObserverID    string `cbor:"1,keyasint"`
	ObserverClass string `cbor:"2,keyasint,omitempty"`
	TargetID      string `cbor:"3,keyasint"`
	TargetClass   string `cbor:"4,keyasint,omitempty"`
	KeyPath       string `cbor:"5,keyasint"`

	// Context is the context token's display label.
	Context string `cbor:"6,keyasint,omitempty"`

	// Options is the options' display form (e.g. "new|old").
	Options string `cbor:"7,keyasint,omitempty"`
}

// ObjectRef identifies a single object.
type ObjectRef struct {
	ID    string `cbor:"1,keyasint"`
	Class string `cbor:"2,keyasint,omitempty"`
}

// ErrorEventData captures an error returned by the facility.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}

// Involves returns true if the event refers to the object with the given ID.
func (e Event) Involves(id string) bool {
	if e.Subscription != nil && (e.Subscription.ObserverID == id || e.Subscription.TargetID == id) {
		return true
	}
	return e.Object != nil && e.Object.ID == id
}
