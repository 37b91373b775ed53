// Package scenario loads and runs YAML scenarios against a subscription
// registry.
//
// A scenario declares a set of named objects and a sequence of steps. Each
// step performs one action (subscribe, unsubscribe, set a value, invalidate
// or release an object, ...) and may check expectations afterwards: the
// number of facility registrations and unregistrations so far, the number
// of live subscriptions, per-object observation and notification counts,
// and the error returned by the step.
package scenario

import (
	"fmt"
)

// Scenario is a single scenario loaded from YAML.
type Scenario struct {
	// ID is the unique scenario identifier (e.g., "SC-DUP-001").
	ID string `yaml:"id"`

	// Name is a human-readable name.
	Name string `yaml:"name"`

	// Description explains what the scenario demonstrates.
	Description string `yaml:"description"`

	// Objects are created before the first step, in order.
	Objects []ObjectSpec `yaml:"objects"`

	// Steps are the actions to execute in order.
	Steps []Step `yaml:"steps"`

	// Timeout is the maximum duration for the scenario (e.g., "5s").
	Timeout string `yaml:"timeout,omitempty"`

	// Tags for categorizing scenarios.
	Tags []string `yaml:"tags,omitempty"`
}

// ObjectSpec declares a named object.
type ObjectSpec struct {
	Name       string          `yaml:"name"`
	Class      string          `yaml:"class"`
	Attributes []AttributeSpec `yaml:"attributes,omitempty"`
}

// AttributeSpec declares an attribute of an object.
type AttributeSpec struct {
	Key      string `yaml:"key"`
	Type     string `yaml:"type"`
	Nullable bool   `yaml:"nullable,omitempty"`
	Default  any    `yaml:"default,omitempty"`
	Min      any    `yaml:"min,omitempty"`
	Max      any    `yaml:"max,omitempty"`
}

// Step is a single action in a scenario.
type Step struct {
	// Action is the action to perform (e.g., "add_observer", "invalidate").
	Action string `yaml:"action"`

	// Params are parameters for the action.
	Params map[string]any `yaml:"params,omitempty"`

	// Expect defines expected outcomes after the action.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Description explains what this step does.
	Description string `yaml:"description,omitempty"`
}

// Actions understood by the runner.
const (
	ActionAddObserver         = "add_observer"
	ActionRemoveObserver      = "remove_observer"
	ActionRemoveObserverAny   = "remove_observer_any"
	ActionSetValue            = "set_value"
	ActionInvalidate          = "invalidate"
	ActionRelease             = "release"
	ActionConcurrentAddRemove = "concurrent_add_remove"
	ActionCheck               = "check"
)

// Expectation keys understood by the runner.
const (
	ExpectAdds          = "adds"
	ExpectRemoves       = "removes"
	ExpectSubscriptions = "subscriptions"
	ExpectObservations  = "observations"
	ExpectNotifications = "notifications"
	ExpectError         = "error"
)

var knownActions = map[string]bool{
	ActionAddObserver:         true,
	ActionRemoveObserver:      true,
	ActionRemoveObserverAny:   true,
	ActionSetValue:            true,
	ActionInvalidate:          true,
	ActionRelease:             true,
	ActionConcurrentAddRemove: true,
	ActionCheck:               true,
}

// LoadError provides details about a scenario loading error.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.File != "" {
		return e.File + ": " + msg
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
