package log

import (
	"testing"
	"time"
)

func TestNoopLoggerDoesNotPanic(t *testing.T) {
	logger := NoopLogger{}

	event := Event{
		Timestamp:  time.Now(),
		RegistryID: "reg-1",
		Category:   CategorySubscribe,
	}
	logger.Log(event)

	event.Subscription = &SubscriptionRef{ObserverID: "o", TargetID: "t", KeyPath: "k"}
	logger.Log(event)

	event.Subscription = nil
	event.Object = &ObjectRef{ID: "o"}
	logger.Log(event)

	event.Object = nil
	event.Error = &ErrorEventData{Message: "boom"}
	logger.Log(event)
}

func TestNoopLoggerIsZeroValue(t *testing.T) {
	var logger NoopLogger
	logger.Log(Event{})
}
