package scenario

import (
	"errors"
	"fmt"
	"slices"

	"github.com/safekvo/safekvo-go/pkg/kvo"
)

// sentinels maps the error names usable in an "error" expectation.
var sentinels = map[string]error{
	"unknown_key_path": kvo.ErrUnknownKeyPath,
	"nil_intermediate": kvo.ErrNilIntermediate,
	"invalid_object":   kvo.ErrInvalidObject,
	"value_type":       kvo.ErrAttributeValueType,
	"out_of_range":     kvo.ErrAttributeOutOfRange,
	"not_nullable":     kvo.ErrAttributeNotNullable,
	"over_removal":     ErrOverRemoval,
	"unknown_object":   ErrUnknownObject,
	"released_object":  ErrReleasedObject,
}

// Check evaluates expectations against the session state and the error
// returned by the step. It returns one message per failed expectation.
// Any over-removal seen by the facility fails the check.
func (s *Session) Check(expect map[string]any, stepErr error) []string {
	var failures []string
	fail := func(format string, args ...any) {
		failures = append(failures, fmt.Sprintf(format, args...))
	}

	counts := s.Facility.Counts()
	if counts.Violations > 0 {
		fail("facility saw %d over-removal(s)", counts.Violations)
	}

	if want, ok := expect[ExpectError]; ok {
		failures = append(failures, checkError(want, stepErr)...)
	} else if stepErr != nil {
		fail("unexpected error: %v", stepErr)
	}

	if want, ok := expect[ExpectAdds]; ok {
		checkCount(fail, ExpectAdds, want, counts.Adds)
	}
	if want, ok := expect[ExpectRemoves]; ok {
		checkCount(fail, ExpectRemoves, want, counts.Removes)
	}
	if want, ok := expect[ExpectSubscriptions]; ok {
		checkCount(fail, ExpectSubscriptions, want, int64(s.Registry.Count()))
	}

	if want, ok := expect[ExpectObservations]; ok {
		perObject(fail, ExpectObservations, want, func(name string) (int64, error) {
			obj, err := s.Object(name)
			if err != nil {
				return 0, err
			}
			return int64(obj.ObservationCount()), nil
		})
	}
	if want, ok := expect[ExpectNotifications]; ok {
		perObject(fail, ExpectNotifications, want, s.Notifications)
	}

	return failures
}

func checkError(want any, got error) []string {
	name, _ := want.(string)
	if name == "" || name == "none" {
		if got != nil {
			return []string{fmt.Sprintf("error: expected none, got %v", got)}
		}
		return nil
	}

	sentinel, ok := sentinels[name]
	if !ok {
		return []string{fmt.Sprintf("error: unknown error name %q", name)}
	}
	if !errors.Is(got, sentinel) {
		return []string{fmt.Sprintf("error: expected %s, got %v", name, got)}
	}
	return nil
}

func checkCount(fail func(string, ...any), key string, want any, got int64) {
	n, ok := toInt(want)
	if !ok {
		fail("%s: expected a number, got %v", key, want)
		return
	}
	if int64(n) != got {
		fail("%s: expected %d, got %d", key, n, got)
	}
}

func perObject(fail func(string, ...any), key string, want any, get func(name string) (int64, error)) {
	m, ok := want.(map[string]any)
	if !ok {
		fail("%s: expected a map of object name to count, got %v", key, want)
		return
	}

	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		got, err := get(name)
		if err != nil {
			fail("%s[%s]: %v", key, name, err)
			continue
		}
		checkCount(fail, key+"["+name+"]", m[name], got)
	}
}
