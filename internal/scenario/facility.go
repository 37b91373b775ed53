package scenario

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/safekvo/safekvo-go/pkg/kvo"
	"github.com/safekvo/safekvo-go/pkg/lifecycle"
	"github.com/safekvo/safekvo-go/pkg/registry"
)

// ErrOverRemoval is returned by CountingFacility when an unregistration
// had no matching registration.
var ErrOverRemoval = errors.New("unregistered more often than registered")

// Counts are the facility calls observed by a CountingFacility.
type Counts struct {
	Adds       int64
	Removes    int64
	Violations int64
}

// CountingFacility wraps a facility and counts successful calls. An
// over-removal, including a panic from a strict facility, is counted as
// a violation and returned as ErrOverRemoval.
type CountingFacility struct {
	next registry.Facility

	adds       atomic.Int64
	removes    atomic.Int64
	violations atomic.Int64
}

// Compile-time interface satisfaction check.
var (
	_ registry.Facility         = (*CountingFacility)(nil)
	_ registry.KeyPathValidator = (*CountingFacility)(nil)
)

// NewCountingFacility wraps next. A nil next wraps a strict kvo.Host.
func NewCountingFacility(next registry.Facility) *CountingFacility {
	if next == nil {
		next = kvo.Host{Strict: true}
	}
	return &CountingFacility{next: next}
}

// Register forwards to the wrapped facility.
func (f *CountingFacility) Register(target, observer *kvo.Object, keyPath string, options kvo.Options, ctx kvo.Context) error {
	if err := f.next.Register(target, observer, keyPath, options, ctx); err != nil {
		return err
	}
	f.adds.Add(1)
	return nil
}

// ValidateKeyPath forwards to the wrapped facility when it validates key
// paths.
func (f *CountingFacility) ValidateKeyPath(target *kvo.Object, keyPath string) error {
	if v, ok := f.next.(registry.KeyPathValidator); ok {
		return v.ValidateKeyPath(target, keyPath)
	}
	return nil
}

// Unregister forwards to the wrapped facility.
func (f *CountingFacility) Unregister(target *kvo.Object, observerID lifecycle.ID, keyPath string, ctx kvo.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			f.violations.Add(1)
			err = fmt.Errorf("%w: %v", ErrOverRemoval, p)
		}
	}()

	if err := f.next.Unregister(target, observerID, keyPath, ctx); err != nil {
		if errors.Is(err, kvo.ErrNotRegistered) {
			f.violations.Add(1)
			return fmt.Errorf("%w: %w", ErrOverRemoval, err)
		}
		return err
	}
	f.removes.Add(1)
	return nil
}

// Counts returns the calls counted so far.
func (f *CountingFacility) Counts() Counts {
	return Counts{
		Adds:       f.adds.Load(),
		Removes:    f.removes.Load(),
		Violations: f.violations.Load(),
	}
}
