package kvo

import (
	"errors"

	"github.com/safekvo/safekvo-go/pkg/lifecycle"
)

// Host is the notification facility backed by the observation tables of
// Objects.
//
// With Strict set, removing a registration that does not exist panics, as
// the host runtimes this package models do. Strict mode is how tests prove
// that a caller never over-removes.
type Host struct {
	Strict bool
}

// Register adds a registration for observer on target.
func (h Host) Register(target, observer *Object, keyPath string, options Options, ctx Context) error {
	return target.AddObserver(observer, keyPath, options, ctx)
}

// ValidateKeyPath reports the error Register would return for keyPath on
// target, without registering anything.
func (h Host) ValidateKeyPath(target *Object, keyPath string) error {
	return target.validateKeyPath(keyPath)
}

// Unregister removes one registration for observerID on target.
func (h Host) Unregister(target *Object, observerID lifecycle.ID, keyPath string, ctx Context) error {
	err := target.RemoveObserver(observerID, keyPath, ctx)
	if err != nil && h.Strict && errors.Is(err, ErrNotRegistered) {
		panic(err)
	}
	return err
}
