// Package kvo implements a key-value observing host facility.
//
// Objects declare typed attributes and keep a table of observations. An
// observer registers for a key path on a target and receives a Change each
// time the value at that path is set.
//
// # Key Paths
//
// A key path names an attribute, possibly through object-valued
// attributes:
//
//	car.Declare(kvo.AttributeMetadata{Key: "engine", Type: kvo.DataTypeObject, Nullable: true})
//	engine.Declare(kvo.AttributeMetadata{Key: "rpm", Type: kvo.DataTypeUint32, Default: uint32(0)})
//	car.SetValue("engine", engine)
//
//	car.AddObserver(dash, "engine.rpm", kvo.OptionNew, kvo.Context{})
//	car.SetValueForKeyPath("engine.rpm", uint32(3000)) // dash receives New=3000
//
// # Registration Semantics
//
// Registrations are counted: adding the same (observer, key path, context)
// twice needs two removals. Removing a registration that does not exist
// fails with ErrNotRegistered, and in Strict mode the Host panics. These are
// the semantics the registry package protects callers from.
//
// # Options
//
//   - OptionNew: include the new value
//   - OptionOld: include the old value
//   - OptionInitial: notify immediately on registration
//   - OptionPrior: notify before the value changes as well as after
//
// # Lifetimes
//
// Every Object has a lifecycle.Lifetime. Invalidate announces that the
// object is about to be reclaimed; the garbage collector triggers the same
// event for objects that become unreachable. Observation tables hold
// observers weakly, so registering never extends an observer's lifetime.
package kvo
