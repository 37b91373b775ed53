// Package lifecycle provides object identity and invalidation hooks.
//
// A Lifetime represents the span during which an object may be referenced.
// Interested parties attach hooks with OnInvalidate; when the object's
// storage is about to be reclaimed, Invalidate runs every attached hook
// exactly once, before any of the object's fields become unreadable.
//
// # Sources of Invalidation
//
// Invalidation is either explicit (the owner calls Invalidate, typically
// from a Close or Dispose method) or driven by the garbage collector via
// Track:
//
//	obj := &Thing{lifetime: lifecycle.NewLifetime()}
//	lifecycle.Track(obj, obj.lifetime)
//
// Whichever happens first wins; the other is a no-op.
//
// # Hooks
//
// Hooks run in attachment order, outside the Lifetime's lock, so a hook may
// attach or cancel other hooks without deadlocking. A hook attached after
// invalidation began is rejected rather than silently dropped, which lets
// callers treat the object as already gone.
package lifecycle
