// Package registry makes key-value observer registration safe to misuse.
//
// Notification facilities count registrations and fail when a registration
// is removed more times than it was added. Callers that forget to remove an
// observer before it (or its target) is reclaimed leave dangling
// registrations behind. The Registry sits in front of the facility and
// removes both failure modes:
//
//   - Adding the same (observer, target, key path, context) twice registers
//     it once. One removal balances any number of adds.
//   - Removing a subscription that does not exist is a silent no-op.
//   - When the observer or the target is invalidated, every subscription it
//     takes part in is removed exactly once, without the caller doing
//     anything.
//
// # Usage
//
//	registry.AddObserver(controller, player, "volume", kvo.OptionNew, ctx)
//	registry.AddObserver(controller, player, "volume", kvo.OptionNew, ctx) // no-op
//	registry.RemoveObserver(controller, player, "volume", ctx)
//	registry.RemoveObserver(controller, player, "volume", ctx) // no-op
//
// The package-level functions use a process-wide Registry created on first
// use. Create a dedicated Registry with New or NewWithConfig to use another
// facility or to capture the event trace.
//
// # References
//
// The Registry holds observers and targets through weak pointers and
// never extends their lifetime. It attaches one invalidation hook per
// participating object and cancels it once the object takes part in no
// subscription.
//
// # Concurrency
//
// All bookkeeping happens under a single mutex. Facility calls are made
// outside it, so change handlers may call back into the Registry. A
// subscription is recorded before its facility registration starts; a
// removal that overtakes the registration is handed to the registering
// call, which then performs the one matching unregistration.
package registry
