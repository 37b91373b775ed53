package kvo

// Change describes a change notification delivered to an observer.
type Change struct {
	// KeyPath is the observed key path, relative to Target.
	KeyPath string

	// Target is the observed object.
	Target *Object

	// Context is the context the observation was registered with.
	Context Context

	// Old is the previous value. Only set with OptionOld.
	Old any

	// New is the current value. Only set with OptionNew.
	New any

	// Prior marks the notification sent before a change (OptionPrior).
	Prior bool

	// Initial marks the notification sent on registration (OptionInitial).
	Initial bool
}
