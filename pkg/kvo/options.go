package kvo

import (
	"fmt"
	"strings"
)

// Options selects what a change notification carries and when it is sent.
type Options uint8

const (
	// OptionNew includes the new value in changes.
	OptionNew Options = 1 << iota

	// OptionOld includes the old value in changes.
	OptionOld

	// OptionInitial sends a change immediately on registration.
	OptionInitial

	// OptionPrior sends an extra change before each value change.
	OptionPrior

	// OptionNone requests neither value.
	OptionNone Options = 0
)

var optionNames = []struct {
	opt  Options
	name string
}{
	{OptionNew, "new"},
	{OptionOld, "old"},
	{OptionInitial, "initial"},
	{OptionPrior, "prior"},
}

// Has returns true if all bits of o2 are set.
func (o Options) Has(o2 Options) bool { return o&o2 == o2 }

// String returns the set options joined by '|', or "none".
func (o Options) String() string {
	var parts []string
	for _, n := range optionNames {
		if o.Has(n.opt) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ParseOptions parses a list of option names separated by ',' or '|'.
func ParseOptions(s string) (Options, error) {
	var o Options
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' }) {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || f == "none" {
			continue
		}
		found := false
		for _, n := range optionNames {
			if n.name == f {
				o |= n.opt
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown option: %q", f)
		}
	}
	return o, nil
}
