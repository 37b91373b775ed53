package kvo

import (
	"fmt"
	"strings"
)

// splitKeyPath splits "a.b.c" into its segments. Empty paths and empty
// segments are rejected.
func splitKeyPath(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty key path", ErrUnknownKeyPath)
	}
	segs := strings.Split(path, ".")
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKeyPath, path)
		}
	}
	return segs, nil
}

// canHoldObject reports whether an attribute may continue a key path.
func canHoldObject(attr *Attribute) bool {
	t := attr.Metadata().Type
	return t == DataTypeObject || t == DataTypeAny
}

// validateKeyPath checks that every segment of path names a declared
// attribute. Segments behind a nil intermediate object cannot be checked
// and are accepted.
func (o *Object) validateKeyPath(path string) error {
	segs, err := splitKeyPath(path)
	if err != nil {
		return err
	}

	cur := o
	for i, seg := range segs {
		attr, ok := cur.Attribute(seg)
		if !ok {
			return fmt.Errorf("%w: %q on %s", ErrUnknownKeyPath, path, o.class)
		}
		if i == len(segs)-1 {
			return nil
		}
		if !canHoldObject(attr) {
			return fmt.Errorf("%w: %q on %s: %s is not an object", ErrUnknownKeyPath, path, o.class, seg)
		}
		next, _ := attr.Value().(*Object)
		if next == nil {
			return nil
		}
		cur = next
	}
	return nil
}

// ValueForKeyPath resolves path starting at o. A nil intermediate object
// yields a nil value.
func (o *Object) ValueForKeyPath(path string) (any, error) {
	segs, err := splitKeyPath(path)
	if err != nil {
		return nil, err
	}

	cur := o
	for i, seg := range segs {
		attr, ok := cur.Attribute(seg)
		if !ok {
			return nil, fmt.Errorf("%w: %q on %s", ErrUnknownKeyPath, path, o.class)
		}
		v := attr.Value()
		if i == len(segs)-1 {
			return v, nil
		}
		next, isObj := v.(*Object)
		if !isObj && v != nil {
			return nil, fmt.Errorf("%w: %q on %s: %s is not an object", ErrUnknownKeyPath, path, o.class, seg)
		}
		if next == nil {
			return nil, nil
		}
		cur = next
	}
	return nil, nil
}

// pendingChange is a delivery prepared before a value changes.
type pendingChange struct {
	ob       *observation
	target   *Object
	observer *Object
	old      any
}

// SetValueForKeyPath sets the attribute named by the last segment of path
// on the object the preceding segments resolve to.
//
// Every object along the path is notified with its own relative key path:
// setting "engine.rpm" on a car notifies the car's "engine.rpm" observers
// and the engine's "rpm" observers. Observers of a path that extends the
// changed one ("engine" changed, "engine.rpm" observed) are notified too.
func (o *Object) SetValueForKeyPath(path string, value any) error {
	segs, err := splitKeyPath(path)
	if err != nil {
		return err
	}

	chain := []*Object{o}
	cur := o
	for _, seg := range segs[:len(segs)-1] {
		attr, ok := cur.Attribute(seg)
		if !ok || !canHoldObject(attr) {
			return fmt.Errorf("%w: %q on %s", ErrUnknownKeyPath, path, o.class)
		}
		next, _ := attr.Value().(*Object)
		if next == nil {
			return fmt.Errorf("%w: %s in %q", ErrNilIntermediate, seg, path)
		}
		chain = append(chain, next)
		cur = next
	}

	leaf, ok := cur.Attribute(segs[len(segs)-1])
	if !ok {
		return fmt.Errorf("%w: %q on %s", ErrUnknownKeyPath, path, o.class)
	}
	if err := leaf.validate(value); err != nil {
		return err
	}

	var pending []pendingChange
	for i, obj := range chain {
		rel := strings.Join(segs[i:], ".")
		for _, ob := range obj.matching(rel) {
			observer := ob.observer.Value()
			if observer == nil || !observer.IsValid() {
				continue
			}
			p := pendingChange{ob: ob, target: obj, observer: observer}
			if ob.options.Has(OptionOld) {
				p.old, _ = obj.ValueForKeyPath(ob.keyPath)
			}
			pending = append(pending, p)
		}
	}

	for _, p := range pending {
		if !p.ob.options.Has(OptionPrior) {
			continue
		}
		change := Change{KeyPath: p.ob.keyPath, Target: p.target, Context: p.ob.context, Prior: true}
		if p.ob.options.Has(OptionOld) {
			change.Old = p.old
		}
		p.observer.deliver(change)
	}

	if _, err := leaf.set(value); err != nil {
		return err
	}

	for _, p := range pending {
		change := Change{KeyPath: p.ob.keyPath, Target: p.target, Context: p.ob.context}
		if p.ob.options.Has(OptionOld) {
			change.Old = p.old
		}
		if p.ob.options.Has(OptionNew) {
			change.New, _ = p.target.ValueForKeyPath(p.ob.keyPath)
		}
		p.observer.deliver(change)
	}

	return nil
}
