package kvo

// Context is an opaque token that disambiguates registrations of the same
// observer for the same key path. Contexts compare by identity: two calls
// to NewContext with the same label yield different contexts. The zero
// value is the empty context.
type Context struct {
	t *contextToken
}

type contextToken struct {
	label string
}

// NewContext creates a fresh context. The label is used only for display.
func NewContext(label string) Context {
	return Context{t: &contextToken{label: label}}
}

// IsZero returns true for the empty context.
func (c Context) IsZero() bool {
	return c.t == nil
}

// String returns the context's label, or "-" for the empty context.
func (c Context) String() string {
	if c.t == nil {
		return "-"
	}
	if c.t.label == "" {
		return "?"
	}
	return c.t.label
}
