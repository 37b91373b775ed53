package lifecycle

import (
	"runtime"
	"sync"

	"github.com/google/uuid"
)

// ID identifies an object for its whole lifetime.
type ID = uuid.UUID

// NilID is the zero ID.
var NilID = uuid.Nil

// NewID returns a fresh random ID.
func NewID() ID {
	return uuid.New()
}

// state is the invalidation state of a Lifetime.
type state uint8

const (
	stateValid state = iota
	stateInvalidating
	stateInvalid
)

// String returns the state name.
func (s state) String() string {
	switch s {
	case stateValid:
		return "VALID"
	case stateInvalidating:
		return "INVALIDATING"
	case stateInvalid:
		return "INVALID"
	default:
		return "UNKNOWN"
	}
}

// Lifetime tracks whether an object may still be referenced and notifies
// hooks when it may not.
type Lifetime struct {
	id ID

	mu       sync.Mutex
	state    state
	nextHook uint64
	hooks    map[uint64]func(ID)
	order    []uint64

	// Closed once every hook has run
	done chan struct{}
}

// NewLifetime creates a valid Lifetime with a fresh ID.
func NewLifetime() *Lifetime {
	return NewLifetimeWithID(NewID())
}

// NewLifetimeWithID creates a valid Lifetime with the given ID.
func NewLifetimeWithID(id ID) *Lifetime {
	return &Lifetime{
		id:    id,
		hooks: make(map[uint64]func(ID)),
		done:  make(chan struct{}),
	}
}

// ID returns the identity of the object this lifetime belongs to.
func (l *Lifetime) ID() ID {
	return l.id
}

// Done returns a channel that is closed once invalidation has completed
// and every hook has returned.
func (l *Lifetime) Done() <-chan struct{} {
	return l.done
}

// IsValid returns true until invalidation begins.
func (l *Lifetime) IsValid() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state == stateValid
}

// HookCount returns the number of attached hooks that have not run yet.
func (l *Lifetime) HookCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hooks)
}

// Hook is a handle to an attached invalidation hook.
type Hook struct {
	lifetime *Lifetime
	seq      uint64
}

// Cancel detaches the hook. It is a no-op for a zero Hook, a hook that
// already ran, or a hook that was already cancelled.
func (h Hook) Cancel() {
	if h.lifetime == nil {
		return
	}
	h.lifetime.mu.Lock()
	defer h.lifetime.mu.Unlock()
	delete(h.lifetime.hooks, h.seq)
}

// OnInvalidate attaches fn to run when the lifetime is invalidated.
// It returns false and attaches nothing if invalidation already began.
func (l *Lifetime) OnInvalidate(fn func(ID)) (Hook, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != stateValid {
		return Hook{}, false
	}

	l.nextHook++
	seq := l.nextHook
	l.hooks[seq] = fn
	l.order = append(l.order, seq)

	// Compact the order slice once cancelled hooks dominate it.
	if len(l.order) > 32 && len(l.order) > 2*len(l.hooks) {
		kept := l.order[:0]
		for _, s := range l.order {
			if _, ok := l.hooks[s]; ok {
				kept = append(kept, s)
			}
		}
		l.order = kept
	}

	return Hook{lifetime: l, seq: seq}, true
}

// Invalidate marks the lifetime invalid and runs all attached hooks once,
// in attachment order. Returns true if this call performed the
// invalidation, false if it had already begun.
func (l *Lifetime) Invalidate() bool {
	l.mu.Lock()
	if l.state != stateValid {
		l.mu.Unlock()
		return false
	}
	l.state = stateInvalidating
	l.mu.Unlock()

	// Hooks may cancel hooks that have not run yet, so re-check each
	// one under the lock instead of snapshotting them all up front.
	for i := 0; ; i++ {
		l.mu.Lock()
		if i >= len(l.order) {
			l.state = stateInvalid
			l.hooks = make(map[uint64]func(ID))
			l.order = nil
			l.mu.Unlock()
			close(l.done)
			return true
		}
		seq := l.order[i]
		fn, ok := l.hooks[seq]
		delete(l.hooks, seq)
		l.mu.Unlock()

		if ok {
			fn(l.id)
		}
	}
}

// Track arranges for lifetime.Invalidate to run once ptr becomes
// unreachable. The lifetime must not reference ptr, or ptr is never
// collected.
//
// The cleanup runs after ptr has been reclaimed, so hooks triggered this
// way find weak pointers to ptr already nil and cannot reach its storage.
// Only an explicit Invalidate runs while the object is still readable.
func Track[T any](ptr *T, lifetime *Lifetime) {
	runtime.AddCleanup(ptr, func(l *Lifetime) {
		l.Invalidate()
	}, lifetime)
}
