package registry

import (
	"sync"

	"github.com/safekvo/safekvo-go/pkg/kvo"
)

// Default returns the process-wide registry used by the package-level
// functions. It drives kvo.Host and discards its event trace.
var Default = sync.OnceValue(func() *Registry {
	return New(kvo.Host{})
})

// AddObserver subscribes observer to keyPath on target via the default registry.
func AddObserver(observer, target *kvo.Object, keyPath string, options kvo.Options, ctx kvo.Context) error {
	return Default().AddObserver(observer, target, keyPath, options, ctx)
}

// RemoveObserver removes a context-qualified subscription via the default registry.
func RemoveObserver(observer, target *kvo.Object, keyPath string, ctx kvo.Context) {
	Default().RemoveObserver(observer, target, keyPath, ctx)
}

// RemoveObserverAnyContext removes every context variant of a subscription
// via the default registry.
func RemoveObserverAnyContext(observer, target *kvo.Object, keyPath string) {
	Default().RemoveObserverAnyContext(observer, target, keyPath)
}
