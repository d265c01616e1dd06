package bindr

import "sync/atomic"

// defaultContainer holds the process-wide container.
var defaultContainer atomic.Pointer[Container]

func init() {
	defaultContainer.Store(New())
}

// Default returns the process-wide container used by Override and by
// resolutions given a nil Resolver.
func Default() *Container {
	return defaultContainer.Load()
}

// SetDefault replaces the process-wide container and returns the previous
// one. This is similar to slog.SetDefault. Passing nil installs a fresh
// empty container.
func SetDefault(c *Container) *Container {
	if c == nil {
		c = New()
	}
	return defaultContainer.Swap(c)
}

// Reset drops every registration and cached instance of the default
// container.
func Reset() {
	Default().Reset()
}

// ClearSingletons drops the cached instances of the default container.
func ClearSingletons() {
	Default().ClearSingletons()
}
