package bindr

import (
	"io"
	"reflect"
	"sync"
)

// lifecycleManager tracks cached singletons that need closing, each
// linked to the type it was cached for.
type lifecycleManager struct {
	closers []tracked
	mu      sync.Mutex
}

type tracked struct {
	typ    reflect.Type
	closer io.Closer
}

// newLifecycleManager creates a new lifecycle manager
func newLifecycleManager() *lifecycleManager {
	return &lifecycleManager{
		closers: make([]tracked, 0),
	}
}

// track adds instance, cached for t, when it implements io.Closer
func (m *lifecycleManager) track(t reflect.Type, instance any) {
	if c, ok := instance.(io.Closer); ok {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.closers = append(m.closers, tracked{typ: t, closer: c})
	}
}

// forget stops tracking the instances cached for t
func (m *lifecycleManager) forget(t reflect.Type) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.closers[:0]
	for _, tr := range m.closers {
		if tr.typ != t {
			kept = append(kept, tr)
		}
	}
	m.closers = kept
}

// take returns the tracked closers in creation order and stops tracking them
func (m *lifecycleManager) take() []io.Closer {
	m.mu.Lock()
	defer m.mu.Unlock()

	closers := make([]io.Closer, len(m.closers))
	for i, tr := range m.closers {
		closers[i] = tr.closer
	}
	m.closers = nil
	return closers
}

// clear removes all tracked instances without closing them
func (m *lifecycleManager) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closers = nil
}

// dispose closes closers in reverse order and aggregates failures.
func dispose(closers []io.Closer) error {
	var errs []error

	// Dispose in reverse order (LIFO)
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return &DisposalError{Errors: errs}
	}

	return nil
}
