package bindr

import (
	"io"
	"reflect"
	"sort"
	"sync"
)

// implementation is a constructor bound to a type. Records point to
// implementations so the resolution engine can tell by identity which one
// is currently running.
type implementation struct {
	typ reflect.Type // concrete type produced, nil when unknown
	fn  Factory
}

// record is the registration state of one type in one container.
type record struct {
	typ      reflect.Type
	name     string
	lifetime Lifetime

	override *implementation
	factory  *implementation
	proxy    *implementation

	// contextual maps a consumer type to the factory used while that
	// consumer is being built.
	contextual map[reflect.Type]*implementation

	instance any
	cached   bool
}

// bound reports whether anything was registered for the type.
func (r *record) bound() bool {
	return r.override != nil || r.factory != nil || r.proxy != nil || r.cached || len(r.contextual) > 0
}

// binding is an immutable view of a record taken for one resolution.
type binding struct {
	override   *implementation
	factory    *implementation
	proxy      *implementation
	contextual *implementation
	singleton  bool
}

// flight is a singleton construction in progress. done is closed when the
// owning resolution finishes, successfully or not.
type flight struct {
	owner *Context
	done  chan struct{}
}

// store holds the records of a container and its singleton cache.
type store struct {
	mu      sync.RWMutex
	records map[reflect.Type]*record
	names   map[string]reflect.Type
	flights map[reflect.Type]*flight
	life    *lifecycleManager
}

func newStore() *store {
	return &store{
		records: make(map[reflect.Type]*record),
		names:   make(map[string]reflect.Type),
		flights: make(map[reflect.Type]*flight),
		life:    newLifecycleManager(),
	}
}

// update runs fn on the record for t, creating it first when needed.
// New records start with the lifetime declared on the type's descriptor.
func (s *store) update(t reflect.Type, fn func(*record)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[t]
	if !ok {
		rec = &record{typ: t, lifetime: declaredLifetime(t)}
		s.records[t] = rec
	}
	fn(rec)
}

// index maps name to t in the name table.
func (s *store) index(name string, t reflect.Type) {
	if name == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.names[name] = t
	if rec, ok := s.records[t]; ok && rec.name == "" {
		rec.name = name
	}
}

// lookup returns the binding for t as seen from a construction of consumer.
func (s *store) lookup(t, consumer reflect.Type) (binding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[t]
	if !ok {
		return binding{singleton: declaredLifetime(t) == Singleton}, false
	}

	b := binding{
		override:  rec.override,
		factory:   rec.factory,
		proxy:     rec.proxy,
		singleton: rec.lifetime == Singleton,
	}
	if consumer != nil {
		b.contextual = rec.contextual[consumer]
	}
	return b, rec.bound()
}

func (s *store) bound(t reflect.Type) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[t]
	return ok && rec.bound()
}

// named returns the type indexed under name.
func (s *store) named(name string) (reflect.Type, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.names[name]
	return t, ok
}

// cached returns the cached singleton instance for t.
func (s *store) cached(t reflect.Type) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[t]
	if !ok || !rec.cached {
		return nil, false
	}
	return rec.instance, true
}

// acquire returns the cached instance of t, or claims its construction for
// owner. When another construction of t is in progress its flight is
// returned instead.
func (s *store) acquire(t reflect.Type, owner *Context) (any, bool, *flight) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[t]; ok && rec.cached {
		return rec.instance, true, nil
	}
	if f, ok := s.flights[t]; ok {
		return nil, false, f
	}

	s.flights[t] = &flight{owner: owner, done: make(chan struct{})}
	return nil, false, nil
}

// release ends the construction of t claimed by owner and wakes waiters.
func (s *store) release(t reflect.Type, owner *Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.flights[t]; ok && f.owner == owner {
		delete(s.flights, t)
		close(f.done)
	}
}

// keep caches instance for t unless another instance was stored first, in
// which case that one is returned. The bool reports whether instance was
// stored. A rejected instance is still tracked so Close disposes it.
func (s *store) keep(t reflect.Type, instance any) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[t]
	if !ok {
		rec = &record{typ: t, lifetime: declaredLifetime(t)}
		s.records[t] = rec
	}

	if rec.cached {
		if !samePointer(rec.instance, instance) {
			s.life.track(t, instance)
		}
		return rec.instance, false
	}

	rec.instance = instance
	rec.cached = true
	s.life.track(t, instance)

	return instance, true
}

// types returns every type with a bound record.
func (s *store) types() []reflect.Type {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]reflect.Type, 0, len(s.records))
	for t, rec := range s.records {
		if rec.bound() {
			out = append(out, t)
		}
	}
	return out
}

// nameList returns the indexed names in sorted order.
func (s *store) nameList() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.names))
	for name := range s.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// clearSingletons drops every cached instance and keeps registrations.
// Dropped instances are not closed.
func (s *store) clearSingletons() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		rec.instance = nil
		rec.cached = false
	}
	s.life.clear()
}

// reset drops every record, cached instance and name.
func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[reflect.Type]*record)
	s.names = make(map[string]reflect.Type)
	s.life.clear()
}

// remove drops the record for t and every name pointing at it.
func (s *store) remove(t reflect.Type) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[t]
	if !ok {
		return false
	}

	delete(s.records, t)
	for name, nt := range s.names {
		if nt == t {
			delete(s.names, name)
		}
	}
	if rec.cached {
		s.life.forget(t)
	}
	return true
}

// closers returns the tracked io.Closer instances and stops tracking them.
func (s *store) closers() []io.Closer {
	return s.life.take()
}

// samePointer reports whether a and b are the same pointer-shaped value.
func samePointer(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() || va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	}
	return false
}
