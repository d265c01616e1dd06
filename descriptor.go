package bindr

import (
	"maps"
	"reflect"
	"sync"

	"github.com/junioryono/bindr/internal/reflection"
)

// Descriptor carries the metadata of a virtual type: its textual identity,
// declared lifetime, static members and base constructor. Descriptors are
// process-wide; containers only hold bindings.
type Descriptor struct {
	// Type is the virtual type itself.
	Type reflect.Type

	// Name is the textual identity used by name lookups and proxy calls.
	Name string

	// Lifetime is the scope every container seeds new records with.
	Lifetime Lifetime

	statics map[string]any
	base    Factory
}

// Static returns the static member stored under key.
func (d *Descriptor) Static(key string) (any, bool) {
	v, ok := d.statics[key]
	return v, ok
}

// Statics returns a copy of all static members.
func (d *Descriptor) Statics() map[string]any {
	return maps.Clone(d.statics)
}

// HasBase reports whether the descriptor carries a base constructor.
func (d *Descriptor) HasBase() bool {
	return d.base != nil
}

// typeTable is the process-wide index of descriptors.
type typeTable struct {
	mu     sync.RWMutex
	byType map[reflect.Type]*Descriptor
	byName map[string]*Descriptor
}

var types = &typeTable{
	byType: make(map[reflect.Type]*Descriptor),
	byName: make(map[string]*Descriptor),
}

// put stores d, replacing any previous descriptor for the same type.
func (tt *typeTable) put(d *Descriptor) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	if prev, ok := tt.byType[d.Type]; ok && prev.Name != d.Name {
		delete(tt.byName, prev.Name)
	}

	tt.byType[d.Type] = d
	tt.byName[d.Name] = d
}

func (tt *typeTable) get(t reflect.Type) (*Descriptor, bool) {
	tt.mu.RLock()
	defer tt.mu.RUnlock()
	d, ok := tt.byType[t]
	return d, ok
}

func (tt *typeTable) named(name string) (*Descriptor, bool) {
	tt.mu.RLock()
	defer tt.mu.RUnlock()
	d, ok := tt.byName[name]
	return d, ok
}

func (tt *typeTable) all() []*Descriptor {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	out := make([]*Descriptor, 0, len(tt.byType))
	for _, d := range tt.byType {
		out = append(out, d)
	}
	return out
}

// LookupDescriptor returns the descriptor declared for t by MarkVirtual or
// MarkSingleton.
func LookupDescriptor(t reflect.Type) (*Descriptor, bool) {
	if t == nil {
		return nil, false
	}
	return types.get(t)
}

// TypeName returns the textual identity of t. Declared virtual types use the
// descriptor name, anything else uses the type string without leading
// pointer markers.
func TypeName(t reflect.Type) string {
	if d, ok := LookupDescriptor(t); ok {
		return d.Name
	}
	return reflection.TypeName(t)
}

// declaredLifetime returns the lifetime a new record for t starts with.
func declaredLifetime(t reflect.Type) Lifetime {
	if d, ok := types.get(t); ok {
		return d.Lifetime
	}
	return Transient
}
