package bindr

import (
	"reflect"

	"github.com/junioryono/bindr/internal/reflection"
)

// Constructor builds a T. ctx is the construction context: pass it to
// Inject, Create or Virtual.New to build dependencies against the same
// container stack.
type Constructor[T any] func(ctx *Context, args ...any) (T, error)

// Factory is the untyped form of Constructor.
type Factory func(ctx *Context, args ...any) (any, error)

func (f Constructor[T]) factory() Factory {
	return func(ctx *Context, args ...any) (any, error) {
		v, err := f(ctx, args...)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Wrapper is implemented by values that stand for another type.
type Wrapper interface {
	Unwrap() reflect.Type
}

// Virtual is the handle of a virtual type T: an extension point whose
// construction is redirected through the resolution engine. Construct
// instances with New, never with T's base constructor directly.
type Virtual[T any] struct {
	d *Descriptor
}

var _ Wrapper = (*Virtual[any])(nil)

// TypeOption configures the descriptor of a virtual type.
type TypeOption interface {
	applyType(*Descriptor)
}

type typeOptionFunc func(*Descriptor)

func (f typeOptionFunc) applyType(d *Descriptor) {
	f(d)
}

// WithName sets the textual identity of the type. Name lookups and proxied
// calls use it. The default is the type string without leading '*'.
func WithName(name string) TypeOption {
	return typeOptionFunc(func(d *Descriptor) {
		if name != "" {
			d.Name = name
		}
	})
}

// WithStatic stores a static member on the descriptor.
func WithStatic(key string, value any) TypeOption {
	return typeOptionFunc(func(d *Descriptor) {
		d.statics[key] = value
	})
}

// MarkVirtual declares T as a virtual type with base as its base
// constructor. base may be nil for struct pointer types, which are then
// allocated with their inject-tagged fields filled. Declaring T again
// replaces the previous descriptor.
//
//	var Greeter = bindr.MarkVirtual(func(ctx *bindr.Context, _ ...any) (Greeter, error) {
//	    return &plainGreeter{}, nil
//	})
func MarkVirtual[T any](base Constructor[T], opts ...TypeOption) *Virtual[T] {
	return declare(base, Transient, opts)
}

// MarkSingleton declares T as a singleton-scoped virtual type. Every
// container caches one instance of T unless a registration changes its
// scope.
func MarkSingleton[T any](base Constructor[T], opts ...TypeOption) *Virtual[T] {
	return declare(base, Singleton, opts)
}

func declare[T any](base Constructor[T], lifetime Lifetime, opts []TypeOption) *Virtual[T] {
	t := reflect.TypeFor[T]()
	d := &Descriptor{
		Type:     t,
		Name:     reflection.TypeName(t),
		Lifetime: lifetime,
		statics:  make(map[string]any),
	}
	if base != nil {
		d.base = base.factory()
	}

	for _, opt := range opts {
		if opt != nil {
			opt.applyType(d)
		}
	}

	types.put(d)
	return &Virtual[T]{d: d}
}

// New constructs a T through the resolution engine of r: a cached
// singleton, the registered override or factory, or the base constructor.
// Inside an override of T, calling New with the override's own ctx builds
// the base portion instead of recursing.
func (v *Virtual[T]) New(r Resolver, args ...any) (T, error) {
	instance, err := resolverContext(r).create(v.d.Type, args)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](instance, "resolved instance")
}

// Base builds the base portion of T, bypassing overrides and the
// singleton cache. Overrides that embed T's base call it.
func (v *Virtual[T]) Base(ctx *Context, args ...any) (T, error) {
	instance, err := resolverContext(ctx).base(v.d.Type, args)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](instance, "base instance")
}

// Unwrap returns T.
func (v *Virtual[T]) Unwrap() reflect.Type {
	return v.d.Type
}

// Descriptor returns the descriptor of T.
func (v *Virtual[T]) Descriptor() *Descriptor {
	return v.d
}

// Name returns the textual identity of T.
func (v *Virtual[T]) Name() string {
	return v.d.Name
}

// Static returns the static member stored under key.
func (v *Virtual[T]) Static(key string) (any, bool) {
	return v.d.Static(key)
}

// Override registers impl as the override of T in the default container.
// Registering again replaces the previous override.
func Override[T any](v *Virtual[T], impl Constructor[T]) *Scoping {
	return OverrideIn(Default(), v, impl)
}

// OverrideIn registers impl as the override of T in c.
func OverrideIn[T any](c *Container, v *Virtual[T], impl Constructor[T]) *Scoping {
	return For[T](c).Use(impl)
}

// Unwrap returns the type a Wrapper stands for, or x unchanged.
func Unwrap(x any) any {
	if w, ok := x.(Wrapper); ok {
		return w.Unwrap()
	}
	return x
}
