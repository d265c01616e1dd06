package bindr

import (
	"reflect"
)

// Inject resolves T from r. It is lenient: when nothing is bound to T and T
// has no base constructor, it returns the zero value and a nil error.
// Failures of bound types are returned as usual.
func Inject[T any](r Resolver) (T, error) {
	var zero T

	instance, err := resolverContext(r).inject(reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	return as[T](instance, "injected instance")
}

// MustInject is like Inject but panics on error.
func MustInject[T any](r Resolver) T {
	v, err := Inject[T](r)
	if err != nil {
		panic(err)
	}
	return v
}

// InjectByName resolves the type indexed under name. Unlike Inject it fails
// with ErrNotRegistered when the name is unknown.
func InjectByName(r Resolver, name string) (any, error) {
	return resolverContext(r).injectByName(name)
}

// Create builds T from r with args: the override or factory when one is
// bound, the base construction otherwise. Singleton caching applies.
func Create[T any](r Resolver, args ...any) (T, error) {
	var zero T

	instance, err := resolverContext(r).create(reflect.TypeFor[T](), args)
	if err != nil {
		return zero, err
	}
	return as[T](instance, "created instance")
}

// MustCreate is like Create but panics on error.
func MustCreate[T any](r Resolver, args ...any) T {
	v, err := Create[T](r, args...)
	if err != nil {
		panic(err)
	}
	return v
}

// Build is like Create but pushes target onto the container stack while T
// is built, so constructions triggered inside resolve against target. The
// stack is restored on every path, including errors and panics.
func Build[T any](r Resolver, target *Container, args ...any) (T, error) {
	var zero T
	if target == nil {
		return zero, ErrNilContainer
	}

	x := resolverContext(r)
	x.pushContainer(target)
	defer x.popContainer()

	instance, err := x.create(reflect.TypeFor[T](), args)
	if err != nil {
		return zero, err
	}
	return as[T](instance, "built instance")
}

// Impl is the implementation bound to T, returned by Resolve.
type Impl[T any] struct {
	t    reflect.Type
	impl *implementation
}

// Type returns the concrete type the implementation produces, or T when it
// is not known.
func (i *Impl[T]) Type() reflect.Type {
	if i.impl.typ != nil {
		return i.impl.typ
	}
	return i.t
}

// New builds a fresh instance with args. The singleton cache is neither
// read nor written.
func (i *Impl[T]) New(r Resolver, args ...any) (T, error) {
	var zero T

	instance, err := resolverContext(r).run(i.t, i.impl, args)
	if err != nil {
		return zero, err
	}
	return as[T](instance, "implementation instance")
}

// Resolve returns the override or factory bound to T without building it,
// so callers can construct instances with their own arguments. It fails
// with ErrNotRegistered when neither is bound.
func Resolve[T any](r Resolver) (*Impl[T], error) {
	t := reflect.TypeFor[T]()
	x := resolverContext(r)

	b, _ := x.Container().store.lookup(t, nil)

	impl := b.override
	if impl == nil {
		impl = b.factory
	}
	if impl == nil {
		return nil, &ResolutionError{Type: t, Cause: ErrNotRegistered}
	}

	return &Impl[T]{t: t, impl: impl}, nil
}
