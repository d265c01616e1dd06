package bindr

import (
	"reflect"
)

// Binding is the registration builder for T returned by For.
//
// Builder methods panic with a *RegistrationError on programmer errors such
// as a nil constructor or a closed container. Use the untyped Container
// methods to get those failures as errors.
//
//	bindr.For[Greeter](c).Use(NewLoudGreeter).Singleton()
//	bindr.For[*Config](c).Return(cfg)
//	bindr.For[Clock](c).Execute(func(*bindr.Context) (Clock, error) { return systemClock{}, nil })
type Binding[T any] struct {
	c    *Container
	t    reflect.Type
	name string
}

// For starts a registration for T on c. A nil c means the default container.
func For[T any](c *Container) *Binding[T] {
	if c == nil {
		c = Default()
	}
	return &Binding[T]{c: c, t: reflect.TypeFor[T]()}
}

// Named adds name to the name index for T and makes it the name proxied
// calls for T carry. The most recent explicit name wins.
func (b *Binding[T]) Named(name string) *Binding[T] {
	b.name = name
	return b
}

// Use registers impl as the override of T.
func (b *Binding[T]) Use(impl Constructor[T]) *Scoping {
	if impl == nil {
		b.fail("override", ErrFactoryNil)
	}

	b.must("override", func(rec *record) {
		rec.override = &implementation{typ: b.t, fn: impl.factory()}
	})
	return &Scoping{c: b.c, t: b.t}
}

// UseType registers ctor, which builds the derived type D, as the override
// of T. It panics when D is not assignable to T. D's name is indexed too.
func UseType[T, D any](b *Binding[T], ctor Constructor[D]) *Scoping {
	d := reflect.TypeFor[D]()
	if !d.AssignableTo(b.t) {
		b.fail("override", &TypeMismatchError{Expected: b.t, Actual: d, Context: "derived type"})
	}
	if ctor == nil {
		b.fail("override", ErrFactoryNil)
	}

	b.must("override", func(rec *record) {
		rec.override = &implementation{typ: d, fn: ctor.factory()}
	})
	b.c.store.index(TypeName(d), b.t)

	return &Scoping{c: b.c, t: b.t}
}

// Return binds T to an already built instance, shared as a singleton.
func (b *Binding[T]) Return(instance T) *Container {
	b.must("instance", func(rec *record) {
		rec.factory = &implementation{
			typ: b.t,
			fn:  func(*Context, ...any) (any, error) { return instance, nil },
		}
		rec.lifetime = Singleton
	})
	return b.c
}

// Execute registers factory as the factory of T. Every resolution calls it
// unless the scope is made singleton.
func (b *Binding[T]) Execute(factory func(ctx *Context) (T, error)) *Scoping {
	if factory == nil {
		b.fail("register", ErrFactoryNil)
	}

	b.must("register", func(rec *record) {
		rec.factory = &implementation{
			typ: b.t,
			fn: func(ctx *Context, _ ...any) (any, error) {
				return factory(ctx)
			},
		}
	})
	return &Scoping{c: b.c, t: b.t}
}

// CreateSelf binds T to its own base construction: the base constructor
// declared with MarkVirtual, or allocation with field injection for
// struct pointer types.
func (b *Binding[T]) CreateSelf() *Scoping {
	b.must("register", func(rec *record) {
		rec.factory = &implementation{
			typ: b.t,
			fn: func(ctx *Context, args ...any) (any, error) {
				return ctx.base(b.t, args)
			},
		}
	})
	return &Scoping{c: b.c, t: b.t}
}

// AsProxy registers T as served by the container's proxy handler. adapt
// turns the Stub into a T, usually a small struct forwarding each method to
// Stub.Invoke.
func (b *Binding[T]) AsProxy(adapt func(*Stub) T) *Container {
	if adapt == nil {
		b.fail("proxy", ErrFactoryNil)
	}

	b.must("proxy", func(rec *record) {
		rec.proxy = &implementation{
			typ: b.t,
			fn: proxyFactory(b.t, func(s *Stub) any {
				return adapt(s)
			}),
		}
		rec.lifetime = Singleton
	})
	return b.c
}

func (b *Binding[T]) must(op string, fn func(*record)) {
	if err := b.c.bind(b.t, op, b.name, fn); err != nil {
		panic(err)
	}
}

func (b *Binding[T]) fail(op string, cause error) {
	panic(&RegistrationError{Type: b.t, Operation: op, Cause: cause})
}

// Scoping sets the lifetime of a registration.
type Scoping struct {
	c *Container
	t reflect.Type
}

// Singleton makes the registration singleton-scoped and returns the
// container for further registrations.
func (s *Scoping) Singleton() *Container {
	if err := s.c.setLifetime(s.t, Singleton); err != nil {
		panic(err)
	}
	return s.c
}

// Transient makes the registration build a new instance on every
// resolution. It is the default unless the type was declared with
// MarkSingleton.
func (s *Scoping) Transient() *Container {
	if err := s.c.setLifetime(s.t, Transient); err != nil {
		panic(err)
	}
	return s.c
}

// Contextual is the builder returned by When.
type Contextual[C, T any] struct {
	c *Container
}

// When starts a contextual binding: while C is being built, resolutions of
// T made through the construction context use the factory given to Give.
//
//	bindr.When[*ReportJob, Storage](c).Give(newColdStorage)
func When[C, T any](c *Container) *Contextual[C, T] {
	if c == nil {
		c = Default()
	}
	return &Contextual[C, T]{c: c}
}

// Give sets the factory used for T inside constructions of C. Contextual
// results are never cached.
func (w *Contextual[C, T]) Give(factory Constructor[T]) *Container {
	t := reflect.TypeFor[T]()
	consumer := reflect.TypeFor[C]()

	if factory == nil {
		panic(&RegistrationError{Type: t, Operation: "contextual", Cause: ErrFactoryNil})
	}

	err := w.c.bind(t, "contextual", "", func(rec *record) {
		if rec.contextual == nil {
			rec.contextual = make(map[reflect.Type]*implementation)
		}
		rec.contextual[consumer] = &implementation{typ: t, fn: factory.factory()}
	})
	if err != nil {
		panic(err)
	}
	return w.c
}
