package bindr

import (
	"reflect"
	"time"

	"github.com/junioryono/bindr/internal/reflection"
)

// analyzer caches inject-tag analysis for allocated struct types.
var analyzer = reflection.New()

// create resolves t in the current container of x.
//
// Precedence: proxy stand-in, reentrant base portion, contextual factory,
// then the singleton cache over override, factory and base constructor.
func (x *Context) create(t reflect.Type, args []any) (any, error) {
	if t == nil {
		return nil, ErrTypeNil
	}

	c := x.Container()
	if c.closed.Load() {
		return nil, &ResolutionError{Type: t, Cause: ErrContainerClosed}
	}

	if len(x.frames) >= c.opts.maxDepth {
		return nil, &ResolutionError{Type: t, Cause: ErrMaxDepth}
	}

	outermost := len(x.frames) == 0
	start := time.Now()

	instance, cached, err := x.construct(c, t, args)
	if err != nil {
		c.notifyError(t, err, outermost)
		return nil, err
	}

	c.notifyResolved(t, instance, cached, time.Since(start))
	return instance, nil
}

func (x *Context) construct(c *Container, t reflect.Type, args []any) (any, bool, error) {
	top := x.top()

	var consumer reflect.Type
	if top != nil {
		consumer = top.typ
	}

	b, _ := c.store.lookup(t, consumer)

	if b.proxy != nil {
		if c.handler() == nil {
			return nil, false, &ProxyError{Type: t, Name: c.nameOf(t), Cause: ErrProxyNotConfigured}
		}
		return x.ensureSingleton(c, t, true, func() (any, error) {
			return x.run(t, b.proxy, args)
		})
	}

	// The override is building its own base portion.
	if top != nil && b.override != nil && top.typ == t && top.impl == b.override {
		instance, err := x.base(t, args)
		return instance, false, err
	}

	if b.contextual != nil {
		instance, err := x.run(t, b.contextual, args)
		return instance, false, err
	}

	impl := b.override
	if impl == nil {
		impl = b.factory
	}

	if impl != nil {
		return x.ensureSingleton(c, t, b.singleton, func() (any, error) {
			return x.run(t, impl, args)
		})
	}

	return x.ensureSingleton(c, t, b.singleton, func() (any, error) {
		return x.base(t, args)
	})
}

// run calls impl inside a construction frame for t.
func (x *Context) run(t reflect.Type, impl *implementation, args []any) (any, error) {
	x.push(t, impl)
	defer x.pop()

	return impl.fn(x, args...)
}

// base builds t without redirection: the descriptor's base constructor, or
// for struct pointer types without arguments a fresh value with its
// inject-tagged fields filled.
func (x *Context) base(t reflect.Type, args []any) (any, error) {
	if d, ok := types.get(t); ok && d.base != nil {
		x.push(t, nil)
		defer x.pop()

		return d.base(x, args...)
	}

	if reflection.IsStructPointer(t) && len(args) == 0 {
		x.push(t, nil)
		defer x.pop()

		return x.allocate(t)
	}

	return nil, &ResolutionError{Type: t, Cause: ErrNotConstructible}
}

// allocate creates a zero *struct and injects its tagged fields. Fields
// that cannot be resolved stay zero unless tagged strict.
func (x *Context) allocate(t reflect.Type) (any, error) {
	v := reflect.New(t.Elem())
	elem := v.Elem()

	for _, f := range analyzer.Fields(t) {
		var (
			dep any
			err error
		)

		if f.Key != "" {
			dep, err = x.injectByName(f.Key)
		} else if f.Strict {
			dep, err = x.create(f.Type, nil)
		} else {
			dep, err = x.inject(f.Type)
		}

		if err != nil {
			if !f.Strict && IsNotRegistered(err) {
				continue
			}
			return nil, err
		}

		if dep == nil {
			continue
		}

		dv := reflect.ValueOf(dep)
		if !dv.Type().AssignableTo(f.Type) {
			return nil, &TypeMismatchError{Expected: f.Type, Actual: dv.Type(), Context: "field " + f.Name}
		}
		elem.Field(f.Index).Set(dv)
	}

	return v.Interface(), nil
}

// ensureSingleton returns the cached instance of a singleton t, or calls fn
// and caches its result. A failed fn never fills the cache. Concurrent first
// resolutions wait for the one building t, so fn runs once. A nested
// resolution of t by the resolution already building it runs fn without
// waiting, and the first stored instance wins.
func (x *Context) ensureSingleton(c *Container, t reflect.Type, singleton bool, fn func() (any, error)) (any, bool, error) {
	if !singleton {
		instance, err := fn()
		return instance, false, err
	}

	for {
		instance, cached, busy := c.store.acquire(t, x)
		if cached {
			return instance, true, nil
		}
		if busy == nil {
			defer c.store.release(t, x)
			break
		}
		if busy.owner == x {
			break
		}

		select {
		case <-busy.done:
		case <-x.ctx.Done():
			return nil, false, &ResolutionError{Type: t, Cause: x.ctx.Err()}
		}
	}

	instance, err := fn()
	if err != nil {
		return nil, false, err
	}
	if instance == nil {
		return nil, false, nil
	}

	kept, stored := c.store.keep(t, instance)
	return kept, !stored, nil
}

// inject is the lenient resolution: unbound types without a base give nil.
func (x *Context) inject(t reflect.Type) (any, error) {
	if t == nil {
		return nil, ErrTypeNil
	}

	c := x.Container()
	if !c.store.bound(t) {
		if d, ok := types.get(t); !ok || d.base == nil {
			return nil, nil
		}
	}

	return x.create(t, nil)
}

// injectByName resolves the type indexed under name, falling back to the
// virtual type declared with that name.
func (x *Context) injectByName(name string) (any, error) {
	if name == "" {
		return nil, ErrNameEmpty
	}

	c := x.Container()
	if t, ok := c.store.named(name); ok {
		return x.create(t, nil)
	}

	if d, ok := types.named(name); ok {
		return x.create(d.Type, nil)
	}

	return nil, &ResolutionError{Name: name, Cause: ErrNotRegistered}
}

// as converts a resolved instance to T. A nil instance gives the zero value.
func as[T any](instance any, context string) (T, error) {
	var zero T
	if instance == nil {
		return zero, nil
	}

	v, ok := instance.(T)
	if !ok {
		return zero, &TypeMismatchError{
			Expected: reflect.TypeFor[T](),
			Actual:   reflect.TypeOf(instance),
			Context:  context,
		}
	}
	return v, nil
}
