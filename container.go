package bindr

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Container is an explicit registry and resolver. It maps types to
// overrides, factories, cached singletons and proxy stand-ins.
//
// Registration and Reset are expected to happen in a setup phase. They are
// safe to call concurrently with resolutions, but resolutions in flight may
// observe either the old or the new bindings.
type Container struct {
	id     string
	store  *store
	opts   *options
	logger logrus.FieldLogger

	mu           sync.RWMutex
	proxyHandler ProxyHandler

	closed atomic.Bool
}

// New creates an empty container.
func New(opts ...Option) *Container {
	o := newOptions(opts)
	id := uuid.NewString()

	return &Container{
		id:     id,
		store:  newStore(),
		opts:   o,
		logger: o.logger.WithField("container", id),
	}
}

// ID returns the unique identifier of the container.
func (c *Container) ID() string {
	return c.id
}

func (c *Container) resolution() *Context {
	if c == nil {
		c = Default()
	}
	return NewContext(context.Background(), c)
}

// Register binds t to factory. Resolutions of t call factory unless an
// override is registered.
func (c *Container) Register(t reflect.Type, factory Factory) error {
	if factory == nil {
		return &RegistrationError{Type: t, Operation: "register", Cause: ErrFactoryNil}
	}
	return c.bind(t, "register", "", func(rec *record) {
		rec.factory = &implementation{fn: factory}
	})
}

// RegisterOverride binds t to impl, replacing any previous override.
// Overrides take precedence over factories.
func (c *Container) RegisterOverride(t reflect.Type, impl Factory) error {
	if impl == nil {
		return &RegistrationError{Type: t, Operation: "override", Cause: ErrFactoryNil}
	}
	return c.bind(t, "override", "", func(rec *record) {
		rec.override = &implementation{fn: impl}
	})
}

// RegisterInstance binds t to an already built instance. The instance is
// returned as a singleton.
func (c *Container) RegisterInstance(t reflect.Type, instance any) error {
	if t == nil {
		return &RegistrationError{Operation: "instance", Cause: ErrTypeNil}
	}
	if instance != nil && !reflect.TypeOf(instance).AssignableTo(t) {
		return &RegistrationError{
			Type:      t,
			Operation: "instance",
			Cause:     &TypeMismatchError{Expected: t, Actual: reflect.TypeOf(instance), Context: "instance"},
		}
	}

	return c.bind(t, "instance", "", func(rec *record) {
		rec.factory = &implementation{
			typ: reflect.TypeOf(instance),
			fn:  func(*Context, ...any) (any, error) { return instance, nil },
		}
		rec.lifetime = Singleton
	})
}

// MarkSingleton flags t singleton-scoped in this container.
func (c *Container) MarkSingleton(t reflect.Type) error {
	return c.setLifetime(t, Singleton)
}

// RegisterAsProxy marks t as served by the proxy handler. The first
// resolution builds a Stub, passes it to adapt and caches the result. A nil
// adapt makes the *Stub itself the instance.
func (c *Container) RegisterAsProxy(t reflect.Type, adapt func(*Stub) any) error {
	return c.bind(t, "proxy", "", func(rec *record) {
		rec.proxy = &implementation{fn: proxyFactory(t, adapt)}
		rec.lifetime = Singleton
	})
}

// Reset drops all registrations, cached instances and names. Lifetimes
// declared with MarkSingleton on a virtual type still apply afterwards.
func (c *Container) Reset() {
	c.store.reset()
	c.logger.Debug("bindr: reset")
}

// ClearSingletons drops cached instances and keeps registrations. The next
// resolution of a singleton builds it again.
func (c *Container) ClearSingletons() {
	c.store.clearSingletons()
	c.logger.Debug("bindr: singletons cleared")
}

// Delete removes the record for t, including its cached instance and
// names. It reports whether a record existed.
func (c *Container) Delete(t reflect.Type) bool {
	return c.store.remove(t)
}

// IsRegistered reports whether anything is bound to t.
func (c *Container) IsRegistered(t reflect.Type) bool {
	return c.store.bound(t)
}

// Names returns the names indexed in this container, sorted.
func (c *Container) Names() []string {
	return c.store.nameList()
}

// Lookup returns the type indexed under name.
func (c *Container) Lookup(name string) (reflect.Type, bool) {
	if t, ok := c.store.named(name); ok {
		return t, true
	}
	if d, ok := types.named(name); ok {
		return d.Type, true
	}
	return nil, false
}

// ProxyTo sets the handler every proxy stand-in resolved from this
// container forwards its calls to. Stand-ins read the handler at call time.
func (c *Container) ProxyTo(handler ProxyHandler) *Container {
	c.mu.Lock()
	c.proxyHandler = handler
	c.mu.Unlock()
	return c
}

func (c *Container) handler() ProxyHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.proxyHandler
}

// Close closes cached singletons implementing io.Closer, newest first.
// After Close every resolution fails with ErrContainerClosed.
func (c *Container) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrContainerClosed
	}

	c.logger.Debug("bindr: closing")
	return dispose(c.store.closers())
}

// bind applies fn to the record of t and indexes the type name and the
// extra name.
func (c *Container) bind(t reflect.Type, op, name string, fn func(*record)) error {
	if t == nil {
		return &RegistrationError{Operation: op, Cause: ErrTypeNil}
	}
	if c.closed.Load() {
		return &RegistrationError{Type: t, Operation: op, Cause: ErrContainerClosed}
	}

	c.store.update(t, func(rec *record) {
		fn(rec)
		if name != "" {
			rec.name = name
		}
	})

	// An explicit name becomes the record name used by proxy calls;
	// otherwise the first indexed name does.
	if name != "" {
		c.store.index(name, t)
	}
	c.store.index(TypeName(t), t)

	c.notifyRegistered(t, c.nameOf(t))
	return nil
}

func (c *Container) setLifetime(t reflect.Type, l Lifetime) error {
	if t == nil {
		return &RegistrationError{Operation: "lifetime", Cause: ErrTypeNil}
	}
	if !l.IsValid() {
		return &RegistrationError{Type: t, Operation: "lifetime", Cause: &LifetimeError{Value: l}}
	}

	c.store.update(t, func(rec *record) {
		rec.lifetime = l
	})
	return nil
}

// nameOf returns the name t is indexed under in this container.
func (c *Container) nameOf(t reflect.Type) string {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	if rec, ok := c.store.records[t]; ok && rec.name != "" {
		return rec.name
	}
	return TypeName(t)
}
