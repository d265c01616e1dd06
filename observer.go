package bindr

import (
	"reflect"
	"time"
)

// Observer receives notifications about container activity. Embed
// BaseObserver to implement only the methods you need.
type Observer interface {
	// OnRegistered is called after a binding for t was stored.
	OnRegistered(t reflect.Type, name string)

	// OnResolved is called after t was resolved. cached reports whether the
	// instance came from the singleton cache.
	OnResolved(t reflect.Type, instance any, cached bool, d time.Duration)

	// OnResolveError is called after a resolution of t failed.
	OnResolveError(t reflect.Type, err error)

	// OnProxyCall is called after a proxied call returned.
	OnProxyCall(call *Call, d time.Duration, err error)
}

// BaseObserver implements Observer with no-op methods.
type BaseObserver struct{}

var _ Observer = BaseObserver{}

func (BaseObserver) OnRegistered(reflect.Type, string)                  {}
func (BaseObserver) OnResolved(reflect.Type, any, bool, time.Duration) {}
func (BaseObserver) OnResolveError(reflect.Type, error)                 {}
func (BaseObserver) OnProxyCall(*Call, time.Duration, error)            {}

func (c *Container) notifyRegistered(t reflect.Type, name string) {
	c.logger.WithField("type", formatType(t)).WithField("name", name).Debug("bindr: registered")

	for _, o := range c.opts.observers {
		o.OnRegistered(t, name)
	}
}

func (c *Container) notifyResolved(t reflect.Type, instance any, cached bool, d time.Duration) {
	for _, o := range c.opts.observers {
		o.OnResolved(t, instance, cached, d)
	}
	if c.opts.onResolved != nil {
		c.opts.onResolved(t, instance, d)
	}
}

func (c *Container) notifyError(t reflect.Type, err error, outermost bool) {
	if outermost {
		c.logger.WithField("type", formatType(t)).WithError(err).Warn("bindr: resolution failed")
	}

	for _, o := range c.opts.observers {
		o.OnResolveError(t, err)
	}
	if c.opts.onError != nil {
		c.opts.onError(t, err)
	}
}

func (c *Container) notifyProxyCall(call *Call, d time.Duration, err error) {
	entry := c.logger.WithField("type", call.Type).
		WithField("method", call.Method).
		WithField("call_id", call.ID).
		WithField("duration", d)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Debug("bindr: proxy call")

	for _, o := range c.opts.observers {
		o.OnProxyCall(call, d, err)
	}
}
