package bindr

import (
	"reflect"
)

// Registration is one registration step applied to a container.
type Registration func(*Container) error

// NewModule groups registrations under a name. Modules can contain other
// modules. A failing step stops the installation and is returned wrapped
// in *ModuleError.
//
//	var StorageModule = bindr.NewModule("storage",
//	    bindr.ProvideSingleton(NewDiskStore),
//	    bindr.Bind(StoreVirtual, NewCachedStore),
//	)
//
//	var AppModule = bindr.NewModule("app",
//	    StorageModule,
//	    bindr.Proxy(newRemoteBilling),
//	)
func NewModule(name string, regs ...Registration) Registration {
	return func(c *Container) error {
		for _, reg := range regs {
			if reg == nil {
				continue
			}

			if err := reg(c); err != nil {
				return &ModuleError{Module: name, Cause: err}
			}
		}

		return nil
	}
}

// Install applies modules to c in order.
func (c *Container) Install(modules ...Registration) error {
	for _, m := range modules {
		if m == nil {
			continue
		}
		if err := m(c); err != nil {
			return err
		}
	}
	return nil
}

// Provide registers factory as the factory of T.
func Provide[T any](factory Constructor[T]) Registration {
	return func(c *Container) error {
		if factory == nil {
			return &RegistrationError{Type: reflect.TypeFor[T](), Operation: "register", Cause: ErrFactoryNil}
		}
		return c.Register(reflect.TypeFor[T](), factory.factory())
	}
}

// Bind registers impl as the override of the virtual type v.
func Bind[T any](v *Virtual[T], impl Constructor[T]) Registration {
	return func(c *Container) error {
		if impl == nil {
			return &RegistrationError{Type: v.Unwrap(), Operation: "override", Cause: ErrFactoryNil}
		}
		return c.RegisterOverride(v.Unwrap(), impl.factory())
	}
}

// Instance registers an already built instance of T.
func Instance[T any](instance T) Registration {
	return func(c *Container) error {
		return c.RegisterInstance(reflect.TypeFor[T](), instance)
	}
}

// Proxy registers T as served by the proxy handler with adapt as its
// typed adapter.
func Proxy[T any](adapt func(*Stub) T) Registration {
	return func(c *Container) error {
		if adapt == nil {
			return &RegistrationError{Type: reflect.TypeFor[T](), Operation: "proxy", Cause: ErrFactoryNil}
		}
		return c.RegisterAsProxy(reflect.TypeFor[T](), func(s *Stub) any {
			return adapt(s)
		})
	}
}

// ProvideSingleton registers factory as the factory of T and makes T
// singleton-scoped.
func ProvideSingleton[T any](factory Constructor[T]) Registration {
	return func(c *Container) error {
		if err := Provide(factory)(c); err != nil {
			return err
		}
		return c.MarkSingleton(reflect.TypeFor[T]())
	}
}
