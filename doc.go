// Package bindr is a runtime binding, override and lifecycle engine for
// virtual types.
//
// A virtual type is an extension point: a type whose construction is
// redirected through a container that decides which implementation backs
// it, whether the instance is shared or built per call, and whether calls
// on it run locally or are forwarded to a remote handler.
//
// # Virtual types and overrides
//
// Declare a virtual type with its base constructor, then override it:
//
//	type Greeter interface{ Greet() string }
//
//	var GreeterType = bindr.MarkVirtual(func(ctx *bindr.Context, _ ...any) (Greeter, error) {
//	    return plainGreeter{}, nil
//	})
//
//	bindr.Override(GreeterType, func(ctx *bindr.Context, args ...any) (Greeter, error) {
//	    base, err := GreeterType.New(ctx, args...) // the base portion
//	    if err != nil {
//	        return nil, err
//	    }
//	    return loudGreeter{base}, nil
//	})
//
//	g, err := GreeterType.New(nil) // a loudGreeter wrapping a plainGreeter
//
// Inside an override, calling New with the override's own construction
// context builds the base portion instead of recursing.
//
// # Containers
//
// Containers are explicit registries. Bindings are made with a builder:
//
//	c := bindr.New(bindr.WithLogger(logrus.StandardLogger()))
//
//	bindr.For[Store](c).Use(newDiskStore).Singleton()
//	bindr.For[*Config](c).Return(cfg)
//	bindr.For[Clock](c).Execute(func(*bindr.Context) (Clock, error) { return systemClock{}, nil })
//	bindr.For[*Report](c).CreateSelf()
//
// and resolved with Inject (lenient), InjectByName (strict), Create, Build
// and Resolve:
//
//	store, err := bindr.Inject[Store](c)
//	report, err := bindr.Create[*Report](c)
//
// Build pushes another container onto the construction context's
// container stack while a type is built, so nested constructions resolve
// against it.
//
// # Lifetimes
//
// Transient registrations build a new instance per resolution. Singleton
// registrations build one instance, cache it, and hand out the same one
// until ClearSingletons, Reset or Delete. A failed construction never
// fills the cache.
//
// # Remote proxies
//
// A type registered with AsProxy resolves to a stand-in whose calls are
// forwarded to the container's ProxyHandler:
//
//	bindr.For[Model](c1).AsProxy(func(s *bindr.Stub) Model { return remoteModel{s} })
//	c1.ProxyTo(bindr.LocalHandler(c2))
//
// The remote subpackage carries calls over HTTP.
package bindr
