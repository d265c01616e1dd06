package bindr

import (
	"context"
	"reflect"
)

// Resolver is anything resolutions can start from: a *Container, or the
// *Context handed to a constructor. Passing the *Context from inside a
// constructor keeps nested constructions attributed to the container that
// is currently building. A nil Resolver means the default container.
type Resolver interface {
	resolution() *Context
}

var (
	_ Resolver = (*Container)(nil)
	_ Resolver = (*Context)(nil)
)

// frame is one construction in progress.
type frame struct {
	typ  reflect.Type
	impl *implementation // nil while a base constructor runs
}

// Context is the construction context passed to every constructor. It
// carries the container stack and the chain of constructions in progress.
// A Context belongs to one resolution and must not be shared between
// goroutines.
type Context struct {
	ctx        context.Context
	containers []*Container
	frames     []frame
}

// NewContext starts a resolution against c that carries ctx. Constructors
// can read ctx through Context.Context and proxied calls started from
// inside them inherit it.
func NewContext(ctx context.Context, c *Container) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if c == nil {
		c = Default()
	}

	return &Context{
		ctx:        ctx,
		containers: []*Container{c},
	}
}

func (x *Context) resolution() *Context {
	if x == nil {
		return Default().resolution()
	}
	return x
}

// Context returns the standard context of this resolution.
func (x *Context) Context() context.Context {
	return x.ctx
}

// Container returns the container on top of the stack, the one that
// resolutions made through x are served by.
func (x *Context) Container() *Container {
	return x.containers[len(x.containers)-1]
}

// Depth returns the number of constructions in progress.
func (x *Context) Depth() int {
	return len(x.frames)
}

// Building returns the type whose construction is innermost, or nil when
// nothing is being built.
func (x *Context) Building() reflect.Type {
	if top := x.top(); top != nil {
		return top.typ
	}
	return nil
}

func (x *Context) top() *frame {
	if len(x.frames) == 0 {
		return nil
	}
	return &x.frames[len(x.frames)-1]
}

func (x *Context) push(t reflect.Type, impl *implementation) {
	x.frames = append(x.frames, frame{typ: t, impl: impl})
}

func (x *Context) pop() {
	x.frames = x.frames[:len(x.frames)-1]
}

func (x *Context) pushContainer(c *Container) {
	x.containers = append(x.containers, c)
}

func (x *Context) popContainer() {
	x.containers = x.containers[:len(x.containers)-1]
}

// resolverContext returns the construction context r stands for.
func resolverContext(r Resolver) *Context {
	if r == nil {
		return Default().resolution()
	}
	return r.resolution()
}
