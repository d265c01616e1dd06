package bindr

import (
	"context"
	"reflect"
	"time"

	"github.com/junioryono/bindr/internal/reflection"
	"github.com/oklog/ulid/v2"
)

// Call is one proxied method invocation.
type Call struct {
	// ID identifies the call across process boundaries.
	ID string `json:"id"`

	// Type is the name the proxied type is indexed under.
	Type string `json:"type"`

	Method string `json:"method"`
	Args   []any  `json:"args"`
}

// ProxyHandler serves proxied calls. It is free to resolve the call however
// it wants, typically by dispatching it into another container, possibly in
// another process. Its error is returned to the caller unchanged.
type ProxyHandler func(ctx context.Context, call *Call) (any, error)

// Decoder is implemented by results and arguments that arrive encoded, for
// example as raw JSON, and must be decoded into a Go value.
type Decoder = reflection.Decoder

// Result is the outcome of an asynchronous proxied call.
type Result struct {
	Value any
	Err   error
}

// Stub is the stand-in for a proxy-registered type. Every call on it is
// forwarded to the proxy handler of the container it was resolved from.
// Typed adapters wrap a Stub and forward each method through Invoke.
//
//	type remoteModel struct{ s *bindr.Stub }
//
//	func (m remoteModel) Double(ctx context.Context, n int) (int, error) {
//	    return bindr.Decode[int](m.s.Invoke(ctx, "Double", n))
//	}
type Stub struct {
	name string
	typ  reflect.Type
	c    *Container
	ctx  context.Context
}

// Type returns the name calls are sent with.
func (s *Stub) Type() string {
	return s.name
}

// ReflectType returns the proxied type.
func (s *Stub) ReflectType() reflect.Type {
	return s.typ
}

// Invoke forwards method with args to the proxy handler and blocks until it
// returns. A nil ctx means the context of the resolution that built the
// stub.
func (s *Stub) Invoke(ctx context.Context, method string, args ...any) (any, error) {
	if ctx == nil {
		ctx = s.ctx
	}

	h := s.c.handler()
	if h == nil {
		return nil, &ProxyError{Type: s.typ, Name: s.name, Method: method, Cause: ErrProxyNotConfigured}
	}

	if args == nil {
		args = []any{}
	}

	call := &Call{
		ID:     ulid.Make().String(),
		Type:   s.name,
		Method: method,
		Args:   args,
	}

	start := time.Now()
	result, err := h(ctx, call)
	s.c.notifyProxyCall(call, time.Since(start), err)

	return result, err
}

// Go is the asynchronous form of Invoke. The channel receives exactly one
// Result and is then closed.
func (s *Stub) Go(ctx context.Context, method string, args ...any) <-chan Result {
	out := make(chan Result, 1)

	go func() {
		defer close(out)
		v, err := s.Invoke(ctx, method, args...)
		out <- Result{Value: v, Err: err}
	}()

	return out
}

// Get returns a callable for method.
func (s *Stub) Get(method string) func(ctx context.Context, args ...any) (any, error) {
	return func(ctx context.Context, args ...any) (any, error) {
		return s.Invoke(ctx, method, args...)
	}
}

// proxyFactory builds the stand-in for t. adapt may be nil, in which case
// the *Stub itself is the instance.
func proxyFactory(t reflect.Type, adapt func(*Stub) any) Factory {
	return func(ctx *Context, _ ...any) (any, error) {
		c := ctx.Container()
		stub := &Stub{
			name: c.nameOf(t),
			typ:  t,
			c:    c,
			ctx:  context.WithoutCancel(ctx.Context()),
		}

		if adapt == nil {
			return stub, nil
		}

		instance := adapt(stub)
		if instance == nil {
			return nil, &TypeMismatchError{Expected: t, Actual: nil, Context: "proxy adapter"}
		}
		if it := reflect.TypeOf(instance); !it.AssignableTo(t) {
			return nil, &TypeMismatchError{Expected: t, Actual: it, Context: "proxy adapter"}
		}
		return instance, nil
	}
}

// Decode converts a proxied call result to T. Values implementing Decoder,
// such as results received over a wire transport, are decoded into T;
// anything else must already be a T. A non-nil err is returned unchanged.
//
//	n, err := bindr.Decode[int](stub.Invoke(ctx, "Count"))
func Decode[T any](v any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}

	if d, ok := v.(Decoder); ok {
		var out T
		if err := d.Decode(&out); err != nil {
			return zero, err
		}
		return out, nil
	}

	return as[T](v, "proxy result")
}

// Await waits for the result of Stub.Go or the end of ctx, whichever comes
// first, and decodes it like Decode.
func Await[T any](ctx context.Context, ch <-chan Result) (T, error) {
	var zero T

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r, ok := <-ch:
		if !ok {
			return zero, context.Canceled
		}
		return Decode[T](r.Value, r.Err)
	}
}
