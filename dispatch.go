package bindr

import (
	"context"
	"fmt"

	"github.com/junioryono/bindr/internal/reflection"
)

// Dispatch serves call against r: it resolves the type indexed under
// call.Type, finds call.Method on the instance and calls it with the
// converted arguments. A context.Context first parameter receives ctx.
//
// Failures to locate or call the method are returned as *DispatchError.
// An error returned by the method itself is returned unchanged.
func Dispatch(ctx context.Context, r Resolver, call *Call) (any, error) {
	if call == nil {
		return nil, &DispatchError{Cause: fmt.Errorf("%w: nil call", ErrBadArguments)}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	x := NewContext(ctx, resolverContext(r).Container())
	c := x.Container()

	entry := c.logger.WithField("type", call.Type).
		WithField("method", call.Method).
		WithField("call_id", call.ID)

	target, err := x.injectByName(call.Type)
	if err != nil {
		entry.WithError(err).Debug("bindr: dispatch target not resolved")
		return nil, &DispatchError{Type: call.Type, Method: call.Method, Cause: err}
	}

	m, err := reflection.PrepareMethod(ctx, target, call.Method, call.Args)
	if err != nil {
		entry.WithError(err).Debug("bindr: dispatch rejected")
		return nil, &DispatchError{Type: call.Type, Method: call.Method, Cause: err}
	}

	entry.Debug("bindr: dispatch")
	return m.Call()
}

// LocalHandler returns a ProxyHandler that dispatches calls into c on a
// separate goroutine. It stops waiting when ctx is done. A panic in the
// target method is returned as an error.
func LocalHandler(c *Container) ProxyHandler {
	return func(ctx context.Context, call *Call) (any, error) {
		if ctx == nil {
			ctx = context.Background()
		}

		done := make(chan Result, 1)
		go func() {
			defer func() {
				if p := recover(); p != nil {
					done <- Result{Err: fmt.Errorf("bindr: panic in %s.%s: %v", call.Type, call.Method, p)}
				}
			}()

			v, err := Dispatch(ctx, c, call)
			done <- Result{Value: v, Err: err}
		}()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case r := <-done:
			return r.Value, r.Err
		}
	}
}
