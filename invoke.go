package bindr

import (
	"fmt"
	"reflect"

	"go.uber.org/dig"
)

var errorType = reflect.TypeFor[error]()

// Invoke calls fn with its parameters resolved from c. fn may return an
// error as its last result, which is returned wrapped in *InvokeError.
//
//	err := c.Invoke(func(g Greeter, cfg *Config) error {
//	    return g.Greet(cfg.Name)
//	})
//
// Every type bound in c, and every declared virtual type, can be a
// parameter. Parameters are resolved through Create, so singletons are
// shared with the rest of the container.
func (c *Container) Invoke(fn any) error {
	ft := reflect.TypeOf(fn)
	if ft == nil || ft.Kind() != reflect.Func {
		return &InvokeError{Function: ft, Cause: fmt.Errorf("%w: expected a function", ErrBadArguments)}
	}

	dc := dig.New()
	provided := make(map[reflect.Type]bool)

	provide := func(t reflect.Type) error {
		if provided[t] || t == errorType {
			return nil
		}
		if err := dc.Provide(c.provider(t).Interface()); err != nil {
			return err
		}
		provided[t] = true
		return nil
	}

	for _, t := range c.store.types() {
		if err := provide(t); err != nil {
			return &InvokeError{Function: ft, Cause: err}
		}
	}
	// Declared types are process-wide; ones dig refuses are left out.
	for _, d := range types.all() {
		if err := provide(d.Type); err != nil {
			c.logger.WithField("type", formatType(d.Type)).WithError(err).Debug("bindr: invoke skipped type")
		}
	}

	if err := dc.Invoke(fn); err != nil {
		return &InvokeError{Function: ft, Cause: err}
	}
	return nil
}

// provider returns a func() (t, error) that resolves t from c.
func (c *Container) provider(t reflect.Type) reflect.Value {
	sig := reflect.FuncOf(nil, []reflect.Type{t, errorType}, false)

	return reflect.MakeFunc(sig, func([]reflect.Value) []reflect.Value {
		out := reflect.New(t).Elem()
		errOut := reflect.New(errorType).Elem()

		instance, err := c.resolution().create(t, nil)
		if err != nil {
			errOut.Set(reflect.ValueOf(err))
			return []reflect.Value{out, errOut}
		}

		if instance != nil {
			v := reflect.ValueOf(instance)
			if !v.Type().AssignableTo(t) {
				errOut.Set(reflect.ValueOf(error(&TypeMismatchError{Expected: t, Actual: v.Type(), Context: "invoke parameter"})))
				return []reflect.Value{out, errOut}
			}
			out.Set(v)
		}
		return []reflect.Value{out, errOut}
	})
}
