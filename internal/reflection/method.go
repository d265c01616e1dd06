package reflection

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
)

var (
	// ErrMethodNotFound is returned when the target has no exported method
	// with the requested name.
	ErrMethodNotFound = errors.New("method not found")

	// ErrArgument is returned when call arguments do not fit the method.
	ErrArgument = errors.New("invalid argument")
)

// Decoder is implemented by arguments that arrive encoded (for example as
// raw JSON) and must be decoded into the parameter type of the method.
type Decoder interface {
	Decode(v any) error
}

// Method is a method bound to its receiver with converted arguments,
// ready to be called.
type Method struct {
	Name string

	fn reflect.Value
	in []reflect.Value
}

// PrepareMethod looks up name on target and converts args to the method's
// parameter types. When the first parameter is a context.Context, ctx is
// passed there and args fill the remaining parameters.
func PrepareMethod(ctx context.Context, target any, name string, args []any) (*Method, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: %s called on nil target", ErrMethodNotFound, name)
	}

	fn := reflect.ValueOf(target).MethodByName(name)
	if !fn.IsValid() {
		return nil, fmt.Errorf("%w: %T has no method %s", ErrMethodNotFound, target, name)
	}

	ft := fn.Type()
	in := make([]reflect.Value, 0, ft.NumIn())

	offset := 0
	if ft.NumIn() > 0 && ft.In(0) == contextType {
		if ctx == nil {
			ctx = context.Background()
		}
		in = append(in, reflect.ValueOf(ctx))
		offset = 1
	}

	fixed := ft.NumIn() - offset
	if ft.IsVariadic() {
		fixed--
	}

	if len(args) < fixed || (!ft.IsVariadic() && len(args) > fixed) {
		return nil, fmt.Errorf("%w: %s expects %d arguments, got %d", ErrArgument, name, fixed, len(args))
	}

	for i := 0; i < fixed; i++ {
		v, err := convert(args[i], ft.In(offset+i))
		if err != nil {
			return nil, fmt.Errorf("%s argument %d: %w", name, i, err)
		}
		in = append(in, v)
	}

	if ft.IsVariadic() {
		elem := ft.In(ft.NumIn() - 1).Elem()
		for i, arg := range args[fixed:] {
			v, err := convert(arg, elem)
			if err != nil {
				return nil, fmt.Errorf("%s argument %d: %w", name, fixed+i, err)
			}
			in = append(in, v)
		}
	}

	return &Method{Name: name, fn: fn, in: in}, nil
}

// Call invokes the method. Returns are mapped as follows: no values give
// (nil, nil); a single error gives (nil, err); otherwise the first value is
// the result and a trailing error, if any, is the error.
func (m *Method) Call() (any, error) {
	return unpack(m.fn.Call(m.in))
}

func unpack(out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if implementsError(out[0].Type()) {
			return nil, asError(out[0])
		}
		return valueOf(out[0]), nil
	default:
		var err error
		if last := out[len(out)-1]; implementsError(last.Type()) {
			err = asError(last)
		}
		return valueOf(out[0]), err
	}
}

func asError(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		if v.IsNil() {
			return nil
		}
	}
	return v.Interface().(error)
}

func valueOf(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		if v.IsNil() {
			return nil
		}
	}
	return v.Interface()
}

// convert adapts a single argument to the parameter type.
func convert(arg any, to reflect.Type) (reflect.Value, error) {
	if d, ok := arg.(Decoder); ok {
		ptr := reflect.New(to)
		if err := d.Decode(ptr.Interface()); err != nil {
			return reflect.Value{}, fmt.Errorf("%w: decode into %s: %v", ErrArgument, to, err)
		}
		return ptr.Elem(), nil
	}

	if arg == nil {
		switch to.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
			return reflect.Zero(to), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: nil is not assignable to %s", ErrArgument, to)
	}

	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(to) {
		return v, nil
	}

	if isNumeric(v.Kind()) && isNumeric(to.Kind()) {
		return convertNumber(v, to)
	}
	if v.Kind() == reflect.String && to.Kind() == reflect.String {
		return v.Convert(to), nil
	}

	return reflect.Value{}, fmt.Errorf("%w: %s is not assignable to %s", ErrArgument, v.Type(), to)
}

// convertNumber converts between numeric kinds. Fractional values never
// become integers and values out of the target's range are rejected.
func convertNumber(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	out := reflect.New(to).Elem()

	switch {
	case isInt(to.Kind()):
		var n int64
		switch {
		case isInt(v.Kind()):
			n = v.Int()
		case isUint(v.Kind()):
			if v.Uint() > math.MaxInt64 {
				return reflect.Value{}, overflow(v, to)
			}
			n = int64(v.Uint())
		default:
			f := v.Float()
			if f != math.Trunc(f) {
				return reflect.Value{}, fractional(v, to)
			}
			if f < -(1<<63) || f >= 1<<63 {
				return reflect.Value{}, overflow(v, to)
			}
			n = int64(f)
		}
		if out.OverflowInt(n) {
			return reflect.Value{}, overflow(v, to)
		}
		out.SetInt(n)

	case isUint(to.Kind()):
		var n uint64
		switch {
		case isUint(v.Kind()):
			n = v.Uint()
		case isInt(v.Kind()):
			if v.Int() < 0 {
				return reflect.Value{}, overflow(v, to)
			}
			n = uint64(v.Int())
		default:
			f := v.Float()
			if f != math.Trunc(f) {
				return reflect.Value{}, fractional(v, to)
			}
			if f < 0 || f >= 1<<64 {
				return reflect.Value{}, overflow(v, to)
			}
			n = uint64(f)
		}
		if out.OverflowUint(n) {
			return reflect.Value{}, overflow(v, to)
		}
		out.SetUint(n)

	default:
		f := v.Convert(reflect.TypeFor[float64]()).Float()
		if out.OverflowFloat(f) {
			return reflect.Value{}, overflow(v, to)
		}
		out.SetFloat(f)
	}

	return out, nil
}

func overflow(v reflect.Value, to reflect.Type) error {
	return fmt.Errorf("%w: %v overflows %s", ErrArgument, v.Interface(), to)
}

func fractional(v reflect.Value, to reflect.Type) error {
	return fmt.Errorf("%w: %v is not a whole number for %s", ErrArgument, v.Interface(), to)
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
