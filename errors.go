package bindr

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/junioryono/bindr/internal/reflection"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// These are base errors that are wrapped in typed errors when returned.
// Match them with errors.Is.

var (
	// Resolution errors.
	ErrNotRegistered    = errors.New("type not registered")
	ErrNotConstructible = errors.New("type is not constructible")
	ErrMaxDepth         = errors.New("maximum construction depth exceeded")

	// Proxy errors.
	ErrProxyNotConfigured = errors.New("proxy handler not configured")
	ErrMethodNotFound     = reflection.ErrMethodNotFound
	ErrBadArguments       = reflection.ErrArgument

	// Validation errors.
	ErrNilContainer = errors.New("container cannot be nil")
	ErrNilContext   = errors.New("construction context cannot be nil")
	ErrTypeNil      = errors.New("type cannot be nil")
	ErrFactoryNil   = errors.New("factory cannot be nil")
	ErrNameEmpty    = errors.New("name cannot be empty")

	// Lifecycle errors.
	ErrContainerClosed = errors.New("container has been closed")
)

var (
	_ error = LifetimeError{}
	_ error = ResolutionError{}
	_ error = ProxyError{}
	_ error = TypeMismatchError{}
	_ error = RegistrationError{}
	_ error = DispatchError{}
	_ error = InvokeError{}
	_ error = ModuleError{}
	_ error = DisposalError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// LifetimeError indicates an invalid lifetime value.
type LifetimeError struct {
	Value any
}

func (e LifetimeError) Error() string {
	return fmt.Sprintf("invalid lifetime: %v", e.Value)
}

// ResolutionError wraps errors that occur while resolving a type.
// Cause is ErrNotRegistered, ErrNotConstructible or ErrMaxDepth.
type ResolutionError struct {
	Type  reflect.Type
	Name  string // set for name-based lookups
	Cause error
}

func (e ResolutionError) Error() string {
	target := formatType(e.Type)
	if e.Type == nil && e.Name != "" {
		target = fmt.Sprintf("%q", e.Name)
	}

	switch {
	case errors.Is(e.Cause, ErrNotRegistered):
		return fmt.Sprintf("cannot resolve %s: nothing is registered under it", target)
	case errors.Is(e.Cause, ErrNotConstructible):
		return fmt.Sprintf("cannot resolve %s: no override, factory or base constructor is available", target)
	default:
		return fmt.Sprintf("cannot resolve %s: %v", target, e.Cause)
	}
}

func (e ResolutionError) Unwrap() error {
	return e.Cause
}

// ProxyError indicates a proxy-registered type could not be served.
type ProxyError struct {
	Type   reflect.Type
	Name   string
	Method string // empty when the failure happened at resolution time
	Cause  error
}

func (e ProxyError) Error() string {
	var b strings.Builder
	b.WriteString("proxy ")
	if e.Name != "" {
		b.WriteString(e.Name)
	} else {
		b.WriteString(formatType(e.Type))
	}
	if e.Method != "" {
		b.WriteString(".")
		b.WriteString(e.Method)
	}
	b.WriteString(": ")
	b.WriteString(e.Cause.Error())

	if errors.Is(e.Cause, ErrProxyNotConfigured) {
		b.WriteString(" (call ProxyTo on the container first)")
	}

	return b.String()
}

func (e ProxyError) Unwrap() error {
	return e.Cause
}

// TypeMismatchError indicates a resolved value is not of the requested type.
type TypeMismatchError struct {
	Expected reflect.Type
	Actual   reflect.Type
	Context  string // "resolved instance", "proxy adapter", etc.
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Context, formatType(e.Expected), formatType(e.Actual))
}

// RegistrationError wraps errors during registration.
type RegistrationError struct {
	Type      reflect.Type
	Operation string // "register", "override", "instance", "proxy", etc.
	Cause     error
}

func (e RegistrationError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Operation, formatType(e.Type), e.Cause)
}

func (e RegistrationError) Unwrap() error {
	return e.Cause
}

// DispatchError indicates a proxied call could not be delivered to the
// target method. Errors returned by the method itself are never wrapped.
type DispatchError struct {
	Type   string
	Method string
	Cause  error
}

func (e DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s.%s: %v", e.Type, e.Method, e.Cause)
}

func (e DispatchError) Unwrap() error {
	return e.Cause
}

// InvokeError wraps failures of Container.Invoke.
type InvokeError struct {
	Function reflect.Type
	Cause    error
}

func (e InvokeError) Error() string {
	return fmt.Sprintf("invoke %s: %v", formatType(e.Function), e.Cause)
}

func (e InvokeError) Unwrap() error {
	return e.Cause
}

// ModuleError wraps errors from module installation.
type ModuleError struct {
	Module string
	Cause  error
}

func (e ModuleError) Error() string {
	return fmt.Sprintf("module %q: %v", e.Module, e.Cause)
}

func (e ModuleError) Unwrap() error {
	return e.Cause
}

// DisposalError aggregates errors from closing cached singletons.
type DisposalError struct {
	Errors []error
}

func (e DisposalError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("container disposal failed: %v", e.Errors[0])
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("container disposal failed with %d errors:", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
	}
	return sb.String()
}

func (e DisposalError) Unwrap() []error {
	return e.Errors
}

// IsNotRegistered reports whether err is a strict lookup failure for a type
// or name with no registration.
func IsNotRegistered(err error) bool {
	return errors.Is(err, ErrNotRegistered)
}

// IsNotConstructible reports whether err comes from resolving a type that
// has no override, factory or usable base constructor.
func IsNotConstructible(err error) bool {
	return errors.Is(err, ErrNotConstructible)
}

// IsProxyNotConfigured reports whether err comes from using a proxy type on
// a container without a proxy handler.
func IsProxyNotConfigured(err error) bool {
	return errors.Is(err, ErrProxyNotConfigured)
}

// formatType formats a reflect.Type for error messages.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Interface, reflect.Struct:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	default:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}
