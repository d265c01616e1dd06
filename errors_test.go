package bindr

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errorsTestService struct{}

type errorsTestInterface interface {
	Do()
}

func TestSentinelErrors(t *testing.T) {
	sentinelErrors := []struct {
		err     error
		message string
	}{
		{ErrNotRegistered, "type not registered"},
		{ErrNotConstructible, "type is not constructible"},
		{ErrMaxDepth, "maximum construction depth exceeded"},
		{ErrProxyNotConfigured, "proxy handler not configured"},
		{ErrMethodNotFound, "method not found"},
		{ErrBadArguments, "invalid argument"},
		{ErrNilContainer, "container cannot be nil"},
		{ErrTypeNil, "type cannot be nil"},
		{ErrFactoryNil, "factory cannot be nil"},
		{ErrNameEmpty, "name cannot be empty"},
		{ErrContainerClosed, "container has been closed"},
	}

	for _, tt := range sentinelErrors {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestLifetimeError(t *testing.T) {
	assert.Equal(t, "invalid lifetime: invalid", LifetimeError{Value: "invalid"}.Error())
	assert.Equal(t, "invalid lifetime: 999", LifetimeError{Value: 999}.Error())
}

func TestResolutionError(t *testing.T) {
	typ := reflect.TypeOf(&errorsTestService{})

	tests := []struct {
		name     string
		err      ResolutionError
		contains string
		is       error
	}{
		{
			name:     "not registered",
			err:      ResolutionError{Type: typ, Cause: ErrNotRegistered},
			contains: "cannot resolve *errorsTestService: nothing is registered under it",
			is:       ErrNotRegistered,
		},
		{
			name:     "by name",
			err:      ResolutionError{Name: "app.Model", Cause: ErrNotRegistered},
			contains: `cannot resolve "app.Model"`,
			is:       ErrNotRegistered,
		},
		{
			name:     "not constructible",
			err:      ResolutionError{Type: typ, Cause: ErrNotConstructible},
			contains: "no override, factory or base constructor",
			is:       ErrNotConstructible,
		},
		{
			name:     "max depth",
			err:      ResolutionError{Type: typ, Cause: ErrMaxDepth},
			contains: "maximum construction depth exceeded",
			is:       ErrMaxDepth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, tt.err.Error(), tt.contains)
			assert.ErrorIs(t, &tt.err, tt.is)
		})
	}
}

func TestProxyError(t *testing.T) {
	err := &ProxyError{
		Type:  reflect.TypeOf((*errorsTestInterface)(nil)).Elem(),
		Cause: ErrProxyNotConfigured,
	}
	assert.Equal(t, "proxy errorsTestInterface: proxy handler not configured (call ProxyTo on the container first)", err.Error())
	assert.True(t, IsProxyNotConfigured(err))

	named := &ProxyError{Name: "billing.Service", Method: "Charge", Cause: errors.New("timeout")}
	assert.Equal(t, "proxy billing.Service.Charge: timeout", named.Error())
	assert.False(t, IsProxyNotConfigured(named))
}

func TestTypedErrors(t *testing.T) {
	typ := reflect.TypeOf(&errorsTestService{})
	cause := errors.New("cause")

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "type mismatch",
			err:      &TypeMismatchError{Expected: typ, Actual: reflect.TypeOf(""), Context: "resolved instance"},
			expected: "resolved instance: expected *errorsTestService, got string",
		},
		{
			name:     "registration",
			err:      &RegistrationError{Type: typ, Operation: "override", Cause: cause},
			expected: "failed to override *errorsTestService: cause",
		},
		{
			name:     "dispatch",
			err:      &DispatchError{Type: "app.Model", Method: "Run", Cause: cause},
			expected: "dispatch app.Model.Run: cause",
		},
		{
			name:     "module",
			err:      &ModuleError{Module: "storage", Cause: cause},
			expected: `module "storage": cause`,
		},
		{
			name:     "invoke",
			err:      &InvokeError{Function: reflect.TypeOf(func() {}), Cause: cause},
			expected: "invoke func(): cause",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestDisposalError(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")

	single := &DisposalError{Errors: []error{first}}
	assert.Equal(t, "container disposal failed: first", single.Error())

	multi := &DisposalError{Errors: []error{first, second}}
	assert.Equal(t, "container disposal failed with 2 errors:\n  1. first\n  2. second", multi.Error())
	assert.ErrorIs(t, multi, second)
}

func TestErrorWrapping(t *testing.T) {
	inner := &ResolutionError{Type: reflect.TypeOf(0), Cause: ErrNotRegistered}
	wrapped := fmt.Errorf("outer: %w", &ModuleError{Module: "m", Cause: &RegistrationError{Operation: "register", Cause: inner}})

	assert.True(t, IsNotRegistered(wrapped))
	assert.False(t, IsNotConstructible(wrapped))

	var re *ResolutionError
	require.ErrorAs(t, wrapped, &re)
	assert.Equal(t, reflect.TypeOf(0), re.Type)
}

func TestFormatType(t *testing.T) {
	tests := []struct {
		typ      reflect.Type
		expected string
	}{
		{nil, "<nil>"},
		{reflect.TypeOf(&errorsTestService{}), "*errorsTestService"},
		{reflect.TypeOf(errorsTestService{}), "errorsTestService"},
		{reflect.TypeOf((*errorsTestInterface)(nil)).Elem(), "errorsTestInterface"},
		{reflect.TypeOf(42), "int"},
		{reflect.TypeOf([]string{}), "[]string"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatType(tt.typ))
	}
}
