package testutil

import (
	"testing"

	"github.com/junioryono/bindr"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// NewContainer creates a container logging to a test hook at debug level.
// The container is closed when the test ends.
func NewContainer(t *testing.T, opts ...bindr.Option) (*bindr.Container, *test.Hook) {
	t.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	c := bindr.New(append([]bindr.Option{bindr.WithLogger(logger)}, opts...)...)
	t.Cleanup(func() { _ = c.Close() })

	return c, hook
}

// MustCreate creates T from r and fails the test on error or a nil result.
func MustCreate[T any](t *testing.T, r bindr.Resolver, args ...any) T {
	t.Helper()
	v, err := bindr.Create[T](r, args...)
	require.NoError(t, err, "failed to create %T", *new(T))
	require.NotNil(t, v, "created instance is nil")
	return v
}

// MustInject injects T from r and fails the test on error.
func MustInject[T any](t *testing.T, r bindr.Resolver) T {
	t.Helper()
	v, err := bindr.Inject[T](r)
	require.NoError(t, err, "failed to inject %T", *new(T))
	return v
}

// AssertSameInstance fails the test unless a and b are the same pointer.
func AssertSameInstance(t *testing.T, a, b any) {
	t.Helper()
	require.Same(t, a, b, "expected the same instance")
}

// AssertLogged fails the test unless hook captured an entry with message.
func AssertLogged(t *testing.T, hook *test.Hook, level logrus.Level, message string) {
	t.Helper()
	for _, e := range hook.AllEntries() {
		if e.Level == level && e.Message == message {
			return
		}
	}
	require.Failf(t, "log entry not found", "no %s entry with message %q", level, message)
}
