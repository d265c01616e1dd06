package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/junioryono/bindr"
)

// ErrBoom is a construction failure used by failing factories.
var ErrBoom = errors.New("boom")

// Counter counts factory executions.
type Counter struct {
	n atomic.Int64
}

// Count returns the number of executions.
func (c *Counter) Count() int {
	return int(c.n.Load())
}

// Factory wraps ctor so each execution is counted.
func Factory[T any](c *Counter, ctor func() T) bindr.Constructor[T] {
	return func(*bindr.Context, ...any) (T, error) {
		c.n.Add(1)
		return ctor(), nil
	}
}

// Failing returns a constructor that always fails with ErrBoom after
// counting the attempt.
func Failing[T any](c *Counter) bindr.Constructor[T] {
	return func(*bindr.Context, ...any) (T, error) {
		c.n.Add(1)
		var zero T
		return zero, ErrBoom
	}
}

// CloseLog records the order resources are closed in.
type CloseLog struct {
	mu    sync.Mutex
	names []string
}

// Names returns the closed resource names in close order.
func (l *CloseLog) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.names...)
}

// Resource is an io.Closer that records its name in a CloseLog.
type Resource struct {
	Name string
	Log  *CloseLog
	Err  error
}

func (r *Resource) Close() error {
	r.Log.mu.Lock()
	r.Log.names = append(r.Log.names, r.Name)
	r.Log.mu.Unlock()
	return r.Err
}
