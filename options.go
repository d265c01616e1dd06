package bindr

import (
	"io"
	"reflect"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultMaxDepth = 100

// Option configures a Container.
type Option interface {
	apply(*options)
}

// options holds container configuration.
type options struct {
	logger    logrus.FieldLogger
	observers []Observer
	maxDepth  int

	onResolved func(t reflect.Type, instance any, duration time.Duration)
	onError    func(t reflect.Type, err error)
}

// optionFunc adapts a function to Option.
type optionFunc func(*options)

func (f optionFunc) apply(opts *options) {
	f(opts)
}

func newOptions(opts []Option) *options {
	o := &options{maxDepth: defaultMaxDepth}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(o)
		}
	}

	if o.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.logger = l
	}

	return o
}

// WithLogger sets the structured logger the container reports to.
// Registrations and proxy dispatch are logged at debug level, resolution
// failures at warn level. By default output is discarded.
func WithLogger(logger logrus.FieldLogger) Option {
	return optionFunc(func(opts *options) {
		opts.logger = logger
	})
}

// WithObserver adds an Observer notified about registrations, resolutions
// and proxy calls. Observers are called synchronously and must be cheap.
func WithObserver(o Observer) Option {
	return optionFunc(func(opts *options) {
		if o != nil {
			opts.observers = append(opts.observers, o)
		}
	})
}

// WithMaxDepth bounds the number of nested constructions within one
// resolution. Exceeding it fails with ErrMaxDepth instead of overflowing
// the stack on a construction cycle.
func WithMaxDepth(depth int) Option {
	return optionFunc(func(opts *options) {
		if depth > 0 {
			opts.maxDepth = depth
		}
	})
}

// WithOnResolved registers a callback invoked after every successful resolution.
func WithOnResolved(fn func(t reflect.Type, instance any, duration time.Duration)) Option {
	return optionFunc(func(opts *options) {
		opts.onResolved = fn
	})
}

// WithOnError registers a callback invoked after every failed resolution.
func WithOnError(fn func(t reflect.Type, err error)) Option {
	return optionFunc(func(opts *options) {
		opts.onError = fn
	})
}
