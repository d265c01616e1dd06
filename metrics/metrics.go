// Package metrics exports container activity as Prometheus metrics.
//
//	collector, err := metrics.New(prometheus.DefaultRegisterer)
//	if err != nil {
//	    return err
//	}
//	c := bindr.New(bindr.WithObserver(collector))
package metrics

import (
	"reflect"
	"time"

	"github.com/junioryono/bindr"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bindr"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Collector is a bindr.Observer recording Prometheus metrics.
type Collector struct {
	registrations *prometheus.CounterVec
	resolutions   *prometheus.CounterVec
	cacheHits     *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	proxyCalls    *prometheus.CounterVec
	proxyDuration *prometheus.HistogramVec
}

var _ bindr.Observer = (*Collector)(nil)

// New creates a Collector and registers its metrics with reg. A nil reg
// leaves the metrics unregistered.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registrations_total",
				Help:      "Total number of bindings registered.",
			},
			[]string{"type"},
		),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Total number of resolutions by outcome.",
			},
			[]string{"type", "outcome"},
		),
		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "singleton_cache_hits_total",
				Help:      "Total number of resolutions served from the singleton cache.",
			},
			[]string{"type"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolution_duration_seconds",
				Help:      "Resolution duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"type"},
		),
		proxyCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "proxy_calls_total",
				Help:      "Total number of proxied calls by outcome.",
			},
			[]string{"type", "method", "outcome"},
		),
		proxyDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "proxy_call_duration_seconds",
				Help:      "Proxied call duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type", "method"},
		),
	}

	if reg != nil {
		for _, col := range c.collectors() {
			if err := reg.Register(col); err != nil {
				return nil, err
			}
		}
	}

	return c, nil
}

// MustNew is like New but panics on error.
func MustNew(reg prometheus.Registerer) *Collector {
	c, err := New(reg)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.registrations,
		c.resolutions,
		c.cacheHits,
		c.duration,
		c.proxyCalls,
		c.proxyDuration,
	}
}

// OnRegistered implements bindr.Observer.
func (c *Collector) OnRegistered(t reflect.Type, _ string) {
	c.registrations.WithLabelValues(bindr.TypeName(t)).Inc()
}

// OnResolved implements bindr.Observer.
func (c *Collector) OnResolved(t reflect.Type, _ any, cached bool, d time.Duration) {
	name := bindr.TypeName(t)
	c.resolutions.WithLabelValues(name, OutcomeOK).Inc()
	c.duration.WithLabelValues(name).Observe(d.Seconds())
	if cached {
		c.cacheHits.WithLabelValues(name).Inc()
	}
}

// OnResolveError implements bindr.Observer.
func (c *Collector) OnResolveError(t reflect.Type, _ error) {
	c.resolutions.WithLabelValues(bindr.TypeName(t), OutcomeError).Inc()
}

// OnProxyCall implements bindr.Observer.
func (c *Collector) OnProxyCall(call *bindr.Call, d time.Duration, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	c.proxyCalls.WithLabelValues(call.Type, call.Method, outcome).Inc()
	c.proxyDuration.WithLabelValues(call.Type, call.Method).Observe(d.Seconds())
}
