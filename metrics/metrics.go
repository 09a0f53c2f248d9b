// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package metrics provides a Prometheus implementation of gatesim.Recorder.
//
package metrics

import (
	"net/http"
	"time"

	"github.com/db47h/gatesim"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records propagation statistics of one or more circuits.
//
type Collector struct {
	gatherer prometheus.Gatherer

	Events       prometheus.Counter
	Batches      prometheus.Counter
	NetChanges   prometheus.Counter
	ConflictNets prometheus.Counter
	Oscillations prometheus.Counter
	Drains       prometheus.Histogram
}

var _ gatesim.Recorder = (*Collector)(nil)

// New registers the gatesim metrics against reg, defaulting to the global
// Prometheus registry when nil. Registering twice against the same registry
// returns collectors sharing the existing metrics.
//
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error
	counter := func(name, help string) prometheus.Counter {
		if err != nil {
			return nil
		}
		var m prometheus.Counter
		m, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help}), name)
		return m
	}
	c.Events = counter("gatesim_events_total", "Total number of component evaluations.")
	c.Batches = counter("gatesim_batches_total", "Total number of processed event batches.")
	c.NetChanges = counter("gatesim_net_changes_total", "Total number of committed net value changes.")
	c.ConflictNets = counter("gatesim_conflicts_total", "Total number of nets driven to Error by conflicting drivers.")
	c.Oscillations = counter("gatesim_oscillations_total", "Total number of oscillations detected.")
	if err != nil {
		return nil, err
	}
	c.Drains, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gatesim_drain_duration_seconds",
		Help:    "Duration of propagation runs until the circuit is stable.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}), "gatesim_drain_duration_seconds")
	if err != nil {
		return nil, err
	}
	return c, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, m T, name string) (T, error) {
	if err := reg.Register(m); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			return m, errors.Errorf("collector %s already registered with incompatible type", name)
		}
		return m, errors.Wrap(err, name)
	}
	return m, nil
}

// Handler returns a /metrics handler for the registry c was registered with.
//
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Batch implements gatesim.Recorder.
func (c *Collector) Batch(events, changes int) {
	c.Batches.Inc()
	c.Events.Add(float64(events))
	c.NetChanges.Add(float64(changes))
}

// Conflicts implements gatesim.Recorder.
func (c *Collector) Conflicts(n int) { c.ConflictNets.Add(float64(n)) }

// Oscillation implements gatesim.Recorder.
func (c *Collector) Oscillation() { c.Oscillations.Inc() }

// Drain implements gatesim.Recorder.
func (c *Collector) Drain(d time.Duration) { c.Drains.Observe(d.Seconds()) }
