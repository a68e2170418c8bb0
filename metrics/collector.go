// Copyright 2026 The go-thunk Authors
// SPDX-License-Identifier: Apache-2.0

// Package thunkmetrics instruments a dispatch sink with Prometheus
// metrics. The collector wraps an existing thunk.Dispatch and observes
// every lifecycle event flowing through it: per-task event counts, the
// number of invocations in flight, and settle durations.
package thunkmetrics

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/go-thunk/thunk"
	"github.com/go-thunk/thunk/event"
)

// settings holds the collector configuration assembled from options.
type settings struct {
	namespace  string
	registerer prometheus.Registerer
	buckets    []float64
}

// Option configures a Collector at construction time.
type Option func(*settings)

// WithNamespace sets the namespace prefix of the metric names.
// The default is "thunk".
func WithNamespace(namespace string) Option {
	return func(s *settings) {
		if namespace != "" {
			s.namespace = namespace
		}
	}
}

// WithRegisterer sets the registry the metrics are registered with.
// The default is prometheus.DefaultRegisterer.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(s *settings) {
		if r != nil {
			s.registerer = r
		}
	}
}

// WithDurationBuckets replaces the default settle-duration histogram
// buckets.
func WithDurationBuckets(buckets []float64) Option {
	return func(s *settings) {
		if len(buckets) > 0 {
			s.buckets = buckets
		}
	}
}

// Collector observes lifecycle events and exposes them as Prometheus
// metrics. One Collector may wrap any number of sinks; its state is safe
// for concurrent use.
type Collector struct {
	events   *prometheus.CounterVec   // Lifecycle events by task and status
	inFlight prometheus.Gauge         // Invocations with a pending but no final event
	duration *prometheus.HistogramVec // Pending-to-settlement duration by task

	starts sync.Map // request id -> pending observation time.Time
}

// NewCollector creates a Collector and registers its metrics.
func NewCollector(opts ...Option) (*Collector, error) {
	s := &settings{
		namespace:  "thunk",
		registerer: prometheus.DefaultRegisterer,
		buckets:    prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(s)
	}

	c := &Collector{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: s.namespace,
			Name:      "task_events_total",
			Help:      "Lifecycle events dispatched, by task type prefix and status.",
		}, []string{"task", "status"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: s.namespace,
			Name:      "tasks_in_flight",
			Help:      "Invocations that dispatched a pending event and have not settled.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: s.namespace,
			Name:      "task_settle_duration_seconds",
			Help:      "Time from pending to settlement, by task type prefix.",
			Buckets:   s.buckets,
		}, []string{"task"}),
	}

	for _, col := range []prometheus.Collector{c.events, c.inFlight, c.duration} {
		if err := s.registerer.Register(col); err != nil {
			return nil, fmt.Errorf("failed to register task metrics: %w", err)
		}
	}
	return c, nil
}

// WrapDispatch returns a sink that records each event and then forwards it
// to next. A nil next records without forwarding, which is enough for a
// metrics-only environment.
func (c *Collector) WrapDispatch(next thunk.Dispatch) thunk.Dispatch {
	return func(e event.Event) {
		c.observe(e)
		if next != nil {
			next(e)
		}
	}
}

// observe updates the metrics for one event. Events without engine
// lifecycle metadata pass through unobserved.
func (c *Collector) observe(e event.Event) {
	m, ok := e.Meta.(thunk.Meta)
	if !ok {
		return
	}
	task := strings.TrimSuffix(e.Type, "/"+string(m.Status))
	c.events.WithLabelValues(task, string(m.Status)).Inc()

	switch m.Status {
	case thunk.StatusPending:
		c.inFlight.Inc()
		c.starts.Store(m.RequestID, time.Now())
	case thunk.StatusSucceeded, thunk.StatusFailed:
		// A final event without a recorded pending (a dispatched
		// condition rejection) must not move the gauge.
		if v, loaded := c.starts.LoadAndDelete(m.RequestID); loaded {
			c.inFlight.Dec()
			c.duration.WithLabelValues(task).Observe(time.Since(v.(time.Time)).Seconds())
		}
	}
}
