package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/dayplan/core/metrics"
)

// PromSink records scheduling passes in Prometheus metrics.
type PromSink struct {
	passes   *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration prometheus.Histogram
	span     prometheus.Gauge
	size     prometheus.Gauge
}

// NewPromSink registers pass metrics on the default Prometheus registerer.
// The endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Metrics
// that are already registered are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	passes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dayplan_passes_total",
		Help: "Total number of scheduling passes",
	}, []string{"source", "changed"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dayplan_pass_failures_total",
		Help: "Scheduling passes aborted before the plan was resolved or saved",
	}, []string{"source", "stage"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dayplan_pass_duration_seconds",
		Help:    "Time spent loading, resolving and saving a plan",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
	span := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dayplan_plan_span_minutes",
		Help: "Minutes between the first and last anchor of the last resolved plan",
	})
	size := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dayplan_plan_activities",
		Help: "Number of activities in the last resolved plan",
	})

	var err error
	if passes, err = register(reg, passes); err != nil {
		return nil, err
	}
	if failures, err = register(reg, failures); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if span, err = register(reg, span); err != nil {
		return nil, err
	}
	if size, err = register(reg, size); err != nil {
		return nil, err
	}
	return &PromSink{passes: passes, failures: failures, duration: duration, span: span, size: size}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordPass counts the pass and updates the plan gauges.
func (s *PromSink) RecordPass(ev coremetrics.PassEvent) error {
	s.passes.WithLabelValues(ev.Source, strconv.FormatBool(ev.Changed)).Inc()
	s.duration.Observe(ev.Duration.Seconds())
	s.span.Set(float64(ev.SpanMinutes))
	s.size.Set(float64(ev.Activities))
	return nil
}

// RecordPassError counts an aborted pass.
func (s *PromSink) RecordPassError(ev coremetrics.PassErrorEvent) error {
	s.failures.WithLabelValues(ev.Source, ev.Stage).Inc()
	return nil
}
