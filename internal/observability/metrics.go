// Package observability bundles the Prometheus metrics and OpenTelemetry
// tracing surfaces of the bubble simulator.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SimCollector bundles Prometheus metrics for a running simulation and
// implements core.MetricsRecorder.
type SimCollector struct {
	gatherer prometheus.Gatherer

	StepsTotal   prometheus.Counter
	StepDuration prometheus.Histogram

	BubblesCreated prometheus.Counter
	BubblesBurst   prometheus.Counter
	BubblesMerged  prometheus.Counter

	PopulationSize prometheus.Gauge
	MeanDiameter   prometheus.Gauge
}

// NewSimCollector registers simulation Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	steps, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_steps_total",
		Help: "Total number of fully committed simulation steps.",
	}), "sim_steps_total")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_step_duration_seconds",
		Help:    "Wall-clock duration of one simulation step in seconds.",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})
	duration, err = registerHistogram(reg, duration, "sim_step_duration_seconds")
	if err != nil {
		return nil, err
	}

	created, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_bubbles_created_total",
		Help: "Total bubbles produced by the create stage.",
	}), "sim_bubbles_created_total")
	if err != nil {
		return nil, err
	}
	burst, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_bubbles_burst_total",
		Help: "Total bubbles removed by the bursting stage.",
	}), "sim_bubbles_burst_total")
	if err != nil {
		return nil, err
	}
	merged, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_bubbles_merged_total",
		Help: "Total bubbles absorbed by coalescence.",
	}), "sim_bubbles_merged_total")
	if err != nil {
		return nil, err
	}

	size, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_population_bubbles",
		Help: "Current number of live bubbles.",
	}), "sim_population_bubbles")
	if err != nil {
		return nil, err
	}
	meanD, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_population_mean_diameter",
		Help: "Population-average bubble diameter at the last committed step.",
	}), "sim_population_mean_diameter")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:       gatherer,
		StepsTotal:     steps,
		StepDuration:   duration,
		BubblesCreated: created,
		BubblesBurst:   burst,
		BubblesMerged:  merged,
		PopulationSize: size,
		MeanDiameter:   meanD,
	}, nil
}

// ObserveStep records the outcome of one committed simulation step.
func (c *SimCollector) ObserveStep(duration time.Duration, created, burst, merged, size int, meanDiameter float64) {
	if c == nil {
		return
	}
	c.StepsTotal.Inc()
	c.StepDuration.Observe(duration.Seconds())
	c.BubblesCreated.Add(float64(created))
	c.BubblesBurst.Add(float64(burst))
	c.BubblesMerged.Add(float64(merged))
	c.PopulationSize.Set(float64(size))
	c.MeanDiameter.Set(meanDiameter)
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
