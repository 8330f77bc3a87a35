package core

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/exp/rand"

	"github.com/signalsfoundry/bubble-simulator/internal/logging"
	"github.com/signalsfoundry/bubble-simulator/model"
)

// MetricsRecorder receives per-step observations. Implemented by
// observability.SimCollector; nil disables recording.
type MetricsRecorder interface {
	ObserveStep(duration time.Duration, created, burst, merged, size int, meanDiameter float64)
}

// EngineConfig assembles an advancing engine. Params and Aggregator are
// required; nil stages default to NoopStage, a nil logger to noop. A nil
// Initial population is seeded from the n_bubbles parameter (absent means
// empty); a non-nil one is used as given.
type EngineConfig struct {
	Params     *Params
	Create     Stage
	Pop        Stage
	Move       Stage
	Merge      Stage
	Aggregator Aggregator
	Initial    model.Population
	Seed       uint64
	Logger     logging.Logger
	Metrics    MetricsRecorder
}

// Engine advances a bubble population through the fixed per-step pipeline
// Create -> Pop -> Move -> Merge -> Aggregate and records one snapshot per
// completed step.
//
// Execution is single-threaded and synchronous: the engine exclusively owns
// the population and the time series, and one step fully completes before
// the next begins. The engine imposes no bound on population growth;
// runaway production without sufficient bursting or merging is the caller's
// responsibility to bound via parameters.
type Engine struct {
	params  *Params
	create  Stage
	pop     Stage
	move    Stage
	merge   Stage
	agg     Aggregator
	series  TimeSeries
	bubbles model.Population
	rng     *rand.Rand
	log     logging.Logger
	metrics MetricsRecorder
	tracer  trace.Tracer
	step    int
}

// NewEngine validates the configuration, takes ownership of a copy of the
// initial population, and records its snapshot as step 0. When Initial is
// nil the engine seeds n_bubbles fresh bubbles itself, drawn from the
// engine's own source so the whole run stays a function of the seed.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Params == nil {
		return nil, fmt.Errorf("engine: params are required")
	}
	if cfg.Aggregator == nil {
		return nil, fmt.Errorf("engine: aggregator is required")
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Noop()
	}
	e := &Engine{
		params:  cfg.Params,
		create:  orNoop(cfg.Create),
		pop:     orNoop(cfg.Pop),
		move:    orNoop(cfg.Move),
		merge:   orNoop(cfg.Merge),
		agg:     cfg.Aggregator,
		bubbles: cfg.Initial.Clone(),
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		log:     log,
		metrics: cfg.Metrics,
		tracer:  otel.Tracer("bubble-simulator/core"),
	}
	if cfg.Initial == nil && cfg.Params.Has(ParamNBubbles) {
		n, err := cfg.Params.Int(ParamNBubbles)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, &ConfigurationError{Key: ParamNBubbles, Reason: fmt.Sprintf("must be non-negative, got %d", n)}
		}
		seeded, err := newBubbles(n, nil, cfg.Params, e.rng)
		if err != nil {
			return nil, fmt.Errorf("engine: seed population: %w", err)
		}
		e.bubbles = seeded
	}
	snap, err := e.agg.Aggregate(0, e.bubbles)
	if err != nil {
		return nil, fmt.Errorf("engine: initial population: %w", err)
	}
	e.series.Append(snap)
	return e, nil
}

func orNoop(s Stage) Stage {
	if s == nil {
		return NoopStage{}
	}
	return s
}

// Run executes exactly n steps sequentially. Run(0) is a no-op. The first
// stage or aggregation error aborts the run: the failing step's record is
// never appended and the engine stays at the state of the last fully
// committed step, inspectable for diagnostics.
func (e *Engine) Run(ctx context.Context, n int) error {
	if n < 0 {
		return fmt.Errorf("engine: negative step count %d", n)
	}
	if n == 0 {
		return nil
	}

	ctx, span := e.tracer.Start(ctx, "simulation.run",
		trace.WithAttributes(
			attribute.Int("sim.steps", n),
			attribute.Int("sim.start_step", e.step),
		))
	defer span.End()

	e.log.Info(ctx, "run started",
		logging.Int("steps", n),
		logging.Int("population", e.bubbles.Len()))

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		if err := e.stepOnce(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("step %d: %w", e.step+1, err)
		}
	}

	e.log.Info(ctx, "run finished",
		logging.Int("step", e.step),
		logging.Int("population", e.bubbles.Len()))
	return nil
}

// stepOnce applies the four stages in fixed order on a working copy of the
// population, aggregates the result, and commits copy, snapshot, and step
// counter together. Working on a copy is what keeps a failed step from
// leaving partially applied stage effects behind.
func (e *Engine) stepOnce(ctx context.Context) error {
	ctx, span := e.tracer.Start(ctx, "simulation.step",
		trace.WithAttributes(attribute.Int("sim.step", e.step+1)))
	defer span.End()

	start := time.Now()
	working := e.bubbles.Clone()
	before := working.Len()

	working, err := e.create.Apply(working, e.params, e.rng)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	afterCreate := working.Len()

	working, err = e.pop.Apply(working, e.params, e.rng)
	if err != nil {
		return fmt.Errorf("pop: %w", err)
	}
	afterPop := working.Len()

	working, err = e.move.Apply(working, e.params, e.rng)
	if err != nil {
		return fmt.Errorf("move: %w", err)
	}

	working, err = e.merge.Apply(working, e.params, e.rng)
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}

	snap, err := e.agg.Aggregate(e.step+1, working)
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}

	e.series.Append(snap)
	e.bubbles = working
	e.step++

	created := afterCreate - before
	burst := afterCreate - afterPop
	merged := afterPop - working.Len()
	span.SetAttributes(
		attribute.Int("sim.population", snap.Count),
		attribute.Int("sim.created", created),
		attribute.Int("sim.burst", burst),
		attribute.Int("sim.merged", merged),
	)
	if e.metrics != nil {
		e.metrics.ObserveStep(time.Since(start), created, burst, merged, snap.Count, snap.MeanDiameter)
	}
	e.log.Debug(ctx, "step committed",
		logging.Int("step", e.step),
		logging.Int("population", snap.Count),
		logging.Int("created", created),
		logging.Int("burst", burst),
		logging.Int("merged", merged))
	return nil
}

// Params exposes the resolved parameter set.
func (e *Engine) Params() *Params { return e.params }

// Series exposes the accumulated time series store.
func (e *Engine) Series() *TimeSeries { return &e.series }

// Step returns the number of fully committed steps.
func (e *Engine) Step() int { return e.step }

// Population returns a copy of the current population, so callers cannot
// violate the engine's exclusive ownership.
func (e *Engine) Population() model.Population { return e.bubbles.Clone() }
