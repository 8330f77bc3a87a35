// Package config loads declarative simulation scenarios from YAML and
// assembles engines from them.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/bubble-simulator/core"
	"github.com/signalsfoundry/bubble-simulator/internal/logging"
)

// Scenario is one declarative run description: which variant to instantiate,
// the instance parameter overrides, the aggregation strategy, and the seed.
type Scenario struct {
	// Variant names one of the built-in stage presets.
	Variant string `yaml:"variant"`
	// Steps overrides the resolved "steps" parameter when positive.
	Steps int `yaml:"steps"`
	// Seed initializes the engine's random source.
	Seed uint64 `yaml:"seed"`
	// Params is the instance override layer of parameter resolution.
	Params map[string]any `yaml:"params"`
	// BubbleInit edits the bubble-initialization sub-map before the run.
	BubbleInit map[string]any `yaml:"bubble_init"`
	// Aggregator selects and configures the snapshot strategy.
	Aggregator AggregatorConfig `yaml:"aggregator"`
}

// AggregatorConfig selects the snapshot reduction strategy.
type AggregatorConfig struct {
	// Strategy is "rank-count" (default) or "histogram".
	Strategy string `yaml:"strategy"`
	// UnitVolume is the rank-count unit; defaults to 1.
	UnitVolume float64 `yaml:"unit_volume"`
	// Edges are the histogram's strictly increasing diameter bin edges.
	Edges []float64 `yaml:"edges"`
}

// Load reads a scenario from a YAML file.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a scenario from YAML. Unknown fields are rejected so typos in
// run descriptions fail loudly instead of silently falling back to defaults.
func Parse(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if s.Variant == "" {
		return nil, fmt.Errorf("scenario: variant is required")
	}
	return &s, nil
}

// RunSteps returns the effective run length: the scenario override when
// set, otherwise the resolved "steps" parameter.
func (s *Scenario) RunSteps(params *core.Params) (int, error) {
	if s.Steps > 0 {
		return s.Steps, nil
	}
	return params.Int(core.ParamSteps)
}

// Build resolves parameters over the variant's class defaults and assembles
// a ready-to-run engine.
func (s *Scenario) Build(log logging.Logger, metrics core.MetricsRecorder) (*core.Engine, *core.Params, error) {
	variant, err := core.LookupVariant(s.Variant)
	if err != nil {
		return nil, nil, err
	}

	params := core.Resolve(core.ModuleDefaults(), variant.ClassDefaults, s.Params)
	for k, v := range s.BubbleInit {
		params.SetBubbleInit(k, v)
	}

	agg, err := s.buildAggregator()
	if err != nil {
		return nil, nil, err
	}

	engine, err := core.NewEngine(core.EngineConfig{
		Params:     params,
		Create:     variant.Create,
		Pop:        variant.Pop,
		Move:       variant.Move,
		Merge:      variant.Merge,
		Aggregator: agg,
		Seed:       s.Seed,
		Logger:     log,
		Metrics:    metrics,
	})
	if err != nil {
		return nil, nil, err
	}
	return engine, params, nil
}

func (s *Scenario) buildAggregator() (core.Aggregator, error) {
	switch s.Aggregator.Strategy {
	case "", "rank-count":
		unit := s.Aggregator.UnitVolume
		if unit == 0 {
			unit = 1
		}
		return core.NewRankCountAggregator(unit)
	case "histogram":
		return core.NewHistogramAggregator(s.Aggregator.Edges)
	default:
		return nil, fmt.Errorf("unknown aggregator strategy %q", s.Aggregator.Strategy)
	}
}
