// Package core implements the advancing engine of the bubble simulator: the
// fixed create -> pop -> move -> merge step pipeline, parameter resolution,
// population aggregation, and the per-run time series store.
package core

import (
	"golang.org/x/exp/rand"

	"github.com/signalsfoundry/bubble-simulator/model"
)

// Stage is one replaceable transform of the per-step pipeline.
//
// A stage takes ownership of the input population and returns the
// authoritative population for the next stage: it may mutate in place or
// build a replacement, but callers must not reuse the input afterwards. The
// rng is the engine's single seeded source; drawing from it in a fixed order
// is what makes runs reproducible.
type Stage interface {
	Apply(pop model.Population, p *Params, rng *rand.Rand) (model.Population, error)
}

// StageFunc adapts a plain function to the Stage interface.
type StageFunc func(pop model.Population, p *Params, rng *rand.Rand) (model.Population, error)

// Apply calls f.
func (f StageFunc) Apply(pop model.Population, p *Params, rng *rand.Rand) (model.Population, error) {
	return f(pop, p, rng)
}

// NoopStage passes the population through unchanged. Used to disable a
// pipeline slot (e.g. no bursting, no production) without reordering.
type NoopStage struct{}

// Apply returns pop unchanged.
func (NoopStage) Apply(pop model.Population, _ *Params, _ *rand.Rand) (model.Population, error) {
	return pop, nil
}
