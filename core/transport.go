package core

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/signalsfoundry/bubble-simulator/model"
)

// The transport stage owns the once-per-step age increment: every bubble
// that survived bursting ages by exactly one before it moves. Keeping the
// increment here rather than as a hidden engine side effect makes the
// age a stage-visible, testable mutation.

// UniformRedistribution rescatters every surviving bubble to an independent
// uniform position in the domain each step, a Markov-style transport
// scheme that disregards bubble history.
type UniformRedistribution struct{}

// Apply ages every bubble by one and assigns it a fresh uniform position.
func (UniformRedistribution) Apply(pop model.Population, p *Params, rng *rand.Rand) (model.Population, error) {
	domain, err := p.Domain()
	if err != nil {
		return nil, err
	}
	for _, b := range pop {
		b.Age++
		b.Position = model.Vec2{
			X: rng.Float64() * domain.Width,
			Y: rng.Float64() * domain.Width,
		}
	}
	return pop, nil
}

// GaussianWalk displaces every surviving bubble by an independent Gaussian
// step per axis (std = diffusion_std) and applies the domain boundary
// policy, so positions never leave the domain after this stage.
type GaussianWalk struct{}

// Apply ages every bubble by one, then moves and clamps it.
func (GaussianWalk) Apply(pop model.Population, p *Params, rng *rand.Rand) (model.Population, error) {
	domain, err := p.Domain()
	if err != nil {
		return nil, err
	}
	std, err := p.Float(ParamDiffusionStd)
	if err != nil {
		return nil, err
	}
	if std < 0 {
		return nil, &ConfigurationError{Key: ParamDiffusionStd, Reason: fmt.Sprintf("must be non-negative, got %v", std)}
	}
	dist := distuv.Normal{Mu: 0, Sigma: std, Src: rng}
	for _, b := range pop {
		b.Age++
		if std > 0 {
			b.Position = domain.Clamp(b.Position.Add(model.Vec2{X: dist.Rand(), Y: dist.Rand()}))
		}
		if !domain.Contains(b.Position) {
			return nil, &DomainError{Op: "move", Reason: fmt.Sprintf("position %v outside domain after transport", b.Position)}
		}
	}
	return pop, nil
}
