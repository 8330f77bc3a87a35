package core

import (
	"golang.org/x/exp/rand"

	"github.com/signalsfoundry/bubble-simulator/model"
)

// newBubbles realizes n fresh bubbles: unit volume (or the bubble-init
// override), uniform random position in the domain, lifetime drawn from the
// configured law. Draw order per bubble is x, y, lifetime.
func newBubbles(n int, pop model.Population, p *Params, rng *rand.Rand) (model.Population, error) {
	if n == 0 {
		return pop, nil
	}
	domain, err := p.Domain()
	if err != nil {
		return nil, err
	}
	life, err := lifetimeSampler(p, rng)
	if err != nil {
		return nil, err
	}
	volume := p.BubbleInitFloat("volume", 1.0)
	if volume <= 0 {
		return nil, &DomainError{Op: "create", Reason: "non-positive initial volume"}
	}
	for i := 0; i < n; i++ {
		pos := model.Vec2{
			X: rng.Float64() * domain.Width,
			Y: rng.Float64() * domain.Width,
		}
		lt, err := life()
		if err != nil {
			return nil, err
		}
		pop = append(pop, model.NewBubble(volume, pos, lt))
	}
	return pop, nil
}

// PoissonProduction models stochastic arrivals: each step a Poisson count of
// new bubbles with mean rate_prod_avg (interpreted as arrivals per step over
// the whole domain, i.e. areal rate times area times the unit step). Existing
// bubbles are never touched.
type PoissonProduction struct{}

// Apply appends the realized arrivals to the population.
func (PoissonProduction) Apply(pop model.Population, p *Params, rng *rand.Rand) (model.Population, error) {
	mean, err := p.Float(ParamRateProdAvg)
	if err != nil {
		return nil, err
	}
	n, err := samplePoisson(rng, mean)
	if err != nil {
		return nil, err
	}
	return newBubbles(n, pop, p, rng)
}

// NormalRateProduction appends |round(N(rate_prod_avg, rate_prod_std))| new
// bubbles per step, the production law of the automaton variants.
type NormalRateProduction struct{}

// Apply appends the realized arrivals to the population.
func (NormalRateProduction) Apply(pop model.Population, p *Params, rng *rand.Rand) (model.Population, error) {
	avg, err := p.Float(ParamRateProdAvg)
	if err != nil {
		return nil, err
	}
	std, err := p.Float(ParamRateProdStd)
	if err != nil {
		return nil, err
	}
	n, err := sampleNormalCount(rng, avg, std)
	if err != nil {
		return nil, err
	}
	return newBubbles(n, pop, p, rng)
}
