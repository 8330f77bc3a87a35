package core

import (
	"sort"

	"golang.org/x/exp/rand"

	"github.com/signalsfoundry/bubble-simulator/model"
)

// ThresholdBursting removes every bubble whose age reaches its lifetime
// during the current step. The age increment itself happens in the transport
// stage that follows, so the comparison accounts for it: a bubble with
// lifetime L exists through the step its age reaches L-1 and is removed on
// the next, never appearing in a snapshot at or past its lifetime.
//
// The comparison is deterministic; the stochastic part of bursting, if any,
// lives entirely in the lifetime drawn at creation. This covers both the
// fixed-threshold and the distribution-based bursting laws, which differ
// only in how the production stage assigns lifetimes.
type ThresholdBursting struct{}

// Apply filters out bubbles whose age this step reaches their lifetime.
func (ThresholdBursting) Apply(pop model.Population, _ *Params, _ *rand.Rand) (model.Population, error) {
	return pop.Filter(func(b *model.Bubble) bool {
		return float64(b.Age)+1 < b.Lifetime
	}), nil
}

// RandomBursting removes |round(N(rate_pop_avg, rate_pop_std))| bubbles per
// step, chosen uniformly at random and independent of bubble state.
//
// Deprecated: memoryless per-step removal was found to over-burst compared
// with age-indexed lifetimes; prefer ThresholdBursting. Kept for
// reproducing legacy runs of the first automaton.
type RandomBursting struct{}

// Apply removes the realized number of uniformly chosen bubbles. Indices are
// drawn with replacement and deduplicated, so fewer than the drawn count may
// actually burst, matching the legacy behaviour.
func (RandomBursting) Apply(pop model.Population, p *Params, rng *rand.Rand) (model.Population, error) {
	avg, err := p.Float(ParamRatePopAvg)
	if err != nil {
		return nil, err
	}
	std, err := p.Float(ParamRatePopStd)
	if err != nil {
		return nil, err
	}
	n, err := sampleNormalCount(rng, avg, std)
	if err != nil {
		return nil, err
	}
	if n > pop.Len() {
		n = pop.Len()
	}
	if n == 0 || pop.Len() == 0 {
		return pop, nil
	}

	picked := make(map[int]struct{}, n)
	for i := 0; i < n; i++ {
		picked[rng.Intn(pop.Len())] = struct{}{}
	}
	indices := make([]int, 0, len(picked))
	for k := range picked {
		indices = append(indices, k)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(indices)))
	for _, k := range indices {
		pop = append(pop[:k], pop[k+1:]...)
	}
	return pop, nil
}
