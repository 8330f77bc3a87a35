package core

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"github.com/signalsfoundry/bubble-simulator/model"
)

// NearestFirstCoalescence merges bubbles pairwise, nearest pair first.
//
// Merge order policy (deterministic by construction):
//
//  1. The pair with the smallest meniscus gap (centre distance minus the
//     sum of radii) merges first. Ties break on the lowest index pair.
//  2. After each merge all gaps are re-evaluated against the new bubble, so
//     a merged bubble can keep absorbing neighbours within the same step.
//  3. A pair that fails its merging-probability draw is excluded for the
//     rest of the step; the scan moves to the next nearest pair.
//
// The loop ends when no eligible pair has a gap below the meniscus length.
// Volume is conserved exactly: the merged bubble carries the summed volume,
// the recomputed diameter, the volume-weighted centroid position, and the
// larger age and lifetime of the pair.
type NearestFirstCoalescence struct{}

type bubblePair struct {
	a, b *model.Bubble
}

// Apply merges all eligible pairs per the documented order policy.
func (NearestFirstCoalescence) Apply(pop model.Population, p *Params, rng *rand.Rand) (model.Population, error) {
	maxDist, err := p.Float(ParamMeniscus)
	if err != nil {
		return nil, err
	}
	prob, err := p.FloatOr(ParamMergeProb, 1)
	if err != nil {
		return nil, err
	}
	if prob < 0 || prob > 1 {
		return nil, &ConfigurationError{Key: ParamMergeProb, Reason: fmt.Sprintf("must be in [0, 1], got %v", prob)}
	}
	if maxDist <= 0 || prob == 0 {
		return pop, nil
	}

	rejected := make(map[bubblePair]struct{})
	for pop.Len() >= 2 {
		bi, bj := -1, -1
		best := math.Inf(1)
		for i := 0; i < pop.Len(); i++ {
			for j := i + 1; j < pop.Len(); j++ {
				if _, skip := rejected[bubblePair{pop[i], pop[j]}]; skip {
					continue
				}
				gap := pop[i].Position.DistanceTo(pop[j].Position) - (pop[i].Diameter+pop[j].Diameter)/2
				if gap < best {
					best = gap
					bi, bj = i, j
				}
			}
		}
		if bi < 0 || best >= maxDist {
			break
		}
		if prob < 1 && rng.Float64() >= prob {
			rejected[bubblePair{pop[bi], pop[bj]}] = struct{}{}
			continue
		}
		merged, err := mergePair(pop[bi], pop[bj])
		if err != nil {
			return nil, err
		}
		pop = append(pop[:bj], pop[bj+1:]...)
		pop = append(pop[:bi], pop[bi+1:]...)
		pop = append(pop, merged)
	}
	return pop, nil
}

// mergePair coalesces two bubbles into one, conserving total volume.
func mergePair(a, b *model.Bubble) (*model.Bubble, error) {
	if a.Volume <= 0 || b.Volume <= 0 {
		return nil, &DomainError{Op: "merge", Reason: fmt.Sprintf("non-positive volume in pair (%v, %v)", a.Volume, b.Volume)}
	}
	total := a.Volume + b.Volume
	centroid := a.Position.Scale(a.Volume / total).Add(b.Position.Scale(b.Volume / total))
	merged := model.NewBubble(total, centroid, math.Max(a.Lifetime, b.Lifetime))
	merged.Age = a.Age
	if b.Age > merged.Age {
		merged.Age = b.Age
	}
	return merged, nil
}
