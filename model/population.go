package model

import "math"

// Population is the ordered collection of live bubbles at a given step.
// Order carries no semantic meaning and duplicates of identical attribute
// values are permitted.
//
// Ownership contract: the advancing engine owns the population during a
// step. Each stage receives it as input, may mutate it in place or build a
// replacement, and returns the authoritative population for the next stage.
// Callers must not hold on to a population handed to a stage.
type Population []*Bubble

// Len returns the number of live bubbles.
func (p Population) Len() int { return len(p) }

// TotalVolume returns the summed volume of all bubbles.
func (p Population) TotalVolume() float64 {
	total := 0.0
	for _, b := range p {
		total += b.Volume
	}
	return total
}

// MeanDiameter returns the population-average diameter, or NaN for an empty
// population.
func (p Population) MeanDiameter() float64 {
	if len(p) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, b := range p {
		sum += b.Diameter
	}
	return sum / float64(len(p))
}

// Clone returns a deep copy: new slice, new bubbles.
func (p Population) Clone() Population {
	out := make(Population, len(p))
	for i, b := range p {
		out[i] = b.Clone()
	}
	return out
}

// Filter returns the bubbles for which keep is true, preserving order. The
// receiver's backing array is reused; the input must be treated as consumed.
func (p Population) Filter(keep func(*Bubble) bool) Population {
	out := p[:0]
	for _, b := range p {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}
