package core

import (
	"fmt"
	"math"
	"sort"

	"github.com/signalsfoundry/bubble-simulator/model"
)

// Snapshot is the fixed-shape statistical reduction of one step's
// population. Exactly one of Ranks or BinCounts is populated, depending on
// the aggregation strategy chosen at construction. Records are never mutated
// after being appended to the time series.
type Snapshot struct {
	// Step is the index of the completed step (0 is the initial state).
	Step int
	// Count is the total population size.
	Count int
	// MeanDiameter is the population-average diameter; NaN for an empty
	// population (defined sentinel, not an error).
	MeanDiameter float64
	// MeanD2 and MeanD3 are the second and third diameter moments, the
	// coverage- and volume-related per-step scalars. NaN when empty.
	MeanD2 float64
	MeanD3 float64

	// Ranks maps integer volume rank to bubble count (rank-count strategy).
	// Sparse: absent ranks have an implicit count of zero.
	Ranks map[int]int

	// BinCounts holds per-bin counts over the pre-declared diameter edges
	// (histogram strategy); bin i covers [edge_i, edge_i+1). Bubbles outside
	// the outermost edges land in Underflow/Overflow, never dropped.
	BinCounts []int
	Underflow int
	Overflow  int
}

// Aggregator reduces a population to a fixed-shape snapshot. The strategy
// is selected once at engine construction and fixed for the simulation's
// lifetime.
type Aggregator interface {
	Aggregate(step int, pop model.Population) (Snapshot, error)
}

// RankCountAggregator counts bubbles per integer volume rank: rank k holds
// the bubbles of volume k times the unit volume. Volumes that are not
// integer multiples of the unit are an AggregationError (strategy mismatch).
type RankCountAggregator struct {
	unit float64
}

// rankTolerance bounds the relative deviation from an exact integer rank
// that float arithmetic on merged volumes may accumulate.
const rankTolerance = 1e-9

// NewRankCountAggregator builds the strategy for the given unit volume.
func NewRankCountAggregator(unitVolume float64) (*RankCountAggregator, error) {
	if unitVolume <= 0 {
		return nil, &AggregationError{Reason: fmt.Sprintf("unit volume must be positive, got %v", unitVolume)}
	}
	return &RankCountAggregator{unit: unitVolume}, nil
}

// Aggregate reduces pop to sparse rank counts.
func (a *RankCountAggregator) Aggregate(step int, pop model.Population) (Snapshot, error) {
	snap := newSnapshot(step, pop)
	snap.Ranks = make(map[int]int, pop.Len())
	for _, b := range pop {
		r := b.Volume / a.unit
		k := math.Round(r)
		if k < 1 || math.Abs(r-k) > rankTolerance*math.Max(1, r) {
			return Snapshot{}, &AggregationError{
				Reason: fmt.Sprintf("volume %v is not a positive integer multiple of unit %v", b.Volume, a.unit),
			}
		}
		snap.Ranks[int(k)]++
	}
	return snap, nil
}

// HistogramAggregator counts bubbles per diameter bin over a fixed sequence
// of strictly increasing edges declared at construction.
type HistogramAggregator struct {
	edges []float64
}

// NewHistogramAggregator validates the edges eagerly: at least two edges,
// strictly increasing, otherwise AggregationError.
func NewHistogramAggregator(edges []float64) (*HistogramAggregator, error) {
	if len(edges) < 2 {
		return nil, &AggregationError{Reason: fmt.Sprintf("need at least 2 bin edges, got %d", len(edges))}
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return nil, &AggregationError{
				Reason: fmt.Sprintf("bin edges must be strictly increasing, edge[%d]=%v <= edge[%d]=%v", i, edges[i], i-1, edges[i-1]),
			}
		}
	}
	return &HistogramAggregator{edges: append([]float64(nil), edges...)}, nil
}

// Aggregate reduces pop to per-bin diameter counts with explicit
// underflow/overflow buckets.
func (a *HistogramAggregator) Aggregate(step int, pop model.Population) (Snapshot, error) {
	snap := newSnapshot(step, pop)
	snap.BinCounts = make([]int, len(a.edges)-1)
	for _, b := range pop {
		d := b.Diameter
		switch {
		case d < a.edges[0]:
			snap.Underflow++
		case d >= a.edges[len(a.edges)-1]:
			snap.Overflow++
		default:
			// First edge index with edges[i] >= d; d lands in bin i when it
			// sits exactly on an edge, bin i-1 otherwise.
			i := sort.SearchFloat64s(a.edges, d)
			if a.edges[i] > d {
				i--
			}
			snap.BinCounts[i]++
		}
	}
	return snap, nil
}

func newSnapshot(step int, pop model.Population) Snapshot {
	snap := Snapshot{
		Step:         step,
		Count:        pop.Len(),
		MeanDiameter: math.NaN(),
		MeanD2:       math.NaN(),
		MeanD3:       math.NaN(),
	}
	if pop.Len() == 0 {
		return snap
	}
	var d1, d2, d3 float64
	for _, b := range pop {
		d := b.Diameter
		d1 += d
		d2 += d * d
		d3 += d * d * d
	}
	n := float64(pop.Len())
	snap.MeanDiameter = d1 / n
	snap.MeanD2 = d2 / n
	snap.MeanD3 = d3 / n
	return snap
}
