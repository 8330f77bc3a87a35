package core

import (
	"errors"
	"math"
	"testing"

	"github.com/signalsfoundry/bubble-simulator/model"
)

func popOfVolumes(volumes ...float64) model.Population {
	pop := make(model.Population, 0, len(volumes))
	for _, v := range volumes {
		pop = append(pop, model.NewBubble(v, model.Vec2{}, math.Inf(1)))
	}
	return pop
}

func TestRankCountAggregate(t *testing.T) {
	agg, err := NewRankCountAggregator(1)
	if err != nil {
		t.Fatalf("NewRankCountAggregator: %v", err)
	}
	pop := popOfVolumes(1, 1, 2, 3, 1)
	snap, err := agg.Aggregate(4, pop)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if snap.Step != 4 || snap.Count != 5 {
		t.Fatalf("snapshot step/count = %d/%d, want 4/5", snap.Step, snap.Count)
	}
	want := map[int]int{1: 3, 2: 1, 3: 1}
	if len(snap.Ranks) != len(want) {
		t.Fatalf("Ranks = %v, want %v", snap.Ranks, want)
	}
	total := 0
	for k, n := range want {
		if snap.Ranks[k] != n {
			t.Fatalf("Ranks[%d] = %d, want %d", k, snap.Ranks[k], n)
		}
		total += snap.Ranks[k]
	}
	if total != snap.Count {
		t.Fatalf("rank counts sum to %d, want population size %d", total, snap.Count)
	}
}

func TestRankCountToleratesFloatDrift(t *testing.T) {
	agg, err := NewRankCountAggregator(1)
	if err != nil {
		t.Fatalf("NewRankCountAggregator: %v", err)
	}
	// Sum of many unit volumes accumulated through merging.
	v := 0.0
	for i := 0; i < 7; i++ {
		v += 1.0 / 7.0 * 7.0 / 7.0 * 7.0
	}
	snap, err := agg.Aggregate(0, popOfVolumes(v))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if snap.Ranks[7] != 1 {
		t.Fatalf("Ranks = %v, want drifted volume binned at rank 7", snap.Ranks)
	}
}

func TestRankCountRejectsNonIntegerVolume(t *testing.T) {
	agg, err := NewRankCountAggregator(1)
	if err != nil {
		t.Fatalf("NewRankCountAggregator: %v", err)
	}
	_, err = agg.Aggregate(0, popOfVolumes(1.5))
	var aggErr *AggregationError
	if !errors.As(err, &aggErr) {
		t.Fatalf("Aggregate on volume 1.5 returned %T, want *AggregationError", err)
	}
}

func TestRankCountUnitVolume(t *testing.T) {
	agg, err := NewRankCountAggregator(0.5)
	if err != nil {
		t.Fatalf("NewRankCountAggregator: %v", err)
	}
	snap, err := agg.Aggregate(0, popOfVolumes(0.5, 1.0, 1.5))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	for rank, want := range map[int]int{1: 1, 2: 1, 3: 1} {
		if snap.Ranks[rank] != want {
			t.Fatalf("Ranks[%d] = %d, want %d", rank, snap.Ranks[rank], want)
		}
	}

	if _, err := NewRankCountAggregator(0); err == nil {
		t.Fatal("NewRankCountAggregator accepted a zero unit volume")
	}
}

func TestHistogramAggregate(t *testing.T) {
	agg, err := NewHistogramAggregator([]float64{1.0, 1.2, 1.5, 2.0})
	if err != nil {
		t.Fatalf("NewHistogramAggregator: %v", err)
	}
	pop := model.Population{}
	for _, d := range []float64{0.9, 1.0, 1.1, 1.2, 1.7, 2.0, 3.0} {
		pop = append(pop, model.NewBubble(model.VolumeForDiameter(d), model.Vec2{}, math.Inf(1)))
	}
	snap, err := agg.Aggregate(1, pop)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	wantBins := []int{2, 1, 1}
	for i, want := range wantBins {
		if snap.BinCounts[i] != want {
			t.Fatalf("BinCounts[%d] = %d, want %d (bins %v under %d over %d)",
				i, snap.BinCounts[i], want, snap.BinCounts, snap.Underflow, snap.Overflow)
		}
	}
	if snap.Underflow != 1 || snap.Overflow != 2 {
		t.Fatalf("under/over = %d/%d, want 1/2", snap.Underflow, snap.Overflow)
	}
	total := snap.Underflow + snap.Overflow
	for _, n := range snap.BinCounts {
		total += n
	}
	if total != snap.Count {
		t.Fatalf("bin counts sum to %d, want population size %d", total, snap.Count)
	}
}

func TestHistogramRejectsBadEdges(t *testing.T) {
	cases := [][]float64{
		nil,
		{1.0},
		{1.0, 1.0},
		{1.0, 2.0, 1.5},
	}
	for _, edges := range cases {
		var aggErr *AggregationError
		if _, err := NewHistogramAggregator(edges); !errors.As(err, &aggErr) {
			t.Fatalf("NewHistogramAggregator(%v) returned %T, want *AggregationError", edges, err)
		}
	}
}

func TestSnapshotMomentsEmptyPopulation(t *testing.T) {
	agg, err := NewRankCountAggregator(1)
	if err != nil {
		t.Fatalf("NewRankCountAggregator: %v", err)
	}
	snap, err := agg.Aggregate(0, model.Population{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if snap.Count != 0 {
		t.Fatalf("Count = %d, want 0", snap.Count)
	}
	if !math.IsNaN(snap.MeanDiameter) || !math.IsNaN(snap.MeanD2) || !math.IsNaN(snap.MeanD3) {
		t.Fatalf("empty-population moments = %v/%v/%v, want NaN sentinels",
			snap.MeanDiameter, snap.MeanD2, snap.MeanD3)
	}
}

func TestSnapshotMoments(t *testing.T) {
	agg, err := NewRankCountAggregator(1)
	if err != nil {
		t.Fatalf("NewRankCountAggregator: %v", err)
	}
	pop := popOfVolumes(1, 1)
	snap, err := agg.Aggregate(0, pop)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	d := model.UnitDiameter
	if math.Abs(snap.MeanDiameter-d) > 1e-12 {
		t.Fatalf("MeanDiameter = %v, want %v", snap.MeanDiameter, d)
	}
	if math.Abs(snap.MeanD2-d*d) > 1e-12 {
		t.Fatalf("MeanD2 = %v, want %v", snap.MeanD2, d*d)
	}
	if math.Abs(snap.MeanD3-d*d*d) > 1e-12 {
		t.Fatalf("MeanD3 = %v, want %v", snap.MeanD3, d*d*d)
	}
}
