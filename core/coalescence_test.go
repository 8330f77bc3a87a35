package core

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/signalsfoundry/bubble-simulator/model"
)

func TestCoalescenceMergesTouchingPair(t *testing.T) {
	p := testParams(map[string]any{"meniscus": 1.0})
	rng := rand.New(rand.NewSource(1))

	a := model.NewBubble(1, model.Vec2{X: 1, Y: 1}, 5)
	a.Age = 2
	b := model.NewBubble(1, model.Vec2{X: 1.5, Y: 1}, 8)
	b.Age = 4

	out, err := NearestFirstCoalescence{}.Apply(model.Population{a, b}, p, rng)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("population = %d, want merged single bubble", out.Len())
	}
	m := out[0]
	if m.Volume != 2 {
		t.Fatalf("merged volume = %v, want conserved 2", m.Volume)
	}
	wantD := model.DiameterForVolume(2)
	if math.Abs(m.Diameter-wantD) > 1e-12 {
		t.Fatalf("merged diameter = %v, want %v", m.Diameter, wantD)
	}
	// Equal volumes put the centroid at the midpoint.
	if math.Abs(m.Position.X-1.25) > 1e-12 || math.Abs(m.Position.Y-1) > 1e-12 {
		t.Fatalf("merged position = %v, want (1.25, 1)", m.Position)
	}
	if m.Age != 4 || m.Lifetime != 8 {
		t.Fatalf("merged age/lifetime = %d/%v, want elder pair values 4/8", m.Age, m.Lifetime)
	}
}

func TestCoalescenceVolumeWeightedCentroid(t *testing.T) {
	p := testParams(map[string]any{"meniscus": 10.0})
	rng := rand.New(rand.NewSource(1))

	a := model.NewBubble(3, model.Vec2{X: 0, Y: 0}, math.Inf(1))
	b := model.NewBubble(1, model.Vec2{X: 4, Y: 0}, math.Inf(1))
	out, err := NearestFirstCoalescence{}.Apply(model.Population{a, b}, p, rng)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("population = %d, want 1", out.Len())
	}
	if math.Abs(out[0].Position.X-1.0) > 1e-12 {
		t.Fatalf("centroid X = %v, want volume-weighted 1.0", out[0].Position.X)
	}
}

func TestCoalescenceLeavesDistantPairs(t *testing.T) {
	p := testParams(map[string]any{"meniscus": 1.0})
	rng := rand.New(rand.NewSource(1))

	pop := model.Population{
		model.NewBubble(1, model.Vec2{X: 0, Y: 0}, math.Inf(1)),
		model.NewBubble(1, model.Vec2{X: 10, Y: 10}, math.Inf(1)),
	}
	out, err := NearestFirstCoalescence{}.Apply(pop, p, rng)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("population = %d, want untouched 2", out.Len())
	}
}

func TestCoalescenceChainsThroughMergedBubble(t *testing.T) {
	p := testParams(map[string]any{"meniscus": 1.0})
	rng := rand.New(rand.NewSource(1))

	// Three collinear unit bubbles close enough that the bubble merged from
	// the nearest pair comes within reach of the third.
	pop := model.Population{
		model.NewBubble(1, model.Vec2{X: 0, Y: 0}, math.Inf(1)),
		model.NewBubble(1, model.Vec2{X: 1.2, Y: 0}, math.Inf(1)),
		model.NewBubble(1, model.Vec2{X: 2.4, Y: 0}, math.Inf(1)),
	}
	out, err := NearestFirstCoalescence{}.Apply(pop, p, rng)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("population = %d, want full chain collapse to 1", out.Len())
	}
	if math.Abs(out[0].Volume-3) > 1e-12 {
		t.Fatalf("total volume = %v, want conserved 3", out[0].Volume)
	}
}

func TestCoalescenceConservesTotalVolume(t *testing.T) {
	p := testParams(map[string]any{"meniscus": 2.0})
	rng := rand.New(rand.NewSource(21))

	pop := make(model.Population, 0, 30)
	for i := 0; i < 30; i++ {
		pos := model.Vec2{X: rng.Float64() * 10, Y: rng.Float64() * 10}
		pop = append(pop, model.NewBubble(1, pos, math.Inf(1)))
	}
	before := pop.TotalVolume()
	out, err := NearestFirstCoalescence{}.Apply(pop, p, rng)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if after := out.TotalVolume(); math.Abs(after-before) > 1e-9 {
		t.Fatalf("total volume %v -> %v, want conserved", before, after)
	}
	if out.Len() >= 30 {
		t.Fatalf("population = %d, want merges in a dense field", out.Len())
	}
}

func TestCoalescenceZeroProbabilityIsNoop(t *testing.T) {
	p := testParams(map[string]any{"meniscus": 5.0, "merging_probability": 0.0})
	rng := rand.New(rand.NewSource(1))

	pop := model.Population{
		model.NewBubble(1, model.Vec2{X: 0, Y: 0}, math.Inf(1)),
		model.NewBubble(1, model.Vec2{X: 0.1, Y: 0}, math.Inf(1)),
	}
	out, err := NearestFirstCoalescence{}.Apply(pop, p, rng)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("population = %d, want no merges at probability 0", out.Len())
	}
}

func TestCoalescenceRejectsBadProbability(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, prob := range []float64{-0.1, 1.1} {
		p := testParams(map[string]any{"merging_probability": prob})
		if _, err := (NearestFirstCoalescence{}).Apply(nil, p, rng); err == nil {
			t.Fatalf("Apply accepted merging_probability %v", prob)
		}
	}
}

func TestCoalescenceDeterministicOrder(t *testing.T) {
	p := testParams(map[string]any{"meniscus": 1.0})

	build := func() model.Population {
		return model.Population{
			model.NewBubble(1, model.Vec2{X: 0, Y: 0}, math.Inf(1)),
			model.NewBubble(2, model.Vec2{X: 1.3, Y: 0}, math.Inf(1)),
			model.NewBubble(1, model.Vec2{X: 5, Y: 5}, math.Inf(1)),
			model.NewBubble(1, model.Vec2{X: 5.6, Y: 5}, math.Inf(1)),
		}
	}
	first, err := NearestFirstCoalescence{}.Apply(build(), p, rand.New(rand.NewSource(4)))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	second, err := NearestFirstCoalescence{}.Apply(build(), p, rand.New(rand.NewSource(4)))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if first.Len() != second.Len() {
		t.Fatalf("runs diverged: %d vs %d bubbles", first.Len(), second.Len())
	}
	for i := range first {
		if *first[i] != *second[i] {
			t.Fatalf("bubble %d diverged: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestMergePairRejectsNonPositiveVolume(t *testing.T) {
	a := model.NewBubble(1, model.Vec2{}, math.Inf(1))
	b := model.NewBubble(1, model.Vec2{}, math.Inf(1))
	b.Volume = 0
	if _, err := mergePair(a, b); err == nil {
		t.Fatal("mergePair accepted a zero-volume bubble")
	}
}
