package core

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/signalsfoundry/bubble-simulator/model"
)

func bubbleWithAge(age int, lifetime float64) *model.Bubble {
	b := model.NewBubble(1, model.Vec2{}, lifetime)
	b.Age = age
	return b
}

func TestThresholdBurstingRemovesExpired(t *testing.T) {
	pop := model.Population{
		bubbleWithAge(0, 3),
		bubbleWithAge(2, 3), // ages to 3 this step, bursts now
		bubbleWithAge(3, 3),
		bubbleWithAge(5, 3),
		bubbleWithAge(1, math.Inf(1)),
	}
	out, err := ThresholdBursting{}.Apply(pop, nil, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("survivors = %d, want 2", out.Len())
	}
	// After the transport stage ages survivors, none may sit at or past
	// its lifetime.
	for i, b := range out {
		if float64(b.Age)+1 >= b.Lifetime {
			t.Fatalf("survivor %d at age %d would outlive its lifetime %v", i, b.Age, b.Lifetime)
		}
	}
	// Relative order of survivors is preserved.
	if out[0].Age != 0 || out[1].Age != 1 {
		t.Fatalf("survivor ages = %d,%d; want 0,1", out[0].Age, out[1].Age)
	}
}

func TestThresholdBurstingNeverRecordsExpiredAge(t *testing.T) {
	// A lifetime-3 bubble at age 2 must not survive into the transport
	// stage, where it would be aged to 3 and recorded at age == lifetime.
	pop := model.Population{bubbleWithAge(2, 3)}
	out, err := ThresholdBursting{}.Apply(pop, nil, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("survivors = %d, want the age-2 lifetime-3 bubble removed", out.Len())
	}
}

func TestThresholdBurstingEmptyPopulation(t *testing.T) {
	out, err := ThresholdBursting{}.Apply(model.Population{}, nil, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("survivors = %d, want 0", out.Len())
	}
}

func TestRandomBurstingRemovesAtMostDrawn(t *testing.T) {
	p := testParams(map[string]any{"rate_pop_avg": 3.0, "rate_pop_std": 0.0})
	rng := rand.New(rand.NewSource(2))

	pop := make(model.Population, 0, 10)
	for i := 0; i < 10; i++ {
		pop = append(pop, bubbleWithAge(0, math.Inf(1)))
	}
	out, err := RandomBursting{}.Apply(pop, p, rng)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// Indices are drawn with replacement, so between 1 and 3 burst.
	if removed := 10 - out.Len(); removed < 1 || removed > 3 {
		t.Fatalf("removed %d bubbles, want between 1 and 3", removed)
	}
}

func TestRandomBurstingDrainsSmallPopulation(t *testing.T) {
	p := testParams(map[string]any{"rate_pop_avg": 100.0, "rate_pop_std": 0.0})
	rng := rand.New(rand.NewSource(2))

	pop := model.Population{bubbleWithAge(0, math.Inf(1)), bubbleWithAge(0, math.Inf(1))}
	out, err := RandomBursting{}.Apply(pop, p, rng)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// The clamped draw removes 1 or 2 of the 2 bubbles.
	if out.Len() > 1 {
		t.Fatalf("survivors = %d after draining burst, want at most 1", out.Len())
	}
}
