package core

import (
	"fmt"
	"sort"
)

// Variant is a named preset wiring of the four pipeline slots plus the
// class-default parameter layer it contributes to resolution. Variants are
// example configurations of the engine; any caller may assemble its own
// stage set directly instead.
type Variant struct {
	Name          string
	Description   string
	Deprecated    bool
	ClassDefaults map[string]any
	Create        Stage
	Pop           Stage
	Move          Stage
	Merge         Stage
}

// LookupVariant returns one of the built-in variants by name.
func LookupVariant(name string) (Variant, error) {
	for _, v := range BuiltinVariants() {
		if v.Name == name {
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("unknown simulation variant %q (known: %v)", name, variantNames())
}

// BuiltinVariants lists the shipped presets, the descendants of the four
// historical automata.
func BuiltinVariants() []Variant {
	return []Variant{
		{
			Name:        "uniform-random",
			Description: "normal-rate production, memoryless random bursting, uniform rescatter",
			Deprecated:  true,
			ClassDefaults: map[string]any{
				ParamRatePopAvg: 10.0,
				ParamRatePopStd: 2.0,
			},
			Create: NormalRateProduction{},
			Pop:    RandomBursting{},
			Move:   UniformRedistribution{},
			Merge:  NearestFirstCoalescence{},
		},
		{
			Name:        "weibull-lifetime",
			Description: "normal-rate production, Weibull-drawn lifetimes, age-threshold bursting",
			ClassDefaults: map[string]any{
				ParamLifetimeDist: "weibull",
				ParamMeanLifetime: 1.0,
				ParamMergeProb:    1.0,
			},
			Create: NormalRateProduction{},
			Pop:    ThresholdBursting{},
			Move:   UniformRedistribution{},
			Merge:  NearestFirstCoalescence{},
		},
		{
			Name:        "exponential-lifetime",
			Description: "normal-rate production, exponentially drawn lifetimes, age-threshold bursting",
			ClassDefaults: map[string]any{
				ParamLifetimeDist: "exponential",
				ParamMeanLifetime: 1.0,
				ParamMergeProb:    1.0,
			},
			Create: NormalRateProduction{},
			Pop:    ThresholdBursting{},
			Move:   UniformRedistribution{},
			Merge:  NearestFirstCoalescence{},
		},
		{
			Name:        "fixed-lifetime",
			Description: "normal-rate production, fixed lifetime, age-threshold bursting",
			ClassDefaults: map[string]any{
				ParamLifetimeDist: "fixed",
				ParamLifetime:     1.0,
				ParamMergeProb:    1.0,
			},
			Create: NormalRateProduction{},
			Pop:    ThresholdBursting{},
			Move:   UniformRedistribution{},
			Merge:  NearestFirstCoalescence{},
		},
		{
			Name:        "poisson-diffusive",
			Description: "Poisson production, fixed lifetime, Gaussian random walk transport",
			ClassDefaults: map[string]any{
				ParamLifetimeDist: "fixed",
				ParamLifetime:     1.0,
				ParamMergeProb:    1.0,
				ParamDiffusionStd: 1.0,
			},
			Create: PoissonProduction{},
			Pop:    ThresholdBursting{},
			Move:   GaussianWalk{},
			Merge:  NearestFirstCoalescence{},
		},
	}
}

func variantNames() []string {
	variants := BuiltinVariants()
	names := make([]string, len(variants))
	for i, v := range variants {
		names[i] = v.Name
	}
	sort.Strings(names)
	return names
}
