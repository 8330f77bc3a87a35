package core

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// weibullShape is the fixed shape parameter of the Weibull lifetime
// distribution, inherited from the surface-bubble literature.
const weibullShape = 4.0 / 3.0

// samplePoisson draws a Poisson-distributed arrival count with the given
// mean. A zero mean yields zero arrivals without consuming randomness.
func samplePoisson(rng *rand.Rand, mean float64) (int, error) {
	if mean < 0 {
		return 0, &DomainError{Op: "poisson sample", Reason: fmt.Sprintf("negative mean %v", mean)}
	}
	if mean == 0 {
		return 0, nil
	}
	n := distuv.Poisson{Lambda: mean, Src: rng}.Rand()
	if math.IsNaN(n) || n < 0 {
		return 0, &DomainError{Op: "poisson sample", Reason: fmt.Sprintf("invalid draw %v", n)}
	}
	return int(n), nil
}

// sampleNormalCount draws |round(N(avg, std))|, the arrival and removal
// law of the automaton variants.
func sampleNormalCount(rng *rand.Rand, avg, std float64) (int, error) {
	if std < 0 {
		return 0, &DomainError{Op: "normal sample", Reason: fmt.Sprintf("negative std %v", std)}
	}
	if std == 0 {
		return int(math.Abs(math.Round(avg))), nil
	}
	n := distuv.Normal{Mu: avg, Sigma: std, Src: rng}.Rand()
	if math.IsNaN(n) {
		return 0, &DomainError{Op: "normal sample", Reason: "NaN draw"}
	}
	return int(math.Abs(math.Round(n))), nil
}

// lifetimeSampler builds the per-bubble lifetime draw from the resolved
// parameters. The lifetime_dist parameter selects the law:
//
//   - "none" (or absent): bubbles never burst by age (+Inf lifetime)
//   - "fixed":            the lifetime parameter, identical for all bubbles
//   - "weibull":          Weibull(k=4/3, scale=mean_lifetime)
//   - "exponential":      Exp(rate=1/mean_lifetime)
//
// Parameter errors surface at first use, per the lazy-validation contract.
func lifetimeSampler(p *Params, rng *rand.Rand) (func() (float64, error), error) {
	if !p.Has(ParamLifetimeDist) {
		return func() (float64, error) { return math.Inf(1), nil }, nil
	}
	kind, err := p.String(ParamLifetimeDist)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "none":
		return func() (float64, error) { return math.Inf(1), nil }, nil
	case "fixed":
		life, err := p.Float(ParamLifetime)
		if err != nil {
			return nil, err
		}
		if life <= 0 {
			return nil, &ConfigurationError{Key: ParamLifetime, Reason: fmt.Sprintf("must be positive, got %v", life)}
		}
		return func() (float64, error) { return life, nil }, nil
	case "weibull":
		scale, err := p.Float(ParamMeanLifetime)
		if err != nil {
			return nil, err
		}
		if scale <= 0 {
			return nil, &ConfigurationError{Key: ParamMeanLifetime, Reason: fmt.Sprintf("must be positive, got %v", scale)}
		}
		dist := distuv.Weibull{K: weibullShape, Lambda: scale, Src: rng}
		return func() (float64, error) { return checkLifetime(dist.Rand()) }, nil
	case "exponential":
		scale, err := p.Float(ParamMeanLifetime)
		if err != nil {
			return nil, err
		}
		if scale <= 0 {
			return nil, &ConfigurationError{Key: ParamMeanLifetime, Reason: fmt.Sprintf("must be positive, got %v", scale)}
		}
		dist := distuv.Exponential{Rate: 1 / scale, Src: rng}
		return func() (float64, error) { return checkLifetime(dist.Rand()) }, nil
	default:
		return nil, &ConfigurationError{Key: ParamLifetimeDist, Reason: fmt.Sprintf("unknown distribution %q", kind)}
	}
}

func checkLifetime(v float64) (float64, error) {
	if math.IsNaN(v) || v < 0 {
		return 0, &DomainError{Op: "lifetime sample", Reason: fmt.Sprintf("invalid draw %v", v)}
	}
	return v, nil
}
