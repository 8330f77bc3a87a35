package core

import (
	"fmt"
	"sort"

	"github.com/signalsfoundry/bubble-simulator/model"
)

// Canonical parameter names. Stage implementations read these lazily at
// first use; a missing or mistyped key surfaces as a ConfigurationError.
const (
	ParamSteps        = "steps"         // default run length
	ParamWidth        = "width"         // domain edge length
	ParamBoundary     = "boundary"      // "reflecting" | "periodic"
	ParamNBubbles     = "n_bubbles"     // initial population size
	ParamRateProdAvg  = "rate_prod_avg" // mean bubble arrivals per step
	ParamRateProdStd  = "rate_prod_std" // arrival std (normal-rate producer)
	ParamRatePopAvg   = "rate_pop_avg"  // mean removals per step (random bursting)
	ParamRatePopStd   = "rate_pop_std"
	ParamMeniscus     = "meniscus" // merging distance between menisci
	ParamMergeProb    = "merging_probability"
	ParamLifetimeDist = "lifetime_dist" // "fixed" | "weibull" | "exponential" | "none"
	ParamLifetime     = "lifetime"      // fixed lifetime value
	ParamMeanLifetime = "mean_lifetime" // distribution scale
	ParamDiffusionStd = "diffusion_std" // gaussian walk displacement std
)

// ModuleDefaults is the lowest-precedence parameter layer, shared by every
// simulation variant.
func ModuleDefaults() map[string]any {
	return map[string]any{
		ParamSteps:       100,
		ParamWidth:       30.0,
		ParamBoundary:    "reflecting",
		ParamNBubbles:    1,
		ParamRateProdAvg: 16.0,
		ParamRateProdStd: 4.0,
		ParamMeniscus:    1.0,
	}
}

// DefaultBubbleInit is the default bubble-initialization sub-map: new
// bubbles carry unit volume.
func DefaultBubbleInit() map[string]any {
	return map[string]any{"volume": 1.0}
}

// Param is one ordered key/value entry of the resolved set, the form
// external writers consume.
type Param struct {
	Key   string
	Value any
}

// Params is the effective parameter set of one simulation, resolved once
// from three layers. It is immutable after resolution except for the
// bubble-initialization sub-map, which stays separate and may be edited
// before a run.
type Params struct {
	values     map[string]any
	bubbleInit map[string]any
}

// Resolve merges the three configuration layers with precedence
// instance > class > module. Keys absent from every layer stay absent; the
// resolver invents no defaults, validation happens at first access.
func Resolve(moduleDefaults, classDefaults, instanceOverrides map[string]any) *Params {
	values := make(map[string]any)
	for _, layer := range []map[string]any{moduleDefaults, classDefaults, instanceOverrides} {
		for k, v := range layer {
			values[k] = v
		}
	}
	return &Params{values: values, bubbleInit: DefaultBubbleInit()}
}

// Has reports whether the key is present at any layer.
func (p *Params) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Float returns the named parameter as a float64. Integer-typed values are
// widened; anything else is a ConfigurationError.
func (p *Params) Float(key string) (float64, error) {
	v, ok := p.values[key]
	if !ok {
		return 0, &ConfigurationError{Key: key, Reason: "not set"}
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, &ConfigurationError{Key: key, Reason: fmt.Sprintf("want number, got %T", v)}
	}
}

// Int returns the named parameter as an int.
func (p *Params) Int(key string) (int, error) {
	v, ok := p.values[key]
	if !ok {
		return 0, &ConfigurationError{Key: key, Reason: "not set"}
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
		return 0, &ConfigurationError{Key: key, Reason: fmt.Sprintf("want integer, got %v", n)}
	default:
		return 0, &ConfigurationError{Key: key, Reason: fmt.Sprintf("want integer, got %T", v)}
	}
}

// String returns the named parameter as a string.
func (p *Params) String(key string) (string, error) {
	v, ok := p.values[key]
	if !ok {
		return "", &ConfigurationError{Key: key, Reason: "not set"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &ConfigurationError{Key: key, Reason: fmt.Sprintf("want string, got %T", v)}
	}
	return s, nil
}

// FloatOr returns the named parameter, or def when the key is absent. A
// present but mistyped value is still a ConfigurationError.
func (p *Params) FloatOr(key string, def float64) (float64, error) {
	if !p.Has(key) {
		return def, nil
	}
	return p.Float(key)
}

// Domain builds the spatial domain from the width and boundary parameters.
func (p *Params) Domain() (model.Domain, error) {
	width, err := p.Float(ParamWidth)
	if err != nil {
		return model.Domain{}, err
	}
	if width <= 0 {
		return model.Domain{}, &ConfigurationError{Key: ParamWidth, Reason: fmt.Sprintf("must be positive, got %v", width)}
	}
	name, err := p.String(ParamBoundary)
	if err != nil {
		return model.Domain{}, err
	}
	boundary, err := model.ParseBoundaryPolicy(name)
	if err != nil {
		return model.Domain{}, &ConfigurationError{Key: ParamBoundary, Reason: err.Error()}
	}
	return model.Domain{Width: width, Boundary: boundary}, nil
}

// BubbleInitFloat reads a value from the bubble-initialization sub-map,
// falling back to def when absent.
func (p *Params) BubbleInitFloat(key string, def float64) float64 {
	v, ok := p.bubbleInit[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return def
	}
}

// SetBubbleInit edits the bubble-initialization sub-map. Deliberately not
// merged into the main parameter set.
func (p *Params) SetBubbleInit(key string, value any) {
	p.bubbleInit[key] = value
}

// Export returns the resolved set as ordered key/value records, sorted by
// key, for external writers (CSV, SQLite metadata).
func (p *Params) Export() []Param {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Param, len(keys))
	for i, k := range keys {
		out[i] = Param{Key: k, Value: p.values[k]}
	}
	return out
}
