package core

import "fmt"

// ConfigurationError reports a missing or invalid parameter, surfaced at the
// point of first use rather than at resolution time.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: parameter %q: %s", e.Key, e.Reason)
}

// DomainError reports a physically invalid state: negative volume or
// diameter, a position outside the declared domain after transport, or an
// invalid distribution sample.
type DomainError struct {
	Op     string
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("domain: %s: %s", e.Op, e.Reason)
}

// AggregationError reports an aggregator misconfiguration or a mismatch
// between the chosen strategy and the bubble attributes it reduces.
type AggregationError struct {
	Reason string
}

func (e *AggregationError) Error() string {
	return "aggregation: " + e.Reason
}
