package core

// TimeSeries is the process-local, append-only record of one simulation's
// snapshots. It is owned exclusively by the advancing engine for the
// simulation's lifetime; records are never mutated after append and no
// reader can observe a partially written record (appends happen only after
// a step fully commits).
type TimeSeries struct {
	snapshots []Snapshot
}

// Append adds a committed snapshot.
func (ts *TimeSeries) Append(s Snapshot) {
	ts.snapshots = append(ts.snapshots, s)
}

// Len returns the number of recorded snapshots.
func (ts *TimeSeries) Len() int { return len(ts.snapshots) }

// At returns the i-th snapshot.
func (ts *TimeSeries) At(i int) Snapshot { return ts.snapshots[i] }

// Last returns the most recent snapshot and false when empty.
func (ts *TimeSeries) Last() (Snapshot, bool) {
	if len(ts.snapshots) == 0 {
		return Snapshot{}, false
	}
	return ts.snapshots[len(ts.snapshots)-1], true
}

// Snapshots returns a copy of the record sequence, in step order, for
// external writers.
func (ts *TimeSeries) Snapshots() []Snapshot {
	return append([]Snapshot(nil), ts.snapshots...)
}

// Counts returns the per-step total bubble counts.
func (ts *TimeSeries) Counts() []int {
	out := make([]int, len(ts.snapshots))
	for i, s := range ts.snapshots {
		out[i] = s.Count
	}
	return out
}

// MeanDiameters returns the per-step population-average diameters (NaN for
// empty-population steps).
func (ts *TimeSeries) MeanDiameters() []float64 {
	out := make([]float64, len(ts.snapshots))
	for i, s := range ts.snapshots {
		out[i] = s.MeanDiameter
	}
	return out
}
