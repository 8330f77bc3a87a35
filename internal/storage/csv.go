// Package storage persists a simulation's parameter set and time series in
// durable formats. It is a downstream collaborator of the engine: it only
// consumes the exported, ordered-field forms and never reaches into engine
// internals.
package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/signalsfoundry/bubble-simulator/core"
)

// WriteSeriesCSV writes the per-step scalar summaries, one row per step:
// step, count, mean_diameter, mean_d2, mean_d3.
func WriteSeriesCSV(w io.Writer, series *core.TimeSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"step", "count", "mean_diameter", "mean_d2", "mean_d3"}); err != nil {
		return err
	}
	for _, s := range series.Snapshots() {
		row := []string{
			strconv.Itoa(s.Step),
			strconv.Itoa(s.Count),
			formatFloat(s.MeanDiameter),
			formatFloat(s.MeanD2),
			formatFloat(s.MeanD3),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCountsCSV writes the full per-step distributions in long form:
// step, key, count. For rank-count snapshots the key is the volume rank;
// for histogram snapshots it is the bin index, with underflow and overflow
// emitted as the keys "under" and "over" when non-zero.
func WriteCountsCSV(w io.Writer, series *core.TimeSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"step", "key", "count"}); err != nil {
		return err
	}
	for _, s := range series.Snapshots() {
		if s.Ranks != nil {
			ranks := make([]int, 0, len(s.Ranks))
			for r := range s.Ranks {
				ranks = append(ranks, r)
			}
			sort.Ints(ranks)
			for _, r := range ranks {
				if err := cw.Write([]string{strconv.Itoa(s.Step), strconv.Itoa(r), strconv.Itoa(s.Ranks[r])}); err != nil {
					return err
				}
			}
			continue
		}
		for i, c := range s.BinCounts {
			if c == 0 {
				continue
			}
			if err := cw.Write([]string{strconv.Itoa(s.Step), strconv.Itoa(i), strconv.Itoa(c)}); err != nil {
				return err
			}
		}
		if s.Underflow > 0 {
			if err := cw.Write([]string{strconv.Itoa(s.Step), "under", strconv.Itoa(s.Underflow)}); err != nil {
				return err
			}
		}
		if s.Overflow > 0 {
			if err := cw.Write([]string{strconv.Itoa(s.Step), "over", strconv.Itoa(s.Overflow)}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteParamsCSV writes the resolved parameter set as key,value rows in key
// order, the structured metadata companion of the tabular series files.
func WriteParamsCSV(w io.Writer, params *core.Params) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"key", "value"}); err != nil {
		return err
	}
	for _, p := range params.Export() {
		if err := cw.Write([]string{p.Key, fmt.Sprintf("%v", p.Value)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
