package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestObserveStepRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}

	collector.ObserveStep(3*time.Millisecond, 5, 2, 1, 42, 1.5)
	collector.ObserveStep(1*time.Millisecond, 0, 3, 0, 39, 1.25)

	if got := testutil.ToFloat64(collector.StepsTotal); got != 2 {
		t.Fatalf("sim_steps_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.BubblesCreated); got != 5 {
		t.Fatalf("sim_bubbles_created_total = %v, want 5", got)
	}
	if got := testutil.ToFloat64(collector.BubblesBurst); got != 5 {
		t.Fatalf("sim_bubbles_burst_total = %v, want 5", got)
	}
	if got := testutil.ToFloat64(collector.BubblesMerged); got != 1 {
		t.Fatalf("sim_bubbles_merged_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.PopulationSize); got != 39 {
		t.Fatalf("sim_population_bubbles = %v, want 39", got)
	}
	if got := testutil.ToFloat64(collector.MeanDiameter); got != 1.25 {
		t.Fatalf("sim_population_mean_diameter = %v, want 1.25", got)
	}

	if count := histogramSampleCount(t, reg, "sim_step_duration_seconds"); count != 2 {
		t.Fatalf("sim_step_duration_seconds sample_count = %d, want 2", count)
	}
}

func TestNewSimCollectorIsIdempotentPerRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewSimCollector(reg); err != nil {
		t.Fatalf("first NewSimCollector: %v", err)
	}
	if _, err := NewSimCollector(reg); err != nil {
		t.Fatalf("second NewSimCollector: %v", err)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}
	collector.ObserveStep(time.Millisecond, 1, 0, 0, 1, 1)

	srv := httptest.NewServer(collector.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "sim_steps_total") {
		t.Fatal("metrics output missing sim_steps_total")
	}
}

func histogramSampleCount(t *testing.T, g prometheus.Gatherer, name string) uint64 {
	t.Helper()
	families, err := g.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var family *dto.MetricFamily
	for _, mf := range families {
		if mf.GetName() == name {
			family = mf
			break
		}
	}
	if family == nil || len(family.Metric) == 0 {
		t.Fatalf("metric family %s not found", name)
	}
	return family.Metric[0].GetHistogram().GetSampleCount()
}
