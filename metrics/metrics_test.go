package metrics_test

import (
	"testing"

	"github.com/xperrylinn/jobflow/metrics"
)

func TestBasicProviderReusesInstrumentsByName(t *testing.T) {
	p := metrics.NewBasicProvider()

	c1 := p.Counter("jobflow.job.started")
	c1.Add(3)
	c2 := p.Counter("jobflow.job.started")
	c2.Add(2)

	snap := c2.(*metrics.BasicCounter).Snapshot()
	if snap != 5 {
		t.Fatalf("expected same underlying counter reused by name, got snapshot %d", snap)
	}
}

func TestBasicHistogramSnapshot(t *testing.T) {
	h := metrics.NewBasicProvider().Histogram("jobflow.job.duration")
	h.Record(1)
	h.Record(3)

	snap := h.(*metrics.BasicHistogram).Snapshot()
	if snap.Count != 2 || snap.Sum != 4 || snap.Min != 1 || snap.Max != 3 || snap.Mean != 2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestNoopProviderDiscardsMetrics(t *testing.T) {
	p := metrics.NewNoopProvider()
	p.Counter("x").Add(1)
	p.UpDownCounter("y").Add(-1)
	p.Histogram("z").Record(1.5)
}

func TestNewJobMetricsDefaultsToNoop(t *testing.T) {
	jm := metrics.NewJobMetrics(nil)
	jm.Started.Add(1)
	jm.InFlight.Add(1)
	jm.Duration.Record(0.01)
}
