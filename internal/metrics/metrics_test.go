package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordPhase(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordPhase("plan", 10*time.Millisecond)
	m.RecordPhase("plan", 5*time.Millisecond)
	m.RecordPhase("action", time.Millisecond)

	if got := testutil.ToFloat64(m.phaseTotal.WithLabelValues("plan")); got != 2 {
		t.Fatalf("expected plan phase counter to be 2, got %v", got)
	}
	if got := testutil.ToFloat64(m.phaseTotal.WithLabelValues("action")); got != 1 {
		t.Fatalf("expected action phase counter to be 1, got %v", got)
	}
}

func TestRecordClassification(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordClassification("safe")
	m.RecordClassification("dangerous")
	m.RecordClassification("dangerous")

	if got := testutil.ToFloat64(m.classifications.WithLabelValues("dangerous")); got != 2 {
		t.Fatalf("expected dangerous classification counter to be 2, got %v", got)
	}
	if got := testutil.ToFloat64(m.classifications.WithLabelValues("safe")); got != 1 {
		t.Fatalf("expected safe classification counter to be 1, got %v", got)
	}
}

func TestRecordExecutorDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordExecutorDuration(250 * time.Millisecond)

	count, err := testutil.GatherAndCount(reg, "termaite_executor_duration_seconds")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one executor duration observation, got %d", count)
	}
}

func TestNilMetricsRecorderIsNoOp(t *testing.T) {
	var m *Metrics
	m.RecordPhase("plan", time.Millisecond)
	m.RecordClassification("safe")
	m.RecordExecutorDuration(time.Millisecond)
}
