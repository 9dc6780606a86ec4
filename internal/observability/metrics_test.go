package observability

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func latencySampleCount(t *testing.T) uint64 {
	t.Helper()
	var m dto.Metric
	if err := DefaultMetrics.ProviderLatency.Write(&m); err != nil {
		t.Fatalf("read latency histogram: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestRecordProviderFetchSkippedOmitsLatency(t *testing.T) {
	before := latencySampleCount(t)

	RecordProviderFetch(FetchOutcomeSkipped, 0)

	if got := latencySampleCount(t); got != before {
		t.Fatalf("skipped fetch observed latency: %d -> %d samples", before, got)
	}
}

func TestRecordProviderFetchAttemptObservesLatency(t *testing.T) {
	before := latencySampleCount(t)

	RecordProviderFetch(FetchOutcomeOK, 0.25)
	RecordProviderFetch(FetchOutcomeEmpty, 0.05)
	RecordProviderFetch(FetchOutcomeFailed, 0.1)

	if got := latencySampleCount(t); got != before+3 {
		t.Fatalf("expected 3 new latency samples, got %d -> %d", before, got)
	}
}
