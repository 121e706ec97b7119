package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"TradeGuard/internal/domain/models"
)

func TestRecorderCounts(t *testing.T) {
	r := NewWithRegisterer(prometheus.NewRegistry())

	r.RecordAgentResult("behavioral", models.VerdictWarning, 25)
	r.RecordAgentResult("behavioral", models.VerdictWarning, 30)
	r.RecordCheckError("pattern", "big_candle")
	r.RecordSourceError("positions")

	if v := testutil.ToFloat64(r.evaluations.WithLabelValues("behavioral", "warning")); v != 2 {
		t.Fatalf("expected 2 evaluations, got %v", v)
	}
	if v := testutil.ToFloat64(r.checkErrors.WithLabelValues("pattern", "big_candle")); v != 1 {
		t.Fatalf("expected 1 check error, got %v", v)
	}
	if v := testutil.ToFloat64(r.sourceErrors.WithLabelValues("positions")); v != 1 {
		t.Fatalf("expected 1 source error, got %v", v)
	}
}
