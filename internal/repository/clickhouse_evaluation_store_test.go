package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"TradeGuard/internal/domain/models"
)

func TestRecordOf(t *testing.T) {
	pattern := models.AgentResult{RiskScore: 30, Verdict: models.VerdictWarning}
	station := models.AgentResult{Unavailable: true}
	res := &models.EvaluationResult{
		Order:      models.Order{Symbol: "INFY", Exchange: "NSE", TransactionType: "BUY"},
		Horizon:    models.HorizonIntraday,
		Timestamp:  time.Unix(1728531900, 0).UTC(),
		Behavioral: models.AgentResult{RiskScore: 15, Verdict: models.VerdictCaution},
		Pattern:    &pattern,
		Station:    &station,
		Errors:     map[string]string{"station.15m": "timeout"},
	}
	r := RecordOf(res)
	if r.Behavioral != 15 || r.Structure != -1 || r.Pattern != 30 || r.Station != -1 {
		t.Fatalf("scores = %+v", r)
	}
	if r.MaxScore != 30 || r.Verdict != models.VerdictWarning || r.SourceErrors != 1 {
		t.Fatalf("summary = %+v", r)
	}

	idle := RecordOf(&models.EvaluationResult{Behavioral: models.AgentResult{Verdict: models.VerdictClear}})
	if idle.MaxScore != 0 || idle.Verdict != models.VerdictClear {
		t.Fatalf("idle = %+v", idle)
	}
}

func TestEvaluationSchemaUsesTable(t *testing.T) {
	s := NewCHEvaluationStore(nil, "")
	if !strings.Contains(s.Schema()[0], "risk_evaluations") {
		t.Fatalf("default table not used")
	}
}

type stubPublisher struct {
	calls int
	err   error
}

func (s *stubPublisher) Publish(context.Context, *models.EvaluationResult) error {
	s.calls++
	return s.err
}

func (s *stubPublisher) Close() error { return s.err }

func TestFanoutPublisherReachesEverySink(t *testing.T) {
	boom := errors.New("down")
	a, b := &stubPublisher{err: boom}, &stubPublisher{}
	f := FanoutPublisher{a, b}
	err := f.Publish(context.Background(), &models.EvaluationResult{})
	if !errors.Is(err, boom) || a.calls != 1 || b.calls != 1 {
		t.Fatalf("fanout: err=%v a=%d b=%d", err, a.calls, b.calls)
	}
	if err := (FanoutPublisher{b}).Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
