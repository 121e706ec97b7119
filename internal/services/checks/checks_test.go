package checks

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"TradeGuard/internal/domain/models"
	"TradeGuard/pkg/logger"
)

type tctx struct{ n int }

type fakeMetrics struct{ checkErrors []string }

func (f *fakeMetrics) RecordAgentResult(string, models.Verdict, int) {}
func (f *fakeMetrics) RecordCheckError(agent, check string) {
	f.checkErrors = append(f.checkErrors, agent+"/"+check)
}
func (f *fakeMetrics) RecordSourceError(string)      {}
func (f *fakeMetrics) RecordLatency(string, float64) {}

func fixed(id string, score int) Check[tctx] {
	return Check[tctx]{
		ID:        id,
		PassLabel: id + " ok",
		Evaluate: func(tctx) (*models.Finding, error) {
			return Trigger(id, models.SeverityWarning, score, id, "detail"), nil
		},
	}
}

func pass(id string) Check[tctx] {
	return Check[tctx]{ID: id, PassLabel: id + " ok", Evaluate: func(tctx) (*models.Finding, error) { return nil, nil }}
}

func TestVerdictBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  models.Verdict
	}{
		{0, models.VerdictClear},
		{1, models.VerdictCaution},
		{19, models.VerdictCaution},
		{20, models.VerdictWarning},
		{44, models.VerdictWarning},
		{45, models.VerdictDanger},
		{100, models.VerdictDanger},
	}
	for _, tc := range cases {
		if got := VerdictFor(tc.score); got != tc.want {
			t.Fatalf("score %d: want %s got %s", tc.score, tc.want, got)
		}
	}
}

func TestRunSumsAndClamps(t *testing.T) {
	reg := NewRegistry(fixed("a", 15), pass("b"), fixed("c", 10))
	res := Run("test", reg, tctx{})
	if res.RiskScore != 25 || res.Verdict != models.VerdictWarning {
		t.Fatalf("unexpected aggregate %d %s", res.RiskScore, res.Verdict)
	}
	if len(res.Checks) != 3 || len(res.Triggered) != 2 {
		t.Fatalf("checks %d triggered %d", len(res.Checks), len(res.Triggered))
	}
	if !res.Checks[1].Passed || res.Checks[1].Title != "b ok" {
		t.Fatalf("pass result wrong: %+v", res.Checks[1])
	}

	reg = NewRegistry(fixed("a", 60), fixed("b", 70))
	res = Run("test", reg, tctx{})
	if res.RiskScore != 100 || res.Verdict != models.VerdictDanger {
		t.Fatalf("expected clamp to 100, got %d", res.RiskScore)
	}
}

func TestRunEmptyIsClear(t *testing.T) {
	res := Run("test", NewRegistry[tctx](), tctx{})
	if res.RiskScore != 0 || res.Verdict != models.VerdictClear || res.Triggered == nil {
		t.Fatalf("unexpected %+v", res)
	}
}

func TestPanickingCheckIsPassedAndLogged(t *testing.T) {
	var buf bytes.Buffer
	m := &fakeMetrics{}
	boom := Check[tctx]{
		ID:        "boom",
		PassLabel: "boom ok",
		Evaluate: func(c tctx) (*models.Finding, error) {
			var xs []int
			_ = xs[c.n+5]
			return nil, nil
		},
	}
	failing := Check[tctx]{
		ID:       "failing",
		Evaluate: func(tctx) (*models.Finding, error) { return nil, errors.New("no data") },
	}
	reg := NewRegistry(boom, failing, fixed("real", 12))
	res := Run("pattern", reg, tctx{}, WithLogger(logger.NewWithWriter(&buf, "debug")), WithMetrics(m))

	if !res.Checks[0].Passed || !res.Checks[1].Passed {
		t.Fatalf("errored checks should pass: %+v", res.Checks)
	}
	if res.RiskScore != 12 {
		t.Fatalf("only the real finding should count, got %d", res.RiskScore)
	}
	out := buf.String()
	if !strings.Contains(out, `"check":"boom"`) || !strings.Contains(out, `"check":"failing"`) {
		t.Fatalf("expected warnings for both checks, got %s", out)
	}
	if len(m.checkErrors) != 2 || m.checkErrors[0] != "pattern/boom" {
		t.Fatalf("metrics not recorded: %v", m.checkErrors)
	}
}

func TestNegativeFindingScoreIsFloored(t *testing.T) {
	reg := NewRegistry(fixed("neg", -5), fixed("pos", 5))
	if res := Run("t", reg, tctx{}); res.RiskScore != 5 {
		t.Fatalf("want 5, got %d", res.RiskScore)
	}
}

func TestExtendDoesNotMutateBase(t *testing.T) {
	base := NewRegistry(pass("a"))
	ext := base.Extend(pass("b"), pass("c"))
	if base.Len() != 1 || ext.Len() != 3 {
		t.Fatalf("base %d ext %d", base.Len(), ext.Len())
	}
	other := base.Extend(pass("z"))
	if ext.IDs()[1] != "b" || other.IDs()[1] != "z" {
		t.Fatalf("extensions share storage: %v %v", ext.IDs(), other.IDs())
	}
}

func TestUnavailable(t *testing.T) {
	u := Unavailable("no candles")
	if !u.Unavailable || u.RiskScore != 0 || u.Verdict != models.VerdictClear || len(u.Checks) != 0 {
		t.Fatalf("unexpected %+v", u)
	}
}
