package checks

import (
	"errors"
	"fmt"

	"TradeGuard/internal/domain/models"
	"TradeGuard/internal/domain/repository"
	"TradeGuard/pkg/logger"
)

type runner struct {
	log     *logger.Logger
	metrics repository.Metrics
}

// Option configures Run.
type Option func(*runner)

// WithLogger sets the logger used for contained check failures.
func WithLogger(l *logger.Logger) Option {
	return func(r *runner) { r.log = l }
}

// WithMetrics sets the recorder for contained check failures.
func WithMetrics(m repository.Metrics) Option {
	return func(r *runner) { r.metrics = m }
}

// outcome is the result of one guarded evaluation.
type outcome struct {
	finding *models.Finding
	err     error
}

var errNoEvaluator = errors.New("check has no evaluator")

// evaluate converts a returned error or a panic into an outcome.
func evaluate[C any](c Check[C], ctx C) (out outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			out = outcome{err: fmt.Errorf("panic: %v", rec)}
		}
	}()
	if c.Evaluate == nil {
		return outcome{err: errNoEvaluator}
	}
	f, err := c.Evaluate(ctx)
	return outcome{finding: f, err: err}
}

// Run evaluates every check in order and aggregates the findings. A check
// that errors or panics is recorded as passed and only logged.
func Run[C any](agent string, reg Registry[C], ctx C, opts ...Option) models.AgentResult {
	r := &runner{}
	for _, o := range opts {
		o(r)
	}

	res := models.AgentResult{
		Checks:    make([]models.CheckResult, 0, len(reg.checks)),
		Triggered: []models.CheckResult{},
	}
	total := 0
	for _, c := range reg.checks {
		out := evaluate(c, ctx)
		if out.err != nil {
			if r.log != nil {
				r.log.Warn("check failed, treated as passed",
					logger.String("agent", agent),
					logger.String("check", c.ID),
					logger.Error(out.err),
				)
			}
			if r.metrics != nil {
				r.metrics.RecordCheckError(agent, c.ID)
			}
			res.Checks = append(res.Checks, passed(c))
			continue
		}
		if out.finding == nil {
			res.Checks = append(res.Checks, passed(c))
			continue
		}

		f := out.finding
		score := f.RiskScore
		if score < 0 {
			score = 0
		}
		cr := models.CheckResult{
			ID:        c.ID,
			Passed:    false,
			Title:     f.Title,
			Severity:  f.Severity,
			Detail:    f.Detail,
			RiskScore: score,
		}
		res.Checks = append(res.Checks, cr)
		res.Triggered = append(res.Triggered, cr)
		total += score
	}

	res.RiskScore = Clamp(total)
	res.Verdict = VerdictFor(res.RiskScore)
	return res
}

func passed[C any](c Check[C]) models.CheckResult {
	return models.CheckResult{ID: c.ID, Passed: true, Title: c.PassLabel}
}

// Clamp bounds a summed score to 0..100.
func Clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// VerdictFor maps a clamped risk score to its verdict.
func VerdictFor(score int) models.Verdict {
	switch {
	case score <= 0:
		return models.VerdictClear
	case score < 20:
		return models.VerdictCaution
	case score < 45:
		return models.VerdictWarning
	default:
		return models.VerdictDanger
	}
}

// Unavailable is the neutral result of an agent that could not run.
func Unavailable(reason string) models.AgentResult {
	return models.AgentResult{
		Checks:      []models.CheckResult{},
		Triggered:   []models.CheckResult{},
		RiskScore:   0,
		Verdict:     models.VerdictClear,
		Unavailable: true,
		Reason:      reason,
	}
}

// Trigger is shorthand for building a finding.
func Trigger(id string, sev models.Severity, score int, title, detail string) *models.Finding {
	return &models.Finding{ID: id, Severity: sev, Title: title, Detail: detail, RiskScore: score}
}
