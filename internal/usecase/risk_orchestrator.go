package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"TradeGuard/internal/domain/models"
	domrepo "TradeGuard/internal/domain/repository"
	"TradeGuard/internal/services/agents"
	"TradeGuard/internal/services/checks"
	"TradeGuard/pkg/logger"
)

// ErrInvalidRequest is returned for malformed evaluation requests. Data
// outages never produce an error.
var ErrInvalidRequest = errors.New("invalid evaluation request")

// RiskOrchestratorDeps wires the orchestrator. Every collaborator except
// the agents may be nil.
type RiskOrchestratorDeps struct {
	Positions  domrepo.PositionSource
	Orders     domrepo.OrderSource
	Market     domrepo.MarketContextSource
	Publisher  domrepo.EvaluationPublisher
	Metrics    domrepo.Metrics
	Log        *logger.Logger
	Behavioral *agents.BehavioralAgent
	Structure  *agents.StructureAgent
	Pattern    *agents.PatternAgent
	Station    *agents.StationAgent
	Timeout    time.Duration
}

// RiskOrchestrator gathers account and market context and runs the agents.
type RiskOrchestrator struct {
	d RiskOrchestratorDeps
}

func NewRiskOrchestrator(d RiskOrchestratorDeps) *RiskOrchestrator {
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	if d.Timeout <= 0 {
		d.Timeout = 10 * time.Second
	}
	return &RiskOrchestrator{d: d}
}

type item struct {
	name string
	val  interface{}
	err  error
}

func validate(req models.EvaluateRequest) error {
	if strings.TrimSpace(req.Symbol) == "" {
		return fmt.Errorf("%w: symbol required", ErrInvalidRequest)
	}
	switch strings.ToUpper(req.TransactionType) {
	case models.TransactionBuy, models.TransactionSell:
	default:
		return fmt.Errorf("%w: transactionType must be BUY or SELL", ErrInvalidRequest)
	}
	if req.SpotPrice < 0 {
		return fmt.Errorf("%w: spotPrice must not be negative", ErrInvalidRequest)
	}
	return nil
}

// Evaluate scores the order. Source failures are recorded in Errors and only
// degrade the fields that depend on them.
func (uc *RiskOrchestrator) Evaluate(ctx context.Context, req models.EvaluateRequest) (*models.EvaluationResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, uc.d.Timeout)
	defer cancel()

	o := req.Order()
	o.TransactionType = strings.ToUpper(o.TransactionType)
	res := &models.EvaluationResult{
		Order:     o,
		Horizon:   o.Horizon(),
		Timestamp: start.UTC(),
		Positions: []models.Position{},
		Orders:    []models.OrderSnapshot{},
		Errors:    map[string]string{},
	}

	// Candle-only agents do not depend on account data and start first.
	agentCh := make(chan item, 3)
	var agentWG sync.WaitGroup
	if req.IncludePattern {
		uc.goAgent(&agentWG, agentCh, agents.NamePattern, func() (models.AgentResult, agents.SourceErrors) {
			if uc.d.Pattern == nil {
				return checks.Unavailable("pattern agent not configured"), nil
			}
			return uc.d.Pattern.Evaluate(ctx, o)
		})
	}
	if req.IncludeStation {
		uc.goAgent(&agentWG, agentCh, agents.NameStation, func() (models.AgentResult, agents.SourceErrors) {
			if uc.d.Station == nil {
				return checks.Unavailable("station agent not configured"), nil
			}
			return uc.d.Station.Evaluate(ctx, o)
		})
	}

	positionsOK := uc.gatherContext(ctx, o, res)

	if req.IncludeStructure {
		sentiment := res.Sentiment
		uc.goAgent(&agentWG, agentCh, agents.NameStructure, func() (models.AgentResult, agents.SourceErrors) {
			if uc.d.Structure == nil {
				return checks.Unavailable("structure agent not configured"), nil
			}
			return uc.d.Structure.Evaluate(ctx, o, sentiment)
		})
	}

	switch {
	case !positionsOK:
		res.Behavioral = checks.Unavailable("positions unavailable")
	case uc.d.Behavioral == nil:
		res.Behavioral = checks.Unavailable("behavioral agent not configured")
	default:
		res.Behavioral = uc.d.Behavioral.Evaluate(agents.NewBehavioralContext(
			o, res.Positions, res.Orders, res.Sentiment, res.Sector, res.VIX))
	}
	uc.recordAgent(agents.NameBehavioral, res.Behavioral)

	go func() { agentWG.Wait(); close(agentCh) }()
	for it := range agentCh {
		r := it.val.(models.AgentResult)
		uc.recordAgent(it.name, r)
		switch it.name {
		case agents.NameStructure:
			res.Structure = &r
		case agents.NamePattern:
			res.Pattern = &r
		case agents.NameStation:
			res.Station = &r
		}
		if it.err != nil {
			uc.sourceFailed(res, it.name, it.err)
		}
	}

	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	if uc.d.Metrics != nil {
		uc.d.Metrics.RecordLatency("evaluate", time.Since(start).Seconds())
	}
	uc.publish(res)
	return res, nil
}

// gatherContext fetches positions, orders, sentiment, sector and VIX in
// parallel. It reports whether positions were fetched.
func (uc *RiskOrchestrator) gatherContext(ctx context.Context, o models.Order, res *models.EvaluationResult) bool {
	ch := make(chan item, 5)
	var wg sync.WaitGroup

	run := func(name string, f func() (interface{}, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					ch <- item{name: name, err: fmt.Errorf("panic: %v", rec)}
				}
			}()
			v, err := f()
			ch <- item{name, v, err}
		}()
	}

	if uc.d.Positions != nil {
		run("positions", func() (interface{}, error) { return uc.d.Positions.Positions(ctx) })
	} else {
		res.Errors["positions"] = "no position source configured"
	}
	if uc.d.Orders != nil {
		run("orders", func() (interface{}, error) { return uc.d.Orders.Orders(ctx) })
	}
	if uc.d.Market != nil {
		run("sentiment", func() (interface{}, error) { return uc.d.Market.Sentiment(ctx) })
		run("sector", func() (interface{}, error) { return uc.d.Market.Sector(ctx, o.Symbol) })
		run("vix", func() (interface{}, error) { return uc.d.Market.VIX(ctx) })
	}

	go func() { wg.Wait(); close(ch) }()

	positionsOK := false
	for it := range ch {
		if it.err != nil {
			uc.sourceFailed(res, it.name, it.err)
			continue
		}
		switch it.name {
		case "positions":
			if v := it.val.([]models.Position); v != nil {
				res.Positions = v
			}
			positionsOK = true
		case "orders":
			if v := it.val.([]models.OrderSnapshot); v != nil {
				res.Orders = v
			}
		case "sentiment":
			res.Sentiment = it.val.(*models.Sentiment)
		case "sector":
			res.Sector = it.val.(*models.SectorSnapshot)
		case "vix":
			v := it.val.(float64)
			res.VIX = &v
		}
	}
	return positionsOK
}

func (uc *RiskOrchestrator) goAgent(wg *sync.WaitGroup, ch chan<- item, name string, f func() (models.AgentResult, agents.SourceErrors)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				uc.d.Log.Error("agent panicked", logger.String("agent", name), logger.Any("panic", rec))
				ch <- item{name: name, val: checks.Unavailable("agent failed"), err: fmt.Errorf("panic: %v", rec)}
			}
		}()
		r, errs := f()
		var err error
		if len(errs) > 0 {
			err = sourceErrors(errs)
		}
		ch <- item{name, r, err}
	}()
}

// sourceErrors carries per-source failures from an agent back to the
// orchestrator's error map.
type sourceErrors agents.SourceErrors

func (s sourceErrors) Error() string {
	parts := make([]string, 0, len(s))
	for k, v := range s {
		parts = append(parts, k+": "+v.Error())
	}
	return strings.Join(parts, "; ")
}

func (uc *RiskOrchestrator) sourceFailed(res *models.EvaluationResult, name string, err error) {
	var se sourceErrors
	if errors.As(err, &se) {
		for k, v := range se {
			uc.sourceFailed(res, k, v)
		}
		return
	}
	res.Errors[name] = err.Error()
	uc.d.Log.Warn("source failed", logger.String("source", name), logger.Error(err))
	if uc.d.Metrics != nil {
		uc.d.Metrics.RecordSourceError(name)
	}
}

func (uc *RiskOrchestrator) recordAgent(name string, r models.AgentResult) {
	if uc.d.Metrics == nil || r.Unavailable {
		return
	}
	uc.d.Metrics.RecordAgentResult(name, r.Verdict, r.RiskScore)
}

// publish ships the evaluation best-effort; failures are logged only.
func (uc *RiskOrchestrator) publish(res *models.EvaluationResult) {
	if uc.d.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := uc.d.Publisher.Publish(ctx, res); err != nil {
		uc.d.Log.Warn("publish evaluation failed",
			logger.String("symbol", res.Order.Symbol),
			logger.Error(err),
		)
		if uc.d.Metrics != nil {
			uc.d.Metrics.RecordSourceError("publisher")
		}
	}
}
