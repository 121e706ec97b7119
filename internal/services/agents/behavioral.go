package agents

import (
	"fmt"
	"math"
	"strings"

	"TradeGuard/internal/domain/models"
	"TradeGuard/internal/services/checks"
)

// BehavioralContext is the account and market snapshot the behavioral checks
// read. Built once per evaluation and never mutated.
type BehavioralContext struct {
	Order     models.Order
	Bias      models.Bias
	Positions []models.Position
	Orders    []models.OrderSnapshot
	Sentiment *models.Sentiment
	Sector    *models.SectorSnapshot
	VIX       *float64
}

// NewBehavioralContext builds the behavioral context. Slices are copied.
func NewBehavioralContext(o models.Order, positions []models.Position, orders []models.OrderSnapshot,
	sentiment *models.Sentiment, sector *models.SectorSnapshot, vix *float64) BehavioralContext {
	return BehavioralContext{
		Order:     o,
		Bias:      o.Bias(),
		Positions: append([]models.Position(nil), positions...),
		Orders:    append([]models.OrderSnapshot(nil), orders...),
		Sentiment: sentiment,
		Sector:    sector,
		VIX:       vix,
	}
}

const (
	overtradingCaution = 5
	overtradingDanger  = 8
	revengeLosses      = 2
	sectorMovePct      = 1.0
	strongSentiment    = 60.0
	highVIX            = 20.0
)

var behavioralChecks = checks.NewRegistry(
	checks.Check[BehavioralContext]{
		ID:        "averaging_into_loss",
		PassLabel: "Not adding to a losing position",
		Evaluate: func(c BehavioralContext) (*models.Finding, error) {
			for _, p := range c.Positions {
				if !p.IsOpen() || !strings.EqualFold(p.Symbol, c.Order.Symbol) || p.UnrealisedPnL >= 0 {
					continue
				}
				sameSide := (p.Quantity > 0) == c.Order.IsBuy()
				if !sameSide {
					continue
				}
				return checks.Trigger("averaging_into_loss", models.SeverityWarning, 20,
					"Averaging into a loss",
					fmt.Sprintf("existing %s position is down %.2f", p.Symbol, p.UnrealisedPnL)), nil
			}
			return nil, nil
		},
	},
	checks.Check[BehavioralContext]{
		ID:        "counter_trend_market",
		PassLabel: "Trade agrees with market sentiment",
		Evaluate: func(c BehavioralContext) (*models.Finding, error) {
			if c.Sentiment == nil {
				return nil, nil
			}
			mkt := models.ParseBias(c.Sentiment.Bias)
			if !againstBias(c.Bias, mkt) {
				return nil, nil
			}
			if math.Abs(c.Sentiment.Score) >= strongSentiment {
				return checks.Trigger("counter_trend_market", models.SeverityWarning, 20,
					"Against a strong market trend",
					fmt.Sprintf("%s trade while market is %s (score %.0f)", c.Bias, mkt, c.Sentiment.Score)), nil
			}
			return checks.Trigger("counter_trend_market", models.SeverityCaution, 10,
				"Against market sentiment",
				fmt.Sprintf("%s trade while market is %s", c.Bias, mkt)), nil
		},
	},
	checks.Check[BehavioralContext]{
		ID:        "counter_trend_sector",
		PassLabel: "Sector is not moving against the trade",
		Evaluate: func(c BehavioralContext) (*models.Finding, error) {
			if c.Sector == nil {
				return nil, nil
			}
			chg := c.Sector.ChangePct
			if (c.Bias == models.BiasBullish && chg <= -sectorMovePct) ||
				(c.Bias == models.BiasBearish && chg >= sectorMovePct) {
				return checks.Trigger("counter_trend_sector", models.SeverityCaution, 10,
					"Against sector move",
					fmt.Sprintf("%s is %+.2f%% today", c.Sector.Name, chg)), nil
			}
			return nil, nil
		},
	},
	checks.Check[BehavioralContext]{
		ID:        "overtrading",
		PassLabel: "Open position count is reasonable",
		Evaluate: func(c BehavioralContext) (*models.Finding, error) {
			open := 0
			for _, p := range c.Positions {
				if p.IsOpen() {
					open++
				}
			}
			switch {
			case open >= overtradingDanger:
				return checks.Trigger("overtrading", models.SeverityWarning, 25,
					"Too many open positions", fmt.Sprintf("%d positions already open", open)), nil
			case open >= overtradingCaution:
				return checks.Trigger("overtrading", models.SeverityCaution, 15,
					"Many open positions", fmt.Sprintf("%d positions already open", open)), nil
			}
			return nil, nil
		},
	},
	checks.Check[BehavioralContext]{
		ID:        "duplicate_pending_order",
		PassLabel: "No duplicate pending order",
		Evaluate: func(c BehavioralContext) (*models.Finding, error) {
			for _, o := range c.Orders {
				if o.IsPending() && strings.EqualFold(o.Symbol, c.Order.Symbol) &&
					strings.EqualFold(o.TransactionType, c.Order.TransactionType) {
					return checks.Trigger("duplicate_pending_order", models.SeverityCaution, 10,
						"Duplicate pending order",
						fmt.Sprintf("order %s for %s is still %s", o.OrderID, o.Symbol, o.Status)), nil
				}
			}
			return nil, nil
		},
	},
	checks.Check[BehavioralContext]{
		ID:        "revenge_trading",
		PassLabel: "No sign of revenge trading",
		Evaluate: func(c BehavioralContext) (*models.Finding, error) {
			losses, total := 0, 0.0
			for _, p := range c.Positions {
				if p.RealisedPnL < 0 {
					losses++
					total += p.RealisedPnL
				}
			}
			if losses < revengeLosses {
				return nil, nil
			}
			return checks.Trigger("revenge_trading", models.SeverityWarning, 15,
				"Possible revenge trade",
				fmt.Sprintf("%d losing trades today (%.2f realised)", losses, total)), nil
		},
	},
	checks.Check[BehavioralContext]{
		ID:        "high_vix",
		PassLabel: "Volatility acceptable for the instrument",
		Evaluate: func(c BehavioralContext) (*models.Finding, error) {
			if c.VIX == nil || !c.Order.IsOption() || !c.Order.IsBuy() || *c.VIX <= highVIX {
				return nil, nil
			}
			return checks.Trigger("high_vix", models.SeverityCaution, 8,
				"Buying options in high volatility",
				fmt.Sprintf("VIX at %.2f inflates premiums", *c.VIX)), nil
		},
	},
)

// BehavioralAgent scores account behavior. It has no horizon extension.
type BehavioralAgent struct {
	deps Deps
}

func NewBehavioralAgent(deps Deps) *BehavioralAgent {
	return &BehavioralAgent{deps: deps}
}

// Registry returns the checks run for the given horizon.
func (a *BehavioralAgent) Registry(models.Horizon) checks.Registry[BehavioralContext] {
	return behavioralChecks
}

func (a *BehavioralAgent) Evaluate(c BehavioralContext) models.AgentResult {
	return checks.Run(NameBehavioral, a.Registry(c.Order.Horizon()), c, a.deps.runOptions()...)
}
