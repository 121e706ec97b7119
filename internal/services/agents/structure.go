package agents

import (
	"context"
	"fmt"
	"time"

	"TradeGuard/internal/domain/models"
	"TradeGuard/internal/domain/repository"
	"TradeGuard/internal/services/checks"
	"TradeGuard/internal/services/indicators"
)

const (
	openingRangeBars = 3
	rsiOverbought    = 75.0
	rsiOversold      = 25.0
	adxChop          = 20.0
	adxTrend         = 25.0
	thinVolumeRatio  = 0.7
	breadthSkew      = 1.5
	relativeStrength = 3.0
	relativeSessions = 20
	volumeAvgBars    = 20
	multiDayLookback = 3
)

// StructureContext holds the precomputed trend readings for one order.
type StructureContext struct {
	Order   models.Order
	Bias    models.Bias
	Horizon models.Horizon
	Price   float64

	Intraday []models.Candle
	Session  []models.Candle
	Daily    []models.Candle

	EMA9, EMA21 Reading
	VWAP        Reading
	RSI         Reading
	VolRatio    Reading
	ADX         indicators.ADXResult
	ADXOK       bool
	Breadth     *models.Breadth

	// Swing readings.
	DailyEMA50, DailyEMA200 Reading
	WeeklyEMA20             Reading
	WeeklyClose             float64
	SymbolChange            Reading
	BenchmarkChange         Reading
}

// StructureInput is the raw data the structure context is built from.
type StructureInput struct {
	Order     models.Order
	Intraday  []models.Candle
	Daily     []models.Candle
	Weekly    []models.Candle
	Benchmark []models.Candle
	Sentiment *models.Sentiment
	Location  *time.Location
}

// NewStructureContext computes every indicator the checks need once.
func NewStructureContext(in StructureInput) StructureContext {
	c := StructureContext{
		Order:    in.Order,
		Bias:     in.Order.Bias(),
		Horizon:  in.Order.Horizon(),
		Price:    referencePrice(in.Order, in.Intraday),
		Intraday: in.Intraday,
		Daily:    in.Daily,
	}
	session := indicators.SessionStart(in.Intraday, in.Location)
	c.Session = indicators.SessionCandles(in.Intraday, session)

	c.EMA9 = read(indicators.EMA(in.Intraday, 9))
	c.EMA21 = read(indicators.EMA(in.Intraday, 21))
	c.VWAP = read(indicators.VWAP(in.Intraday, session))
	c.RSI = read(indicators.RSI(in.Intraday, 14))
	c.VolRatio = read(indicators.VolumeRatio(in.Intraday, volumeAvgBars))
	c.ADX, c.ADXOK = indicators.ADX(in.Intraday, 14)
	if in.Sentiment != nil {
		c.Breadth = in.Sentiment.Breadth
	}

	c.DailyEMA50 = read(indicators.EMA(in.Daily, 50))
	c.DailyEMA200 = read(indicators.EMA(in.Daily, 200))
	c.WeeklyEMA20 = read(indicators.EMA(in.Weekly, 20))
	c.WeeklyClose = lastClose(in.Weekly)
	c.SymbolChange = read(indicators.PercentChange(in.Daily, relativeSessions))
	c.BenchmarkChange = read(indicators.PercentChange(in.Benchmark, relativeSessions))
	return c
}

// sideOf returns which side of a reference the price sits on.
func sideOf(price float64, ref Reading) models.Bias {
	if !ref.OK || price == ref.Value {
		return models.BiasNeutral
	}
	if price > ref.Value {
		return models.BiasBullish
	}
	return models.BiasBearish
}

var structureChecks = checks.NewRegistry(
	checks.Check[StructureContext]{
		ID:        "price_vs_ema_fast",
		PassLabel: "Price on the right side of EMA9/21",
		Evaluate: func(c StructureContext) (*models.Finding, error) {
			s9, s21 := sideOf(c.Price, c.EMA9), sideOf(c.Price, c.EMA21)
			switch {
			case againstBias(c.Bias, s9) && againstBias(c.Bias, s21):
				return checks.Trigger("price_vs_ema_fast", models.SeverityWarning, 12,
					"Price against fast EMAs",
					fmt.Sprintf("price %.2f vs EMA9 %.2f / EMA21 %.2f", c.Price, c.EMA9.Value, c.EMA21.Value)), nil
			case againstBias(c.Bias, s9) || againstBias(c.Bias, s21):
				return checks.Trigger("price_vs_ema_fast", models.SeverityCaution, 6,
					"Price between fast EMAs",
					fmt.Sprintf("price %.2f vs EMA9 %.2f / EMA21 %.2f", c.Price, c.EMA9.Value, c.EMA21.Value)), nil
			}
			return nil, nil
		},
	},
	checks.Check[StructureContext]{
		ID:        "ema_alignment",
		PassLabel: "EMA9/21 aligned with trade",
		Evaluate: func(c StructureContext) (*models.Finding, error) {
			if !c.EMA9.OK || !c.EMA21.OK {
				return nil, nil
			}
			if againstBias(c.Bias, sideOf(c.EMA9.Value, c.EMA21)) {
				return checks.Trigger("ema_alignment", models.SeverityCaution, 8,
					"Fast EMAs crossed against trade",
					fmt.Sprintf("EMA9 %.2f vs EMA21 %.2f", c.EMA9.Value, c.EMA21.Value)), nil
			}
			return nil, nil
		},
	},
	checks.Check[StructureContext]{
		ID:        "vwap_side",
		PassLabel: "Price on the right side of VWAP",
		Evaluate: func(c StructureContext) (*models.Finding, error) {
			if againstBias(c.Bias, sideOf(c.Price, c.VWAP)) {
				return checks.Trigger("vwap_side", models.SeverityWarning, 10,
					"Wrong side of VWAP",
					fmt.Sprintf("price %.2f vs VWAP %.2f", c.Price, c.VWAP.Value)), nil
			}
			return nil, nil
		},
	},
	checks.Check[StructureContext]{
		ID:        "adx_regime",
		PassLabel: "Trend regime supports the trade",
		Evaluate: func(c StructureContext) (*models.Finding, error) {
			if !c.ADXOK {
				return nil, nil
			}
			if c.ADX.ADX < adxChop {
				return checks.Trigger("adx_regime", models.SeverityCaution, 8,
					"Choppy market", fmt.Sprintf("ADX %.1f below %.0f", c.ADX.ADX, adxChop)), nil
			}
			dominant := models.BiasBullish
			if c.ADX.MinusDI > c.ADX.PlusDI {
				dominant = models.BiasBearish
			}
			if c.ADX.ADX >= adxTrend && againstBias(c.Bias, dominant) {
				return checks.Trigger("adx_regime", models.SeverityWarning, 15,
					"Strong trend against trade",
					fmt.Sprintf("ADX %.1f, +DI %.1f, -DI %.1f", c.ADX.ADX, c.ADX.PlusDI, c.ADX.MinusDI)), nil
			}
			return nil, nil
		},
	},
	checks.Check[StructureContext]{
		ID:        "rsi_extreme",
		PassLabel: "RSI not stretched in trade direction",
		Evaluate: func(c StructureContext) (*models.Finding, error) {
			if !c.RSI.OK {
				return nil, nil
			}
			if c.Bias == models.BiasBullish && c.RSI.Value >= rsiOverbought {
				return checks.Trigger("rsi_extreme", models.SeverityCaution, 10,
					"Buying overbought", fmt.Sprintf("RSI %.1f", c.RSI.Value)), nil
			}
			if c.Bias == models.BiasBearish && c.RSI.Value <= rsiOversold {
				return checks.Trigger("rsi_extreme", models.SeverityCaution, 10,
					"Selling oversold", fmt.Sprintf("RSI %.1f", c.RSI.Value)), nil
			}
			return nil, nil
		},
	},
	checks.Check[StructureContext]{
		ID:        "volume_confirmation",
		PassLabel: "Volume confirms the move",
		Evaluate: func(c StructureContext) (*models.Finding, error) {
			if c.VolRatio.OK && c.VolRatio.Value < thinVolumeRatio {
				return checks.Trigger("volume_confirmation", models.SeverityCaution, 6,
					"Thin volume", fmt.Sprintf("last bar at %.0f%% of average volume", c.VolRatio.Value*100)), nil
			}
			return nil, nil
		},
	},
	checks.Check[StructureContext]{
		ID:        "opening_range",
		PassLabel: "Price outside the opening range in trade direction",
		Evaluate: func(c StructureContext) (*models.Finding, error) {
			if len(c.Session) <= openingRangeBars {
				return nil, nil
			}
			hi, lo := c.Session[0].High, c.Session[0].Low
			for _, b := range c.Session[1:openingRangeBars] {
				if b.High > hi {
					hi = b.High
				}
				if b.Low < lo {
					lo = b.Low
				}
			}
			switch {
			case c.Bias == models.BiasBullish && c.Price < lo,
				c.Bias == models.BiasBearish && c.Price > hi:
				return checks.Trigger("opening_range", models.SeverityWarning, 10,
					"Opening range broken against trade",
					fmt.Sprintf("price %.2f outside OR %.2f-%.2f", c.Price, lo, hi)), nil
			case c.Price >= lo && c.Price <= hi:
				return checks.Trigger("opening_range", models.SeverityCaution, 5,
					"Inside opening range",
					fmt.Sprintf("price %.2f within OR %.2f-%.2f", c.Price, lo, hi)), nil
			}
			return nil, nil
		},
	},
	checks.Check[StructureContext]{
		ID:        "multi_day_structure",
		PassLabel: "Recent daily closes do not oppose the trade",
		Evaluate: func(c StructureContext) (*models.Finding, error) {
			if len(c.Daily) < multiDayLookback {
				return nil, nil
			}
			d := c.Daily[len(c.Daily)-multiDayLookback:]
			falling := d[0].Close > d[1].Close && d[1].Close > d[2].Close
			rising := d[0].Close < d[1].Close && d[1].Close < d[2].Close
			if (c.Bias == models.BiasBullish && falling) || (c.Bias == models.BiasBearish && rising) {
				return checks.Trigger("multi_day_structure", models.SeverityCaution, 10,
					"Multi-day closes against trade",
					fmt.Sprintf("closes %.2f, %.2f, %.2f", d[0].Close, d[1].Close, d[2].Close)), nil
			}
			return nil, nil
		},
	},
	checks.Check[StructureContext]{
		ID:        "market_breadth",
		PassLabel: "Market breadth supports the trade",
		Evaluate: func(c StructureContext) (*models.Finding, error) {
			b := c.Breadth
			if b == nil || b.Advances == 0 || b.Declines == 0 {
				return nil, nil
			}
			r := b.Ratio()
			if (c.Bias == models.BiasBullish && r > breadthSkew) || (c.Bias == models.BiasBearish && 1/r > breadthSkew) {
				return checks.Trigger("market_breadth", models.SeverityCaution, 8,
					"Breadth against trade",
					fmt.Sprintf("%d advances / %d declines", b.Advances, b.Declines)), nil
			}
			return nil, nil
		},
	},
)

var structureSwingChecks = []checks.Check[StructureContext]{
	{
		ID:        "daily_ema50",
		PassLabel: "Price on the right side of daily EMA50",
		Evaluate: func(c StructureContext) (*models.Finding, error) {
			if againstBias(c.Bias, sideOf(c.Price, c.DailyEMA50)) {
				return checks.Trigger("daily_ema50", models.SeverityWarning, 12,
					"Against daily EMA50", fmt.Sprintf("price %.2f vs EMA50 %.2f", c.Price, c.DailyEMA50.Value)), nil
			}
			return nil, nil
		},
	},
	{
		ID:        "ema50_200_regime",
		PassLabel: "Daily EMA50/200 regime supports the trade",
		Evaluate: func(c StructureContext) (*models.Finding, error) {
			if !c.DailyEMA50.OK || !c.DailyEMA200.OK {
				return nil, nil
			}
			if againstBias(c.Bias, sideOf(c.DailyEMA50.Value, c.DailyEMA200)) {
				return checks.Trigger("ema50_200_regime", models.SeverityWarning, 15,
					"Long-term regime against trade",
					fmt.Sprintf("EMA50 %.2f vs EMA200 %.2f", c.DailyEMA50.Value, c.DailyEMA200.Value)), nil
			}
			return nil, nil
		},
	},
	{
		ID:        "weekly_ema20",
		PassLabel: "Weekly trend supports the trade",
		Evaluate: func(c StructureContext) (*models.Finding, error) {
			if againstBias(c.Bias, sideOf(c.WeeklyClose, c.WeeklyEMA20)) {
				return checks.Trigger("weekly_ema20", models.SeverityCaution, 10,
					"Against weekly EMA20",
					fmt.Sprintf("weekly close %.2f vs EMA20 %.2f", c.WeeklyClose, c.WeeklyEMA20.Value)), nil
			}
			return nil, nil
		},
	},
	{
		ID:        "relative_strength",
		PassLabel: "Relative strength supports the trade",
		Evaluate: func(c StructureContext) (*models.Finding, error) {
			if !c.SymbolChange.OK || !c.BenchmarkChange.OK {
				return nil, nil
			}
			rs := c.SymbolChange.Value - c.BenchmarkChange.Value
			if (c.Bias == models.BiasBullish && rs < -relativeStrength) ||
				(c.Bias == models.BiasBearish && rs > relativeStrength) {
				return checks.Trigger("relative_strength", models.SeverityCaution, 10,
					"Relative strength against trade",
					fmt.Sprintf("%+.2f%% vs benchmark over %d sessions", rs, relativeSessions)), nil
			}
			return nil, nil
		},
	},
}

// StructureAgent checks trend and momentum structure.
type StructureAgent struct {
	deps Deps
	cfg  Config
	loc  *time.Location
}

func NewStructureAgent(deps Deps, cfg Config) *StructureAgent {
	return &StructureAgent{deps: deps, cfg: cfg, loc: location(cfg.Timezone)}
}

// Registry returns the base checks, extended for swing trades.
func (a *StructureAgent) Registry(h models.Horizon) checks.Registry[StructureContext] {
	if h == models.HorizonSwing {
		return structureChecks.Extend(structureSwingChecks...)
	}
	return structureChecks
}

// Evaluate fetches the candles it needs and runs the structure checks.
// Intraday 5m candles are required; the rest degrade to passes.
func (a *StructureAgent) Evaluate(ctx context.Context, o models.Order, sentiment *models.Sentiment) (models.AgentResult, SourceErrors) {
	errs := SourceErrors{}
	intraday, err := a.deps.candles(ctx, o.Symbol, o.Exchange, a.cfg.IntradayBars, repository.TF5m)
	if err != nil || len(intraday) == 0 {
		errs.add(NameStructure+"."+string(repository.TF5m), err)
		return checks.Unavailable("intraday candles unavailable"), errs
	}

	dailyBars := multiDayLookback + 1
	swing := o.Horizon() == models.HorizonSwing
	if swing {
		dailyBars = a.cfg.DailyBars
	}
	daily, err := a.deps.candles(ctx, o.Symbol, o.Exchange, dailyBars, repository.TFDay)
	errs.add(NameStructure+"."+string(repository.TFDay), err)

	var weekly, bench []models.Candle
	if swing {
		weekly, err = a.deps.candles(ctx, o.Symbol, o.Exchange, a.cfg.WeeklyBars, repository.TFWeek)
		errs.add(NameStructure+"."+string(repository.TFWeek), err)
		bench, err = a.deps.candles(ctx, a.cfg.Benchmark, a.cfg.BenchmarkExchange, relativeSessions+1, repository.TFDay)
		errs.add(NameStructure+".benchmark", err)
	}

	sc := NewStructureContext(StructureInput{
		Order:     o,
		Intraday:  intraday,
		Daily:     daily,
		Weekly:    weekly,
		Benchmark: bench,
		Sentiment: sentiment,
		Location:  a.loc,
	})
	return a.Run(sc), errs
}

// Run evaluates a prepared context.
func (a *StructureAgent) Run(sc StructureContext) models.AgentResult {
	return checks.Run(NameStructure, a.Registry(sc.Horizon), sc, a.deps.runOptions()...)
}
