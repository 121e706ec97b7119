package agents

import (
	"context"
	"fmt"
	"strings"

	"TradeGuard/internal/domain/models"
	"TradeGuard/internal/domain/repository"
	"TradeGuard/internal/services/checks"
	"TradeGuard/internal/services/indicators"
)

const (
	bigCandleATR    = 2.0
	wickRejectRatio = 0.6
	momentumCaution = 3
	momentumWarning = 5
	patternMinBars  = 3
)

// PatternContext holds the candles the pattern checks read.
type PatternContext struct {
	Order    models.Order
	Bias     models.Bias
	Horizon  models.Horizon
	Intraday []models.Candle
	Daily    []models.Candle
}

func NewPatternContext(o models.Order, intraday, daily []models.Candle) PatternContext {
	return PatternContext{
		Order:    o,
		Bias:     o.Bias(),
		Horizon:  o.Horizon(),
		Intraday: intraday,
		Daily:    daily,
	}
}

type candlePicker func(PatternContext) []models.Candle

func pickIntraday(c PatternContext) []models.Candle { return c.Intraday }
func pickDaily(c PatternContext) []models.Candle    { return c.Daily }

// candleChecks builds the shape checks over one candle series. The same set
// runs on intraday bars and, with a "daily_" prefix, on daily bars.
func candleChecks(prefix, label string, pick candlePicker) map[string]checks.Check[PatternContext] {
	id := func(s string) string { return prefix + s }
	title := func(s string) string {
		if label == "" {
			return strings.ToUpper(s[:1]) + s[1:]
		}
		return label + s
	}
	return map[string]checks.Check[PatternContext]{
		"candlestick_pattern": {
			ID:        id("candlestick_pattern"),
			PassLabel: title("candles do not oppose the trade"),
			Evaluate: func(c PatternContext) (*models.Finding, error) {
				cs := pick(c)
				if len(cs) < patternMinBars {
					return nil, nil
				}
				var against []string
				strong, doji := false, false
				for _, p := range DetectPatterns(cs) {
					if p.Direction == models.BiasNeutral {
						doji = true
						continue
					}
					if againstBias(c.Bias, p.Direction) {
						against = append(against, p.Name)
						strong = strong || p.Strong
					}
				}
				switch {
				case strong:
					return checks.Trigger(id("candlestick_pattern"), models.SeverityWarning, 15,
						title("strong reversal pattern against trade"), strings.Join(against, ", ")), nil
				case len(against) > 0:
					return checks.Trigger(id("candlestick_pattern"), models.SeverityCaution, 8,
						title("pattern against trade"), strings.Join(against, ", ")), nil
				case doji:
					return checks.Trigger(id("candlestick_pattern"), models.SeverityCaution, 5,
						title("indecision candle"), "doji on the last bar"), nil
				}
				return nil, nil
			},
		},
		"big_candle": {
			ID:        id("big_candle"),
			PassLabel: title("last bar within normal range"),
			Evaluate: func(c PatternContext) (*models.Finding, error) {
				cs := pick(c)
				atr, ok := indicators.ATR(cs, 14)
				if !ok || atr == 0 {
					return nil, nil
				}
				last := cs[len(cs)-1]
				if last.Range() <= bigCandleATR*atr {
					return nil, nil
				}
				dir := models.BiasBullish
				if last.IsBearish() {
					dir = models.BiasBearish
				}
				detail := fmt.Sprintf("range %.2f vs ATR %.2f", last.Range(), atr)
				if againstBias(c.Bias, dir) {
					return checks.Trigger(id("big_candle"), models.SeverityWarning, 12,
						title("large candle against trade"), detail), nil
				}
				return checks.Trigger(id("big_candle"), models.SeverityCaution, 6,
					title("chasing an extended candle"), detail), nil
			},
		},
		"wick_rejection": {
			ID:        id("wick_rejection"),
			PassLabel: title("no wick rejection against trade"),
			Evaluate: func(c PatternContext) (*models.Finding, error) {
				cs := pick(c)
				if len(cs) == 0 {
					return nil, nil
				}
				last := cs[len(cs)-1]
				r := last.Range()
				if r == 0 {
					return nil, nil
				}
				if c.Bias == models.BiasBullish && last.UpperWick() >= wickRejectRatio*r {
					return checks.Trigger(id("wick_rejection"), models.SeverityWarning, 10,
						title("selling wick"), fmt.Sprintf("upper wick %.0f%% of range", last.UpperWick()/r*100)), nil
				}
				if c.Bias == models.BiasBearish && last.LowerWick() >= wickRejectRatio*r {
					return checks.Trigger(id("wick_rejection"), models.SeverityWarning, 10,
						title("buying wick"), fmt.Sprintf("lower wick %.0f%% of range", last.LowerWick()/r*100)), nil
				}
				return nil, nil
			},
		},
		"momentum_against": {
			ID:        id("momentum_against"),
			PassLabel: title("momentum not against trade"),
			Evaluate: func(c PatternContext) (*models.Finding, error) {
				n := consecutiveAgainst(pick(c), c.Bias)
				switch {
				case n >= momentumWarning:
					return checks.Trigger(id("momentum_against"), models.SeverityWarning, 15,
						title("strong momentum against trade"), fmt.Sprintf("%d consecutive candles against", n)), nil
				case n >= momentumCaution:
					return checks.Trigger(id("momentum_against"), models.SeverityCaution, 8,
						title("momentum against trade"), fmt.Sprintf("%d consecutive candles against", n)), nil
				}
				return nil, nil
			},
		},
	}
}

func consecutiveAgainst(cs []models.Candle, bias models.Bias) int {
	n := 0
	for i := len(cs) - 1; i >= 0; i-- {
		c := cs[i]
		if (bias == models.BiasBullish && c.IsBearish()) || (bias == models.BiasBearish && c.IsBullish()) {
			n++
			continue
		}
		break
	}
	return n
}

var (
	intradayCandleChecks = candleChecks("", "", pickIntraday)
	dailyCandleChecks    = candleChecks("daily_", "Daily ", pickDaily)
)

var patternChecks = checks.NewRegistry(
	intradayCandleChecks["candlestick_pattern"],
	checks.Check[PatternContext]{
		ID:        "volume_signal",
		PassLabel: "Volume does not warn against the trade",
		Evaluate: func(c PatternContext) (*models.Finding, error) {
			switch sig := ClassifyVolume(c.Intraday, c.Bias); sig {
			case VolumeClimax:
				return checks.Trigger("volume_signal", models.SeverityWarning, 10,
					"Volume climax", "exhaustion volume on a wide bar"), nil
			case VolumeFakeout:
				return checks.Trigger("volume_signal", models.SeverityWarning, 12,
					"Breakout failed", "low-volume breakout closed back inside the range"), nil
			case VolumeDivergence:
				return checks.Trigger("volume_signal", models.SeverityWarning, 10,
					"Volume divergence", "new extreme on shrinking volume"), nil
			case VolumeChurn:
				return checks.Trigger("volume_signal", models.SeverityCaution, 6,
					"Churn", "heavy volume with little progress"), nil
			case VolumeWeakMove:
				return checks.Trigger("volume_signal", models.SeverityCaution, 5,
					"Weak move", "move in trade direction on light volume"), nil
			}
			return nil, nil
		},
	},
	intradayCandleChecks["big_candle"],
	checks.Check[PatternContext]{
		ID:        "inside_bar",
		PassLabel: "No inside bar",
		Evaluate: func(c PatternContext) (*models.Finding, error) {
			cs := c.Intraday
			if len(cs) < 2 {
				return nil, nil
			}
			last, prev := cs[len(cs)-1], cs[len(cs)-2]
			if last.High <= prev.High && last.Low >= prev.Low {
				return checks.Trigger("inside_bar", models.SeverityInfo, 3,
					"Inside bar", "range contraction, wait for the break"), nil
			}
			return nil, nil
		},
	},
	intradayCandleChecks["wick_rejection"],
	intradayCandleChecks["momentum_against"],
)

var patternSwingChecks = []checks.Check[PatternContext]{
	dailyCandleChecks["candlestick_pattern"],
	dailyCandleChecks["big_candle"],
	dailyCandleChecks["wick_rejection"],
	dailyCandleChecks["momentum_against"],
}

// PatternAgent reads price action on 15m bars, plus daily bars for swing trades.
type PatternAgent struct {
	deps Deps
	cfg  Config
}

func NewPatternAgent(deps Deps, cfg Config) *PatternAgent {
	return &PatternAgent{deps: deps, cfg: cfg}
}

func (a *PatternAgent) Registry(h models.Horizon) checks.Registry[PatternContext] {
	if h == models.HorizonSwing {
		return patternChecks.Extend(patternSwingChecks...)
	}
	return patternChecks
}

func (a *PatternAgent) Evaluate(ctx context.Context, o models.Order) (models.AgentResult, SourceErrors) {
	errs := SourceErrors{}
	intraday, err := a.deps.candles(ctx, o.Symbol, o.Exchange, a.cfg.IntradayBars, repository.TF15m)
	if err != nil || len(intraday) == 0 {
		errs.add(NamePattern+"."+string(repository.TF15m), err)
		return checks.Unavailable("15m candles unavailable"), errs
	}

	var daily []models.Candle
	if o.Horizon() == models.HorizonSwing {
		daily, err = a.deps.candles(ctx, o.Symbol, o.Exchange, a.cfg.DailyBars, repository.TFDay)
		errs.add(NamePattern+"."+string(repository.TFDay), err)
	}

	pc := NewPatternContext(o, intraday, daily)
	return a.Run(pc), errs
}

// Run evaluates a prepared context.
func (a *PatternAgent) Run(pc PatternContext) models.AgentResult {
	return checks.Run(NamePattern, a.Registry(pc.Horizon), pc, a.deps.runOptions()...)
}
