package agents

import (
	"context"
	"fmt"
	"math"

	"TradeGuard/internal/domain/models"
	"TradeGuard/internal/domain/repository"
	"TradeGuard/internal/services/checks"
	"TradeGuard/internal/services/indicators"
	"TradeGuard/internal/services/stations"
)

const (
	breakVolumeRatio = 1.2
	weakZoneQuality  = 3
	retestFatigue    = 5
	overExtendedPct  = 5.0
)

// StationDetails is attached to the station agent result.
type StationDetails struct {
	Stations []models.Station   `json:"stations"`
	Nearest  *models.Station    `json:"nearest,omitempty"`
	State    models.ZoneState   `json:"state,omitempty"`
	Fit      *models.StationFit `json:"fit,omitempty"`
}

// StationContext is the station map and the trade's relation to it.
type StationContext struct {
	Order   models.Order
	Bias    models.Bias
	Horizon models.Horizon
	Price   float64
	Config  stations.Config

	Intraday []models.Candle
	Stations []models.Station
	Nearest  *models.Station
	State    models.ZoneState
	Role     models.StationType
	Fit      models.StationFit

	Daily         []models.Candle
	DailyStations []models.Station
}

// StationInput is the raw data a StationContext is built from.
type StationInput struct {
	Order  models.Order
	M15    []models.Candle
	H1     []models.Candle
	Daily  []models.Candle
	Config stations.Config
}

// NewStationContext clusters the intraday series into stations and
// classifies the trade against the nearest one.
func NewStationContext(in StationInput) StationContext {
	cfg := in.Config.WithDefaults()
	c := StationContext{
		Order:    in.Order,
		Bias:     in.Order.Bias(),
		Horizon:  in.Order.Horizon(),
		Price:    referencePrice(in.Order, in.M15),
		Config:   cfg,
		Intraday: in.M15,
		Daily:    in.Daily,
		State:    models.ZoneApproaching,
		Fit:      models.StationFit{Suitable: true, Reason: "no station nearby"},
	}
	c.Stations = stations.Build([]stations.Series{
		{Timeframe: string(repository.TF15m), Candles: in.M15},
		{Timeframe: string(repository.TF60m), Candles: in.H1},
	}, c.Price, cfg)

	if near, ok := stations.Nearest(c.Stations, c.Price); ok {
		c.Nearest = &near
		c.State = stations.ClassifyZone(in.M15, near, cfg.ZoneTolerancePct)
		c.Role = stations.EffectiveType(near, c.State)
		eff := near
		eff.Type = c.Role
		c.Fit = stations.EvaluateFit(eff, c.Bias, c.Price, cfg.FitProximityPct)
	}

	if len(in.Daily) > 0 {
		c.DailyStations = stations.Build([]stations.Series{
			{Timeframe: string(repository.TFDay), Candles: in.Daily},
		}, c.Price, cfg)
	}
	return c
}

// Details is the agent-specific payload for the API.
func (c StationContext) Details() StationDetails {
	d := StationDetails{Stations: c.Stations, Nearest: c.Nearest}
	if c.Nearest != nil {
		fit := c.Fit
		d.State = c.State
		d.Fit = &fit
	}
	if d.Stations == nil {
		d.Stations = []models.Station{}
	}
	return d
}

func (c StationContext) opposing(t models.StationType) bool {
	return (c.Bias == models.BiasBullish && t == models.StationResistance) ||
		(c.Bias == models.BiasBearish && t == models.StationSupport)
}

var stationChecks = checks.NewRegistry(
	checks.Check[StationContext]{
		ID:        "zone_alignment",
		PassLabel: "Trade direction fits the nearest zone",
		Evaluate: func(c StationContext) (*models.Finding, error) {
			if c.Nearest == nil || c.Fit.Suitable {
				return nil, nil
			}
			return checks.Trigger("zone_alignment", models.SeverityWarning, c.Fit.RiskAdjustment,
				"Trading into an opposing zone", c.Fit.Reason), nil
		},
	},
	checks.Check[StationContext]{
		ID:        "scenario",
		PassLabel: "Zone interaction is clean",
		Evaluate: func(c StationContext) (*models.Finding, error) {
			if c.Nearest == nil {
				return nil, nil
			}
			switch c.State {
			case models.ZoneInside:
				return checks.Trigger("scenario", models.SeverityCaution, 8,
					"Price chopping inside a zone",
					fmt.Sprintf("zone %.2f has contained most recent bars", c.Nearest.Price)), nil
			case models.ZoneRejection:
				if c.opposing(c.Role) {
					return checks.Trigger("scenario", models.SeverityWarning, 12,
						"Rejection from opposing zone",
						fmt.Sprintf("%s %.2f is rejecting price", c.Role, c.Nearest.Price)), nil
				}
			}
			return nil, nil
		},
	},
	checks.Check[StationContext]{
		ID:        "break_volume",
		PassLabel: "Breakout backed by volume",
		Evaluate: func(c StationContext) (*models.Finding, error) {
			if c.Nearest == nil || c.State != models.ZoneBreakRetest {
				return nil, nil
			}
			i := stations.BreakIndex(c.Intraday, c.Nearest.Price, c.Config.ZoneTolerancePct)
			if i < 0 {
				return nil, nil
			}
			ratio, ok := indicators.VolumeRatio(c.Intraday[:i+1], volumeAvgBars)
			if !ok || ratio >= breakVolumeRatio {
				return nil, nil
			}
			return checks.Trigger("break_volume", models.SeverityCaution, 8,
				"Breakout on thin volume",
				fmt.Sprintf("break bar volume %.2fx average", ratio)), nil
		},
	},
	checks.Check[StationContext]{
		ID:        "zone_quality",
		PassLabel: "Zone is reliable",
		Evaluate: func(c StationContext) (*models.Finding, error) {
			if c.Nearest == nil || c.Fit.RiskAdjustment >= 0 {
				return nil, nil
			}
			if c.Nearest.Tests >= retestFatigue {
				return checks.Trigger("zone_quality", models.SeverityCaution, 8,
					"Zone retest fatigue",
					fmt.Sprintf("%.2f tested %d times", c.Nearest.Price, c.Nearest.Tests)), nil
			}
			if c.Nearest.Quality <= weakZoneQuality {
				return checks.Trigger("zone_quality", models.SeverityCaution, 5,
					"Weak zone", fmt.Sprintf("quality %d/10", c.Nearest.Quality)), nil
			}
			return nil, nil
		},
	},
)

var stationSwingChecks = []checks.Check[StationContext]{
	{
		ID:        "daily_confluence",
		PassLabel: "No opposing daily zone nearby",
		Evaluate: func(c StationContext) (*models.Finding, error) {
			near, ok := stations.Nearest(c.DailyStations, c.Price)
			if !ok || !c.opposing(near.Type) {
				return nil, nil
			}
			if math.Abs(c.Price-near.Price)/near.Price*100 > c.Config.FitProximityPct {
				return nil, nil
			}
			return checks.Trigger("daily_confluence", models.SeverityWarning, 10,
				"Opposing daily zone",
				fmt.Sprintf("daily %s at %.2f (quality %d)", near.Type, near.Price, near.Quality)), nil
		},
	},
	{
		ID:        "over_extension",
		PassLabel: "Entry close to a supportive zone",
		Evaluate: func(c StationContext) (*models.Finding, error) {
			all := append(append([]models.Station(nil), c.Stations...), c.DailyStations...)
			best := math.Inf(1)
			for _, s := range all {
				switch {
				case c.Bias == models.BiasBullish && s.Type == models.StationSupport && s.Price <= c.Price:
					best = math.Min(best, (c.Price-s.Price)/s.Price*100)
				case c.Bias == models.BiasBearish && s.Type == models.StationResistance && s.Price >= c.Price:
					best = math.Min(best, (s.Price-c.Price)/s.Price*100)
				}
			}
			if math.IsInf(best, 1) || best <= overExtendedPct {
				return nil, nil
			}
			return checks.Trigger("over_extension", models.SeverityCaution, 10,
				"Extended from supportive zone",
				fmt.Sprintf("%.2f%% from the nearest supportive zone", best)), nil
		},
	},
}

// StationAgent maps support/resistance zones and judges the entry against them.
type StationAgent struct {
	deps Deps
	cfg  Config
}

func NewStationAgent(deps Deps, cfg Config) *StationAgent {
	return &StationAgent{deps: deps, cfg: cfg}
}

func (a *StationAgent) Registry(h models.Horizon) checks.Registry[StationContext] {
	if h == models.HorizonSwing {
		return stationChecks.Extend(stationSwingChecks...)
	}
	return stationChecks
}

func (a *StationAgent) Evaluate(ctx context.Context, o models.Order) (models.AgentResult, SourceErrors) {
	errs := SourceErrors{}
	m15, err := a.deps.candles(ctx, o.Symbol, o.Exchange, a.cfg.StationBars, repository.TF15m)
	if err != nil || len(m15) == 0 {
		errs.add(NameStation+"."+string(repository.TF15m), err)
		return checks.Unavailable("15m candles unavailable"), errs
	}
	h1, err := a.deps.candles(ctx, o.Symbol, o.Exchange, a.cfg.StationBars, repository.TF60m)
	errs.add(NameStation+"."+string(repository.TF60m), err)

	var daily []models.Candle
	if o.Horizon() == models.HorizonSwing {
		daily, err = a.deps.candles(ctx, o.Symbol, o.Exchange, a.cfg.DailyBars, repository.TFDay)
		errs.add(NameStation+"."+string(repository.TFDay), err)
	}

	sc := NewStationContext(StationInput{Order: o, M15: m15, H1: h1, Daily: daily, Config: a.cfg.Stations})
	return a.Run(sc), errs
}

// Run evaluates a prepared context and attaches the station map.
func (a *StationAgent) Run(sc StationContext) models.AgentResult {
	res := checks.Run(NameStation, a.Registry(sc.Horizon), sc, a.deps.runOptions()...)
	res.Details = sc.Details()
	return res
}

// StationMap is the zone map of one symbol and timeframe.
type StationMap struct {
	Symbol    string           `json:"symbol"`
	Timeframe string           `json:"timeframe"`
	Price     float64          `json:"price"`
	Stations  []models.Station `json:"stations"`
	Nearest   *models.Station  `json:"nearest"`
}

// Map builds stations from a single series without scoring an order. A
// non-positive price falls back to the last close.
func (a *StationAgent) Map(ctx context.Context, symbol, exchange string, tf repository.Timeframe, n int, price float64) (*StationMap, error) {
	cs, err := a.deps.candles(ctx, symbol, exchange, n, tf)
	if err != nil {
		return nil, err
	}
	if price <= 0 {
		price = lastClose(cs)
	}
	out := &StationMap{Symbol: symbol, Timeframe: string(tf), Price: price, Stations: []models.Station{}}
	if sts := stations.Build([]stations.Series{{Timeframe: string(tf), Candles: cs}}, price, a.cfg.Stations); sts != nil {
		out.Stations = sts
	}
	if st, ok := stations.Nearest(out.Stations, price); ok {
		out.Nearest = &st
	}
	return out, nil
}
