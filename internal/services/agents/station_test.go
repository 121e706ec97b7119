package agents

import (
	"context"
	"testing"

	"TradeGuard/internal/domain/models"
	"TradeGuard/internal/domain/repository"
)

func stationFeed() *fakeFeed {
	return &fakeFeed{candles: map[repository.Timeframe][]models.Candle{
		repository.TF15m: vShape(),
		repository.TF60m: vShape(),
	}}
}

func checkByID(r models.AgentResult, id string) *models.CheckResult {
	for i := range r.Checks {
		if r.Checks[i].ID == id {
			return &r.Checks[i]
		}
	}
	return nil
}

func TestStationAgentBuyAtSupport(t *testing.T) {
	a := NewStationAgent(Deps{Feed: stationFeed()}, DefaultConfig())
	res, errs := a.Evaluate(context.Background(), order("BUY", "EQ", "MIS", 99.4))
	if res.Unavailable || len(errs) != 0 {
		t.Fatalf("unexpected %+v %v", res, errs)
	}
	d, ok := res.Details.(StationDetails)
	if !ok || d.Nearest == nil || d.Fit == nil {
		t.Fatalf("details missing: %+v", res.Details)
	}
	if d.Nearest.Type != models.StationSupport || !d.Fit.Suitable || d.Fit.RiskAdjustment >= 0 {
		t.Fatalf("buy near support should fit: %+v %+v", d.Nearest, d.Fit)
	}
	if c := checkByID(res, "zone_alignment"); c == nil || !c.Passed {
		t.Fatalf("zone alignment should pass: %+v", c)
	}
	if len(d.Stations) == 0 || d.State == "" {
		t.Fatalf("stations and state expected: %+v", d)
	}
}

func TestStationAgentSellIntoSupport(t *testing.T) {
	a := NewStationAgent(Deps{Feed: stationFeed()}, DefaultConfig())
	res, _ := a.Evaluate(context.Background(), order("SELL", "EQ", "MIS", 99.4))
	d := res.Details.(StationDetails)
	got := triggered(res, "zone_alignment")
	if got == nil || got.RiskScore != d.Nearest.Quality {
		t.Fatalf("selling into support should add the zone quality: %+v nearest %+v", got, d.Nearest)
	}
}

func TestStationAgentUnavailable(t *testing.T) {
	feed := &fakeFeed{fail: map[repository.Timeframe]bool{repository.TF15m: true}}
	res, errs := NewStationAgent(Deps{Feed: feed}, DefaultConfig()).Evaluate(context.Background(), order("BUY", "EQ", "MIS", 99.4))
	if !res.Unavailable || errs["station.15m"] == nil {
		t.Fatalf("expected unavailable with source error: %+v %v", res, errs)
	}
}

func TestStationSwingExtension(t *testing.T) {
	a := NewStationAgent(Deps{}, DefaultConfig())
	ids := a.Registry(models.HorizonSwing).IDs()
	if len(ids) != 6 || ids[4] != "daily_confluence" || ids[5] != "over_extension" {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestStationOverExtension(t *testing.T) {
	sc := StationContext{
		Order: order("BUY", "EQ", "CNC", 110),
		Bias:  models.BiasBullish,
		Price: 110,
		Stations: []models.Station{
			{Price: 100, Type: models.StationSupport, Quality: 5},
		},
	}
	f, _ := stationSwingChecks[1].Evaluate(sc)
	if f == nil || f.RiskScore != 10 {
		t.Fatalf("10%% above support should be over-extended: %+v", f)
	}
	sc.Price = 103
	if f, _ := stationSwingChecks[1].Evaluate(sc); f != nil {
		t.Fatalf("3%% above support is fine: %+v", f)
	}
}

func TestStationMap(t *testing.T) {
	a := NewStationAgent(Deps{Feed: stationFeed()}, DefaultConfig())
	m, err := a.Map(context.Background(), "INFY", "NSE", repository.TF15m, 100, 0)
	if err != nil || len(m.Stations) == 0 {
		t.Fatalf("expected stations: %+v %v", m, err)
	}
	if m.Price <= 0 || m.Nearest == nil {
		t.Fatalf("price should fall back to last close and a nearest zone exist: %+v", m)
	}
	for _, s := range m.Stations {
		if s.Timeframes[0] != "15m" {
			t.Fatalf("single timeframe map: %+v", s)
		}
	}
}
