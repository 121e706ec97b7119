package agents

import (
	"context"
	"testing"

	"TradeGuard/internal/domain/models"
	"TradeGuard/internal/domain/repository"
)

func names(ps []CandlePattern) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func TestDetectPatterns(t *testing.T) {
	falling := func(last models.Candle) []models.Candle {
		var cs []models.Candle
		for i, c := range []float64{110, 108, 106, 104, 102} {
			cs = append(cs, models.Candle{Time: int64(i), Open: c + 1, High: c + 1.2, Low: c - 0.2, Close: c})
		}
		return append(cs, last)
	}

	cases := []struct {
		name string
		cs   []models.Candle
		want string
	}{
		{"doji", []models.Candle{{Open: 100, High: 101, Low: 99, Close: 100.05}}, "doji"},
		{"bullish engulfing", []models.Candle{
			{Open: 101, High: 101.2, Low: 99.9, Close: 100},
			{Open: 99.8, High: 101.6, Low: 99.7, Close: 101.5},
		}, "bullish_engulfing"},
		{"hammer after decline", falling(models.Candle{Open: 100, High: 100.55, Low: 98.5, Close: 100.5}), "hammer"},
		{"three black crows", []models.Candle{
			{Open: 110, High: 110.2, Low: 107.8, Close: 108},
			{Open: 109, High: 109.2, Low: 106.8, Close: 107},
			{Open: 108, High: 108.2, Low: 105.8, Close: 106},
		}, "three_black_crows"},
	}
	for _, tc := range cases {
		got := DetectPatterns(tc.cs)
		if len(got) != 1 || got[0].Name != tc.want {
			t.Fatalf("%s: want [%s], got %v", tc.name, tc.want, names(got))
		}
	}
}

func TestCandlestickPatternAgainstTrade(t *testing.T) {
	crows := []models.Candle{
		{Open: 110, High: 110.2, Low: 107.8, Close: 108},
		{Open: 109, High: 109.2, Low: 106.8, Close: 107},
		{Open: 108, High: 108.2, Low: 105.8, Close: 106},
	}
	buy := NewPatternContext(order("BUY", "EQ", "MIS", 106), crows, nil)
	f, err := intradayCandleChecks["candlestick_pattern"].Evaluate(buy)
	if err != nil || f == nil || f.RiskScore != 15 {
		t.Fatalf("crows against a buyer should score 15: %+v %v", f, err)
	}
	sell := NewPatternContext(order("SELL", "EQ", "MIS", 106), crows, nil)
	if f, _ := intradayCandleChecks["candlestick_pattern"].Evaluate(sell); f != nil {
		t.Fatalf("crows agree with a seller: %+v", f)
	}
}

func TestMomentumAgainst(t *testing.T) {
	var cs []models.Candle
	for i := 0; i < 5; i++ {
		c := 100 - float64(i)
		cs = append(cs, models.Candle{Open: c + 0.8, High: c + 1, Low: c - 0.2, Close: c})
	}
	check := intradayCandleChecks["momentum_against"]
	f, _ := check.Evaluate(NewPatternContext(order("BUY", "EQ", "MIS", 96), cs, nil))
	if f == nil || f.RiskScore != 15 {
		t.Fatalf("5 bars against should score 15: %+v", f)
	}
	f, _ = check.Evaluate(NewPatternContext(order("BUY", "EQ", "MIS", 96), cs[2:], nil))
	if f == nil || f.RiskScore != 8 {
		t.Fatalf("3 bars against should score 8: %+v", f)
	}
}

func flatVolume(n int, last models.Candle) []models.Candle {
	cs := make([]models.Candle, 0, n+1)
	for i := 0; i < n; i++ {
		cs = append(cs, models.Candle{Time: int64(i), Open: 99.9, High: 100.1, Low: 99.8, Close: 100, Volume: 1000})
	}
	return append(cs, last)
}

func TestClassifyVolume(t *testing.T) {
	cases := []struct {
		name string
		last models.Candle
		want VolumeSignal
	}{
		{"weak move", models.Candle{Open: 99.9, High: 100, Low: 99.85, Close: 99.95, Volume: 500}, VolumeWeakMove},
		{"churn", models.Candle{Open: 100, High: 100.5, Low: 99.5, Close: 100.02, Volume: 2500}, VolumeChurn},
		{"climax", models.Candle{Open: 100, High: 103, Low: 100, Close: 102.8, Volume: 4000}, VolumeClimax},
		{"quiet", models.Candle{Open: 100, High: 100.1, Low: 99.9, Close: 99.95, Volume: 1000}, VolumeNone},
	}
	for _, tc := range cases {
		if got := ClassifyVolume(flatVolume(25, tc.last), models.BiasBullish); got != tc.want {
			t.Fatalf("%s: want %q got %q", tc.name, tc.want, got)
		}
	}
	if got := ClassifyVolume(flatVolume(5, models.Candle{}), models.BiasBullish); got != VolumeNone {
		t.Fatalf("short history should be none")
	}
}

func TestInsideBar(t *testing.T) {
	cs := []models.Candle{
		{Open: 100, High: 102, Low: 98, Close: 101},
		{Open: 100.5, High: 101, Low: 99.5, Close: 100.8},
	}
	res := NewPatternAgent(Deps{}, DefaultConfig()).Run(NewPatternContext(order("BUY", "EQ", "MIS", 100.8), cs, nil))
	got := triggered(res, "inside_bar")
	if got == nil || got.Severity != models.SeverityInfo || got.RiskScore != 3 {
		t.Fatalf("inside bar should be info/3: %+v", got)
	}
}

func TestPatternSwingRegistry(t *testing.T) {
	a := NewPatternAgent(Deps{}, DefaultConfig())
	ids := a.Registry(models.HorizonSwing).IDs()
	if len(ids) != 10 || ids[6] != "daily_candlestick_pattern" || ids[9] != "daily_momentum_against" {
		t.Fatalf("unexpected swing ids %v", ids)
	}
	if a.Registry(models.HorizonIntraday).Len() != 6 {
		t.Fatalf("intraday registry should have 6 checks")
	}
}

func TestPatternAgentFetchesDailyForSwing(t *testing.T) {
	feed := &fakeFeed{candles: map[repository.Timeframe][]models.Candle{
		repository.TF15m: vShape(),
		repository.TFDay: vShape(),
	}}
	a := NewPatternAgent(Deps{Feed: feed}, DefaultConfig())
	res, errs := a.Evaluate(context.Background(), order("BUY", "EQ", "CNC", 99.4))
	if res.Unavailable || len(errs) != 0 {
		t.Fatalf("unexpected %+v %v", res, errs)
	}
	if len(res.Checks) != 10 {
		t.Fatalf("swing run should report 10 checks, got %d", len(res.Checks))
	}
	if len(feed.calls) != 2 || feed.calls[1] != repository.TFDay {
		t.Fatalf("expected 15m then day fetch, got %v", feed.calls)
	}
}
