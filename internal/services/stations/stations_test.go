package stations

import (
	"math"
	"testing"

	"TradeGuard/internal/domain/models"
)

func bar(t int64, o, h, l, c float64) models.Candle {
	return models.Candle{Time: t, Open: o, High: h, Low: l, Close: c, Volume: 1000}
}

// vShape falls 103 -> 99, rallies to 103, then falls back to 99.4.
func vShape() []models.Candle {
	var closes []float64
	for i := 0; i <= 10; i++ {
		closes = append(closes, 103-0.4*float64(i))
	}
	for i := 1; i <= 10; i++ {
		closes = append(closes, 99+0.4*float64(i))
	}
	for i := 1; i <= 9; i++ {
		closes = append(closes, 103-0.4*float64(i))
	}
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = bar(int64(i)*900, c, c+0.5, c-0.5, c)
	}
	return out
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.Lookback != 3 || c.MinRetracePct != 1.0 || c.TestTolerancePct != 0.3 ||
		c.MinTestGap != 3 || c.EMAProximityPct != 2.0 || c.ClusterGapPct != 0.5 {
		t.Fatalf("unexpected defaults %+v", c)
	}
}

func TestFindSwings(t *testing.T) {
	cs := vShape()
	highs, lows := FindSwings(cs, 3, 1.0)
	if len(lows) != 1 || lows[0].Index != 10 || math.Abs(lows[0].Price-98.5) > 1e-9 {
		t.Fatalf("expected one swing low at 10, got %+v", lows)
	}
	if len(highs) != 1 || highs[0].Index != 20 {
		t.Fatalf("expected one swing high at 20, got %+v", highs)
	}
}

func TestFindSwingsRequiresStrictExtreme(t *testing.T) {
	cs := []models.Candle{
		bar(0, 100, 101, 99, 100),
		bar(1, 100, 105, 99, 100),
		bar(2, 100, 105, 99, 100),
		bar(3, 100, 101, 99, 100),
	}
	highs, _ := FindSwings(cs, 1, 0)
	if len(highs) != 0 {
		t.Fatalf("equal highs must not form a swing, got %+v", highs)
	}
}

func TestFindSwingsRetraceFilter(t *testing.T) {
	cs := []models.Candle{
		bar(0, 100, 100.2, 99.9, 100),
		bar(1, 100, 100.4, 99.9, 100),
		bar(2, 100, 100.2, 99.9, 100),
	}
	highs, _ := FindSwings(cs, 1, 1.0)
	if len(highs) != 0 {
		t.Fatalf("shallow swing should be filtered, got %+v", highs)
	}
	highs, _ = FindSwings(cs, 1, 0.1)
	if len(highs) != 1 {
		t.Fatalf("swing should pass a lower threshold")
	}
}

func TestCountTestsMinGap(t *testing.T) {
	cs := []models.Candle{
		bar(0, 101, 102, 100.1, 101),
		bar(1, 101, 102, 100.2, 101),
		bar(2, 103, 104, 102, 103),
		bar(3, 103, 104, 102, 103),
		bar(4, 103, 104, 102, 103),
		bar(5, 101, 101.5, 99, 100.5),
	}
	if n := CountTests(cs, 100, 0.3, 3); n != 2 {
		t.Fatalf("expected 2 tests, got %d", n)
	}
	if n := CountTests(cs, 100, 0.3, 1); n != 3 {
		t.Fatalf("expected 3 tests without gap, got %d", n)
	}
}

func TestClusterContiguity(t *testing.T) {
	levels := []Level{
		{Price: 102.2, Type: models.StationResistance, Strength: 1},
		{Price: 100, Type: models.StationSupport, Strength: 1},
		{Price: 102, Type: models.StationResistance, Strength: 1},
		{Price: 100.3, Type: models.StationSupport, Strength: 1},
	}
	clusters := Cluster(levels, 0.5)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	if clusters[0][0].Price != 100 || clusters[0][1].Price != 100.3 {
		t.Fatalf("first cluster wrong: %+v", clusters[0])
	}
	if clusters[1][0].Price != 102 || clusters[1][1].Price != 102.2 {
		t.Fatalf("second cluster wrong: %+v", clusters[1])
	}
	if levels[0].Price != 102.2 {
		t.Fatalf("input must not be reordered")
	}
}

func TestStationFromMajorityAndWeights(t *testing.T) {
	st := stationFrom([]Level{
		{Price: 100, Type: models.StationSupport, Strength: 3, Label: "a", Timeframe: "60m", Tests: 2},
		{Price: 101, Type: models.StationResistance, Strength: 1, Label: "b", Timeframe: "15m", Tests: 1},
	}, 100)
	if st.Type != models.StationPivot {
		t.Fatalf("tie should be PIVOT, got %s", st.Type)
	}
	if math.Abs(st.Price-100.25) > 1e-9 {
		t.Fatalf("weighted price: want 100.25 got %v", st.Price)
	}
	if st.Timeframes[0] != "15m" || st.Timeframes[1] != "60m" {
		t.Fatalf("timeframes should be sorted: %v", st.Timeframes)
	}
	if st.Tests != 2 || st.Quality != 2+2+1 {
		t.Fatalf("tests/quality: %+v", st)
	}
	if st.Distance != 0.25 {
		t.Fatalf("distance: %v", st.Distance)
	}
}

func TestStationTestBonusUsesMaxMemberTests(t *testing.T) {
	st := stationFrom([]Level{
		{Price: 100, Type: models.StationSupport, Strength: 5, Label: "SwingLow(15m)", Timeframe: "15m", Tests: 3},
		{Price: 100.1, Type: models.StationSupport, Strength: 5, Label: "SwingLow(60m)", Timeframe: "60m", Tests: 3},
	}, 100)
	if st.Tests != 3 {
		t.Fatalf("tests should be the member maximum, got %d", st.Tests)
	}
	if st.Quality != 2+2+2 {
		t.Fatalf("quality: want 6 got %d", st.Quality)
	}
}

func TestQualityBounds(t *testing.T) {
	if q := Quality(6, 4, 7); q != 10 {
		t.Fatalf("want 10, got %d", q)
	}
	if q := Quality(1, 1, 0); q != 2 {
		t.Fatalf("want 2, got %d", q)
	}
}

func TestDistanceRounding(t *testing.T) {
	if d := Distance(98.5, 99.4); d != -0.91 {
		t.Fatalf("want -0.91, got %v", d)
	}
	if d := Distance(1, 0); d != 0 {
		t.Fatalf("zero ref should give 0")
	}
}

func TestBuildAndFitBuyAtSupport(t *testing.T) {
	cs := vShape()
	ref := cs[len(cs)-1].Close
	sts := Build([]Series{{Timeframe: "15m", Candles: cs}}, ref, DefaultConfig())
	if len(sts) == 0 {
		t.Fatalf("expected stations")
	}
	for i := 1; i < len(sts); i++ {
		if sts[i].Price < sts[i-1].Price {
			t.Fatalf("stations must be sorted by price")
		}
	}

	var swingLow *models.Station
	for i := range sts {
		if sts[i].Quality < 0 || sts[i].Quality > 10 {
			t.Fatalf("quality out of range: %+v", sts[i])
		}
		for _, f := range sts[i].Factors {
			if f == "SwingLow(15m)" {
				swingLow = &sts[i]
			}
		}
	}
	if swingLow == nil {
		t.Fatalf("swing low station missing: %+v", sts)
	}
	if swingLow.Type != models.StationSupport || swingLow.Quality != 3 || swingLow.Distance != -0.91 {
		t.Fatalf("unexpected swing low station %+v", *swingLow)
	}

	near, ok := Nearest(sts, ref)
	if !ok || near.Type != models.StationSupport {
		t.Fatalf("nearest should be support, got %+v", near)
	}
	fit := EvaluateFit(near, models.BiasBullish, ref, 1.0)
	if !fit.Suitable || fit.RiskAdjustment >= 0 {
		t.Fatalf("buy at support should be suitable with negative adjustment: %+v", fit)
	}
}

// tripleTestedSupport is 220 bars: a wave far above 100, two V bottoms whose
// lows sit exactly on 100, and a final leg closing at 100.2. The level is
// touched three times.
func tripleTestedSupport() []models.Candle {
	var closes []float64
	for i := 0; i < 119; i++ {
		closes = append(closes, 115+3*math.Sin(float64(i)/4))
	}
	leg := func(from, to int, base float64) {
		step := 1
		if to < from {
			step = -1
		}
		for k := from; k != to+step; k += step {
			closes = append(closes, base+0.5*float64(k))
		}
	}
	leg(20, 0, 100.3)
	leg(1, 20, 100.3)
	leg(19, 0, 100.3)
	leg(1, 20, 100.3)
	leg(19, 0, 100.2)

	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = bar(int64(i)*900, c, c+0.3, c-0.3, c)
	}
	return out
}

func TestBuildTripleTestedSupportAcrossTimeframes(t *testing.T) {
	cs := tripleTestedSupport()
	if len(cs) != 220 {
		t.Fatalf("fixture length %d", len(cs))
	}
	ref := cs[len(cs)-1].Close
	sts := Build([]Series{{Timeframe: "15m", Candles: cs}, {Timeframe: "60m", Candles: cs}}, ref, DefaultConfig())

	near, ok := Nearest(sts, ref)
	if !ok {
		t.Fatalf("expected stations")
	}
	if math.Abs(near.Price-ref)/ref*100 > 0.3 {
		t.Fatalf("nearest station should be within 0.3%% of %v: %+v", ref, near)
	}
	if near.Type != models.StationSupport || near.Tests != 3 || len(near.Timeframes) != 2 {
		t.Fatalf("unexpected station %+v", near)
	}
	m := len(near.Factors)
	if want := minInt(4, m) + 2 + 2; near.Quality != want {
		t.Fatalf("quality: want min(4,%d)+2+2=%d got %d", m, want, near.Quality)
	}
	if near.Quality != 8 {
		t.Fatalf("two swing lows per timeframe should score 8, got %+v", near)
	}

	fit := EvaluateFit(near, models.BiasBullish, ref, DefaultConfig().FitProximityPct)
	if !fit.Suitable || fit.RiskAdjustment >= 0 {
		t.Fatalf("buy at support should be suitable with negative adjustment: %+v", fit)
	}
}

func TestBuildMultiTimeframe(t *testing.T) {
	cs := vShape()
	sts := Build([]Series{{Timeframe: "60m", Candles: cs}, {Timeframe: "15m", Candles: cs}}, 99.4, DefaultConfig())
	for _, st := range sts {
		for _, f := range st.Factors {
			if f == "SwingLow(15m)" {
				if len(st.Timeframes) != 2 || st.Timeframes[0] != "15m" {
					t.Fatalf("expected both timeframes: %+v", st)
				}
				return
			}
		}
	}
	t.Fatalf("swing low station missing")
}

func TestBuildEmpty(t *testing.T) {
	if sts := Build(nil, 100, Config{}); len(sts) != 0 {
		t.Fatalf("expected no stations")
	}
	if _, ok := Nearest(nil, 100); ok {
		t.Fatalf("nearest of nothing")
	}
}

func TestEvaluateFit(t *testing.T) {
	res := models.Station{Price: 100, Type: models.StationResistance, Quality: 6}
	if f := EvaluateFit(res, models.BiasBullish, 99.8, 1); f.Suitable || f.RiskAdjustment != 6 {
		t.Fatalf("buy into resistance: %+v", f)
	}
	if f := EvaluateFit(res, models.BiasBearish, 99.8, 1); !f.Suitable || f.RiskAdjustment != -3 {
		t.Fatalf("sell at resistance: %+v", f)
	}
	weak := models.Station{Price: 100, Type: models.StationSupport, Quality: 1}
	if f := EvaluateFit(weak, models.BiasBullish, 100, 1); f.RiskAdjustment != -1 {
		t.Fatalf("adjustment floor is -1: %+v", f)
	}
	if f := EvaluateFit(res, models.BiasBullish, 95, 1); !f.Suitable || f.RiskAdjustment != 0 {
		t.Fatalf("far zone should be neutral: %+v", f)
	}
	pivot := models.Station{Price: 100, Type: models.StationPivot, Quality: 8}
	if f := EvaluateFit(pivot, models.BiasBearish, 100, 1); !f.Suitable || f.RiskAdjustment != 0 {
		t.Fatalf("pivot should be neutral: %+v", f)
	}
}

func TestClassifyZone(t *testing.T) {
	st := models.Station{Price: 100, Type: models.StationSupport}
	above := func(n int) []models.Candle {
		out := make([]models.Candle, n)
		for i := range out {
			out[i] = bar(int64(i), 101, 101.3, 100.8, 101)
		}
		return out
	}

	cases := []struct {
		name string
		cs   []models.Candle
		want models.ZoneState
	}{
		{"approaching", append(above(5), bar(5, 103, 103.3, 102.8, 103)), models.ZoneApproaching},
		{"at zone", append(above(5), bar(5, 100.2, 100.45, 100.15, 100.4)), models.ZoneAtZone},
		{"rejection", append(above(5), bar(5, 100.4, 100.5, 100.05, 100.45)), models.ZoneRejection},
		{"break retest", []models.Candle{
			bar(0, 98, 98.3, 97.8, 98),
			bar(1, 98, 98.3, 97.8, 98),
			bar(2, 99, 99.3, 98.8, 99),
			bar(3, 101.5, 101.8, 101.3, 101.5),
			bar(4, 102, 102.3, 101.8, 102),
			bar(5, 102.5, 102.8, 102.3, 102.5),
			bar(6, 101, 101.3, 100.8, 101),
			bar(7, 100.3, 100.6, 100.1, 100.3),
		}, models.ZoneBreakRetest},
		{"inside beats rejection", []models.Candle{
			bar(0, 100, 100.5, 99.5, 100),
			bar(1, 100, 100.5, 99.5, 100),
			bar(2, 101, 101.3, 100.8, 101),
			bar(3, 100, 100.5, 99.5, 100),
			bar(4, 100.4, 100.5, 99.9, 100.45),
		}, models.ZoneInside},
	}
	for _, tc := range cases {
		if got := ClassifyZone(tc.cs, st, 0.5); got != tc.want {
			t.Fatalf("%s: want %s got %s", tc.name, tc.want, got)
		}
	}
}

func TestClassifyZoneInsideBeatsBreakRetest(t *testing.T) {
	st := models.Station{Price: 100, Type: models.StationResistance}
	cs := []models.Candle{
		bar(0, 98, 98.3, 97.8, 98),
		bar(1, 98.5, 98.8, 98.3, 98.5),
		bar(2, 99, 99.3, 98.8, 99),
		bar(3, 101.5, 101.8, 101.3, 101.5),
		bar(4, 101, 101.3, 100.8, 101),
		bar(5, 100.2, 100.5, 99.7, 100.2),
		bar(6, 100.1, 100.4, 99.8, 100.1),
		bar(7, 100.2, 100.5, 99.7, 100.2),
	}
	if i := BreakIndex(cs, st.Price, 0.5); i != 3 {
		t.Fatalf("fixture should also qualify as a break at 3, got %d", i)
	}
	if got := ClassifyZone(cs, st, 0.5); got != models.ZoneInside {
		t.Fatalf("want %s got %s", models.ZoneInside, got)
	}
}

func TestEffectiveTypeFlip(t *testing.T) {
	st := models.Station{Type: models.StationResistance}
	if EffectiveType(st, models.ZoneBreakRetest) != models.StationSupport {
		t.Fatalf("broken resistance should act as support")
	}
	if EffectiveType(st, models.ZoneAtZone) != models.StationResistance {
		t.Fatalf("no flip outside break-retest")
	}
}
