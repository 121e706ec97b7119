package stations

import (
	"fmt"
	"math"
	"sort"

	"TradeGuard/internal/domain/models"
	"TradeGuard/internal/services/indicators"
)

// Level is a single price reference before clustering.
type Level struct {
	Price     float64
	Type      models.StationType
	Strength  int
	Label     string
	Timeframe string
	Tests     int
}

// Series is one timeframe's candles fed into Build.
type Series struct {
	Timeframe string
	Candles   []models.Candle
}

var emaLevels = []struct {
	period   int
	strength int
}{
	{9, 1},
	{21, 2},
	{50, 3},
	{200, 4},
}

// EMALevels admits EMA 9/21/50/200 values lying within proximityPct of ref.
// Moving averages are treated as dynamic support.
func EMALevels(candles []models.Candle, timeframe string, ref, proximityPct float64) []Level {
	if ref <= 0 {
		return nil
	}
	var out []Level
	for _, e := range emaLevels {
		v, ok := indicators.EMA(candles, e.period)
		if !ok || math.Abs(v-ref)/ref*100 > proximityPct {
			continue
		}
		out = append(out, Level{
			Price:     v,
			Type:      models.StationSupport,
			Strength:  e.strength,
			Label:     fmt.Sprintf("EMA%d(%s)", e.period, timeframe),
			Timeframe: timeframe,
		})
	}
	return out
}

// SwingLevels turns swing lows into support and swing highs into resistance,
// weighting each by how often it has been tested.
func SwingLevels(candles []models.Candle, timeframe string, cfg Config) []Level {
	cfg = cfg.WithDefaults()
	highs, lows := FindSwings(candles, cfg.Lookback, cfg.MinRetracePct)

	out := make([]Level, 0, len(highs)+len(lows))
	add := func(s Swing, typ models.StationType, label string) {
		tests := CountTests(candles, s.Price, cfg.TestTolerancePct, cfg.MinTestGap)
		out = append(out, Level{
			Price:     s.Price,
			Type:      typ,
			Strength:  2 + minInt(tests, 3),
			Label:     fmt.Sprintf("%s(%s)", label, timeframe),
			Timeframe: timeframe,
			Tests:     tests,
		})
	}
	for _, s := range lows {
		add(s, models.StationSupport, "SwingLow")
	}
	for _, s := range highs {
		add(s, models.StationResistance, "SwingHigh")
	}
	return out
}

// Cluster sorts levels by price and merges neighbours in one pass: a level
// starts a new cluster when its gap to the previous level exceeds gapPct.
func Cluster(levels []Level, gapPct float64) [][]Level {
	if len(levels) == 0 {
		return nil
	}
	sorted := make([]Level, len(levels))
	copy(sorted, levels)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })

	var clusters [][]Level
	cur := []Level{sorted[0]}
	for _, l := range sorted[1:] {
		prev := cur[len(cur)-1].Price
		if prev > 0 && (l.Price-prev)/prev*100 > gapPct {
			clusters = append(clusters, cur)
			cur = []Level{l}
			continue
		}
		cur = append(cur, l)
	}
	return append(clusters, cur)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
