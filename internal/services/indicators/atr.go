package indicators

import (
	"math"

	"github.com/markcheno/go-talib"

	"TradeGuard/internal/domain/models"
)

// TrueRange of bar i. The first bar has no previous close and uses high-low.
func TrueRange(candles []models.Candle, i int) float64 {
	c := candles[i]
	hl := c.High - c.Low
	if i == 0 {
		return hl
	}
	pc := candles[i-1].Close
	return math.Max(hl, math.Max(math.Abs(c.High-pc), math.Abs(c.Low-pc)))
}

// trueRanges is TrueRange for every bar. talib leaves bar 0 empty, so it is
// filled with high-low.
func trueRanges(candles []models.Candle) []float64 {
	if len(candles) < 2 {
		out := make([]float64, len(candles))
		for i := range candles {
			out[i] = TrueRange(candles, i)
		}
		return out
	}
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		highs[i], lows[i] = c.High, c.Low
	}
	tr := talib.TRange(highs, lows, models.Closes(candles))
	tr[0] = candles[0].High - candles[0].Low
	return tr
}

// ATR is Wilder's average true range at the last bar, seeded by the mean of
// the first period true ranges including bar 0. talib.Atr seeds from bars
// 1..period instead, so only the true ranges come from talib.
func ATR(candles []models.Candle, period int) (float64, bool) {
	if period <= 0 || len(candles) < period {
		return 0, false
	}
	tr := trueRanges(candles)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	atr := sum / float64(period)

	p := float64(period)
	for i := period; i < len(tr); i++ {
		atr = (atr*(p-1) + tr[i]) / p
	}
	return atr, true
}
