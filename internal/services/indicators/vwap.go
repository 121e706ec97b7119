package indicators

import (
	"time"

	"TradeGuard/internal/domain/models"
)

// VWAP is the typical-price volume weighted average over the candles at or
// after sessionStart (unix seconds).
func VWAP(candles []models.Candle, sessionStart int64) (float64, bool) {
	pv, vol := 0.0, 0.0
	for _, c := range candles {
		if c.Time < sessionStart {
			continue
		}
		tp := (c.High + c.Low + c.Close) / 3.0
		pv += tp * c.Volume
		vol += c.Volume
	}
	if vol <= 0 {
		return 0, false
	}
	return pv / vol, true
}

// SessionStart returns midnight of the last candle's calendar day in loc.
func SessionStart(candles []models.Candle, loc *time.Location) int64 {
	if len(candles) == 0 {
		return 0
	}
	if loc == nil {
		loc = time.UTC
	}
	t := time.Unix(candles[len(candles)-1].Time, 0).In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc).Unix()
}

// SessionCandles filters candles to the session starting at sessionStart.
func SessionCandles(candles []models.Candle, sessionStart int64) []models.Candle {
	for i, c := range candles {
		if c.Time >= sessionStart {
			return candles[i:]
		}
	}
	return nil
}
