package stations

import (
	"math"

	"TradeGuard/internal/domain/models"
)

// Swing is a confirmed local extreme.
type Swing struct {
	Index int     `json:"index"`
	Price float64 `json:"price"`
	Time  int64   `json:"time"`
}

// FindSwings scans for bars whose high (low) strictly exceeds (undercuts)
// every other bar within lookback on both sides. A swing is kept only if the
// opposite extreme of the window retraces more than minRetracePct from it.
func FindSwings(candles []models.Candle, lookback int, minRetracePct float64) (highs, lows []Swing) {
	if lookback <= 0 || len(candles) < 2*lookback+1 {
		return nil, nil
	}

	for i := lookback; i < len(candles)-lookback; i++ {
		isHigh, isLow := true, true
		minLow, maxHigh := candles[i].Low, candles[i].High

		for j := i - lookback; j <= i+lookback; j++ {
			minLow = math.Min(minLow, candles[j].Low)
			maxHigh = math.Max(maxHigh, candles[j].High)
			if j == i {
				continue
			}
			if candles[j].High >= candles[i].High {
				isHigh = false
			}
			if candles[j].Low <= candles[i].Low {
				isLow = false
			}
		}

		if isHigh && minLow > 0 && (candles[i].High-minLow)/minLow*100 > minRetracePct {
			highs = append(highs, Swing{Index: i, Price: candles[i].High, Time: candles[i].Time})
		}
		if isLow && candles[i].Low > 0 && (maxHigh-candles[i].Low)/candles[i].Low*100 > minRetracePct {
			lows = append(lows, Swing{Index: i, Price: candles[i].Low, Time: candles[i].Time})
		}
	}
	return highs, lows
}

// CountTests counts how many times price touched level. A touch is a high or
// low within tolerancePct of the level, or a bar that straddles it. Touches
// closer than minGap bars to the previous counted one are ignored.
func CountTests(candles []models.Candle, level, tolerancePct float64, minGap int) int {
	if level <= 0 {
		return 0
	}
	tests, last := 0, -1
	for i, c := range candles {
		near := math.Abs(c.High-level)/level*100 <= tolerancePct ||
			math.Abs(c.Low-level)/level*100 <= tolerancePct
		if !near && !c.Contains(level) {
			continue
		}
		if last >= 0 && i-last < minGap {
			continue
		}
		tests++
		last = i
	}
	return tests
}
