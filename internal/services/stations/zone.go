package stations

import (
	"math"

	"TradeGuard/internal/domain/models"
)

const (
	insideWindow    = 5
	insideMinBars   = 3
	breakMinBarsAgo = 3
	breakWindow     = 20
	rejectionRatio  = 1.5
)

// ClassifyZone labels how recent price action relates to the station. The
// rules are checked in precedence order:
// INSIDE_ZONE > BREAK_RETEST > REJECTION > AT_ZONE > APPROACHING.
func ClassifyZone(candles []models.Candle, st models.Station, tolerancePct float64) models.ZoneState {
	if len(candles) == 0 || st.Price <= 0 {
		return models.ZoneApproaching
	}
	level := st.Price

	straddling := 0
	for _, c := range models.LastN(candles, insideWindow) {
		if c.Contains(level) {
			straddling++
		}
	}
	if straddling >= insideMinBars {
		return models.ZoneInside
	}

	last := candles[len(candles)-1]
	near := math.Abs(last.Close-level)/level*100 <= tolerancePct
	if !near {
		return models.ZoneApproaching
	}

	if BreakIndex(candles, level, tolerancePct) >= 0 {
		return models.ZoneBreakRetest
	}

	if isRejection(last, level) {
		return models.ZoneRejection
	}
	return models.ZoneAtZone
}

// BreakIndex finds the most recent close beyond the zone band, at least
// breakMinBarsAgo bars back, that followed a close on the other side of the
// level. It returns -1 when there is none.
func BreakIndex(candles []models.Candle, level, tolerancePct float64) int {
	upper := level * (1 + tolerancePct/100)
	lower := level * (1 - tolerancePct/100)

	start := len(candles) - breakWindow
	if start < 1 {
		start = 1
	}
	end := len(candles) - 1 - breakMinBarsAgo
	for i := end; i >= start; i-- {
		prev, cur := candles[i-1].Close, candles[i].Close
		// A break closes outside the band after a close at or beyond the level on the other side.
		if (cur > upper && prev <= level) || (cur < lower && prev >= level) {
			return i
		}
	}
	return -1
}

// isRejection compares the wick facing the zone with the body.
func isRejection(c models.Candle, level float64) bool {
	wick := c.LowerWick()
	if c.Close < level {
		wick = c.UpperWick()
	}
	if wick <= 0 {
		return false
	}
	body := c.Body()
	if body == 0 {
		return true
	}
	return wick/body > rejectionRatio
}

// EffectiveType flips a broken-and-retested zone's role.
func EffectiveType(st models.Station, state models.ZoneState) models.StationType {
	if state != models.ZoneBreakRetest {
		return st.Type
	}
	switch st.Type {
	case models.StationResistance:
		return models.StationSupport
	case models.StationSupport:
		return models.StationResistance
	}
	return st.Type
}
