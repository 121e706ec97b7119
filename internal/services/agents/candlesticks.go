package agents

import "TradeGuard/internal/domain/models"

// CandlePattern is a recognised formation at the tail of a series.
type CandlePattern struct {
	Name      string      `json:"name"`
	Direction models.Bias `json:"direction"`
	Strong    bool        `json:"strong"`
}

const (
	dojiBodyRatio   = 0.1
	shadowBodyRatio = 2.0
	smallShadow     = 0.1
	starBodyRatio   = 0.3
	trendBars       = 5
)

// priorTrend is the direction of closes over trendBars ending before end.
func priorTrend(cs []models.Candle, end int) models.Bias {
	start := end - trendBars
	if start < 0 || end <= 0 {
		return models.BiasNeutral
	}
	d := cs[end-1].Close - cs[start].Close
	switch {
	case d > 0:
		return models.BiasBullish
	case d < 0:
		return models.BiasBearish
	}
	return models.BiasNeutral
}

func isDoji(c models.Candle) bool {
	r := c.Range()
	return r > 0 && c.Body() <= dojiBodyRatio*r
}

// DetectPatterns returns the formations completed by the last candle.
func DetectPatterns(cs []models.Candle) []CandlePattern {
	n := len(cs)
	if n == 0 {
		return nil
	}
	var out []CandlePattern
	last := cs[n-1]
	trend := priorTrend(cs, n-1)

	if isDoji(last) {
		out = append(out, CandlePattern{Name: "doji", Direction: models.BiasNeutral})
	} else if body, r := last.Body(), last.Range(); body > 0 && r > 0 {
		switch {
		case last.LowerWick() >= shadowBodyRatio*body && last.UpperWick() <= smallShadow*r:
			if trend == models.BiasBearish {
				out = append(out, CandlePattern{Name: "hammer", Direction: models.BiasBullish})
			} else if trend == models.BiasBullish {
				out = append(out, CandlePattern{Name: "hanging_man", Direction: models.BiasBearish})
			}
		case last.UpperWick() >= shadowBodyRatio*body && last.LowerWick() <= smallShadow*r:
			if trend == models.BiasBullish {
				out = append(out, CandlePattern{Name: "shooting_star", Direction: models.BiasBearish})
			} else if trend == models.BiasBearish {
				out = append(out, CandlePattern{Name: "inverted_hammer", Direction: models.BiasBullish})
			}
		}
	}

	if n >= 2 {
		prev := cs[n-2]
		switch {
		case prev.IsBearish() && last.IsBullish() && last.Open <= prev.Close && last.Close >= prev.Open &&
			last.Body() > prev.Body():
			out = append(out, CandlePattern{Name: "bullish_engulfing", Direction: models.BiasBullish, Strong: true})
		case prev.IsBullish() && last.IsBearish() && last.Open >= prev.Close && last.Close <= prev.Open &&
			last.Body() > prev.Body():
			out = append(out, CandlePattern{Name: "bearish_engulfing", Direction: models.BiasBearish, Strong: true})
		case prev.IsBearish() && last.IsBullish() && last.Open > prev.Close && last.Close < prev.Open:
			out = append(out, CandlePattern{Name: "bullish_harami", Direction: models.BiasBullish})
		case prev.IsBullish() && last.IsBearish() && last.Open < prev.Close && last.Close > prev.Open:
			out = append(out, CandlePattern{Name: "bearish_harami", Direction: models.BiasBearish})
		}
	}

	if n >= 3 {
		a, b, c := cs[n-3], cs[n-2], cs[n-1]
		mid := (a.Open + a.Close) / 2
		switch {
		case a.IsBearish() && b.Body() <= starBodyRatio*a.Body() && c.IsBullish() && c.Close > mid:
			out = append(out, CandlePattern{Name: "morning_star", Direction: models.BiasBullish, Strong: true})
		case a.IsBullish() && b.Body() <= starBodyRatio*a.Body() && c.IsBearish() && c.Close < mid:
			out = append(out, CandlePattern{Name: "evening_star", Direction: models.BiasBearish, Strong: true})
		}
		switch {
		case soldiers(a, b, c):
			out = append(out, CandlePattern{Name: "three_white_soldiers", Direction: models.BiasBullish, Strong: true})
		case crows(a, b, c):
			out = append(out, CandlePattern{Name: "three_black_crows", Direction: models.BiasBearish, Strong: true})
		}
	}
	return out
}

func soldiers(a, b, c models.Candle) bool {
	if !a.IsBullish() || !b.IsBullish() || !c.IsBullish() {
		return false
	}
	return b.Close > a.Close && c.Close > b.Close &&
		b.Open >= a.Open && b.Open <= a.Close &&
		c.Open >= b.Open && c.Open <= b.Close
}

func crows(a, b, c models.Candle) bool {
	if !a.IsBearish() || !b.IsBearish() || !c.IsBearish() {
		return false
	}
	return b.Close < a.Close && c.Close < b.Close &&
		b.Open <= a.Open && b.Open >= a.Close &&
		c.Open <= b.Open && c.Open >= b.Close
}
