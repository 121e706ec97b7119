package models

import "time"

// Candle is one OHLCV bar. Time is the bar open in unix seconds.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// At returns the bar open as time.Time.
func (c Candle) At() time.Time { return time.Unix(c.Time, 0) }

// Range is high minus low.
func (c Candle) Range() float64 { return c.High - c.Low }

// Body is the absolute open/close distance.
func (c Candle) Body() float64 {
	if c.Close >= c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// UpperWick is the distance from the body top to the high.
func (c Candle) UpperWick() float64 {
	top := c.Open
	if c.Close > top {
		top = c.Close
	}
	return c.High - top
}

// LowerWick is the distance from the low to the body bottom.
func (c Candle) LowerWick() float64 {
	bottom := c.Open
	if c.Close < bottom {
		bottom = c.Close
	}
	return bottom - c.Low
}

func (c Candle) IsBullish() bool { return c.Close > c.Open }
func (c Candle) IsBearish() bool { return c.Close < c.Open }

// Contains reports whether price lies within the bar's high/low range.
func (c Candle) Contains(price float64) bool { return c.Low <= price && price <= c.High }

// Closes extracts the close series.
func Closes(cs []Candle) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Close
	}
	return out
}

// LastN returns the trailing n candles (or all of them when shorter).
func LastN(cs []Candle, n int) []Candle {
	if n <= 0 {
		return nil
	}
	if len(cs) <= n {
		return cs
	}
	return cs[len(cs)-n:]
}
