package agents

import (
	"TradeGuard/internal/domain/models"
	"TradeGuard/internal/services/indicators"
)

// VolumeSignal names what the last bar's volume says about the move.
type VolumeSignal string

const (
	VolumeNone       VolumeSignal = ""
	VolumeClimax     VolumeSignal = "climax"
	VolumeFakeout    VolumeSignal = "fakeout"
	VolumeDivergence VolumeSignal = "divergence"
	VolumeChurn      VolumeSignal = "churn"
	VolumeWeakMove   VolumeSignal = "weak_move"
)

const (
	climaxVolume     = 3.0
	climaxRangeATR   = 1.5
	divergenceVolume = 0.8
	churnVolume      = 2.0
	churnBody        = 0.3
	weakVolume       = 0.6
	breakoutBars     = 10
)

// ClassifyVolume reads the last bar against the prior volume average and ATR.
// Checks run in order: climax, fakeout, divergence, churn, weak move.
func ClassifyVolume(cs []models.Candle, bias models.Bias) VolumeSignal {
	n := len(cs)
	if n < volumeAvgBars+1 || n < breakoutBars+2 {
		return VolumeNone
	}
	ratio, ok := indicators.VolumeRatio(cs, volumeAvgBars)
	if !ok {
		return VolumeNone
	}
	last := cs[n-1]

	if atr, ok := indicators.ATR(cs, 14); ok && ratio >= climaxVolume && last.Range() >= climaxRangeATR*atr {
		return VolumeClimax
	}

	if fakeout(cs, bias) {
		return VolumeFakeout
	}

	hi, lo := closeExtremes(cs[n-1-breakoutBars : n-1])
	if ratio < divergenceVolume &&
		((bias == models.BiasBullish && last.Close >= hi) || (bias == models.BiasBearish && last.Close <= lo)) {
		return VolumeDivergence
	}

	if r := last.Range(); ratio >= churnVolume && r > 0 && last.Body() <= churnBody*r {
		return VolumeChurn
	}

	moved := (bias == models.BiasBullish && last.IsBullish()) || (bias == models.BiasBearish && last.IsBearish())
	if moved && ratio < weakVolume {
		return VolumeWeakMove
	}
	return VolumeNone
}

// fakeout: the previous bar broke the range in the trade direction on below
// average volume and the last bar closed back inside.
func fakeout(cs []models.Candle, bias models.Bias) bool {
	n := len(cs)
	prev := cs[n-2]
	hi, lo := extremes(cs[n-2-breakoutBars : n-2])
	pr, ok := indicators.VolumeRatio(cs[:n-1], volumeAvgBars)
	if !ok || pr >= 1 {
		return false
	}
	last := cs[n-1]
	switch bias {
	case models.BiasBullish:
		return prev.High > hi && last.Close < hi
	case models.BiasBearish:
		return prev.Low < lo && last.Close > lo
	}
	return false
}

func extremes(cs []models.Candle) (hi, lo float64) {
	if len(cs) == 0 {
		return 0, 0
	}
	hi, lo = cs[0].High, cs[0].Low
	for _, c := range cs[1:] {
		if c.High > hi {
			hi = c.High
		}
		if c.Low < lo {
			lo = c.Low
		}
	}
	return hi, lo
}

func closeExtremes(cs []models.Candle) (hi, lo float64) {
	if len(cs) == 0 {
		return 0, 0
	}
	hi, lo = cs[0].Close, cs[0].Close
	for _, c := range cs[1:] {
		if c.Close > hi {
			hi = c.Close
		}
		if c.Close < lo {
			lo = c.Close
		}
	}
	return hi, lo
}
