package indicators

import (
	"math"

	"TradeGuard/internal/domain/models"
)

// ADXResult holds the trend strength and the final directional indicators.
type ADXResult struct {
	ADX     float64 `json:"adx"`
	PlusDI  float64 `json:"plusDi"`
	MinusDI float64 `json:"minusDi"`
}

// ADX follows Wilder: TR/+DM/-DM per bar, running sums seeded by the first
// period bars, a DX series, then a second Wilder pass over DX. Needs at least
// 2*period+1 bars. talib.Adx seeds its sums from period-1 bars and emits one
// bar earlier; both converge once the seed has decayed.
func ADX(candles []models.Candle, period int) (ADXResult, bool) {
	if period <= 0 || len(candles) < 2*period+1 {
		return ADXResult{}, false
	}
	n := len(candles)
	tr := trueRanges(candles)
	pdm := make([]float64, n)
	mdm := make([]float64, n)
	for i := 1; i < n; i++ {
		up := candles[i].High - candles[i-1].High
		down := candles[i-1].Low - candles[i].Low
		if up > down && up > 0 {
			pdm[i] = up
		}
		if down > up && down > 0 {
			mdm[i] = down
		}
	}

	p := float64(period)
	var sTR, sPDM, sMDM float64
	for i := 1; i <= period; i++ {
		sTR += tr[i]
		sPDM += pdm[i]
		sMDM += mdm[i]
	}

	dx := make([]float64, 0, n-period)
	plusDI, minusDI := directional(sPDM, sMDM, sTR)
	dx = append(dx, dxOf(plusDI, minusDI))
	for i := period + 1; i < n; i++ {
		sTR = sTR - sTR/p + tr[i]
		sPDM = sPDM - sPDM/p + pdm[i]
		sMDM = sMDM - sMDM/p + mdm[i]
		plusDI, minusDI = directional(sPDM, sMDM, sTR)
		dx = append(dx, dxOf(plusDI, minusDI))
	}

	adx := 0.0
	for i := 0; i < period; i++ {
		adx += dx[i]
	}
	adx /= p
	for i := period; i < len(dx); i++ {
		adx = (adx*(p-1) + dx[i]) / p
	}

	return ADXResult{ADX: adx, PlusDI: plusDI, MinusDI: minusDI}, true
}

func directional(sPDM, sMDM, sTR float64) (float64, float64) {
	if sTR == 0 {
		return 0, 0
	}
	return 100 * sPDM / sTR, 100 * sMDM / sTR
}

func dxOf(plusDI, minusDI float64) float64 {
	sum := plusDI + minusDI
	if sum == 0 {
		return 0
	}
	return 100 * math.Abs(plusDI-minusDI) / sum
}
