package indicators

import "TradeGuard/internal/domain/models"

// AverageVolume is the mean volume of the n bars before the last one.
func AverageVolume(candles []models.Candle, n int) (float64, bool) {
	if n <= 0 || len(candles) < n+1 {
		return 0, false
	}
	sum := 0.0
	for _, c := range candles[len(candles)-n-1 : len(candles)-1] {
		sum += c.Volume
	}
	return sum / float64(n), true
}

// VolumeRatio compares the last bar's volume with the preceding n-bar average.
func VolumeRatio(candles []models.Candle, n int) (float64, bool) {
	avg, ok := AverageVolume(candles, n)
	if !ok || avg == 0 {
		return 0, false
	}
	return candles[len(candles)-1].Volume / avg, true
}

// PercentChange is the close-to-close change over the last n bars, in percent.
func PercentChange(candles []models.Candle, n int) (float64, bool) {
	if n <= 0 || len(candles) < n+1 {
		return 0, false
	}
	from := candles[len(candles)-n-1].Close
	if from == 0 {
		return 0, false
	}
	return (candles[len(candles)-1].Close - from) / from * 100, true
}
