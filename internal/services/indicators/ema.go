package indicators

import (
	"github.com/markcheno/go-talib"

	"TradeGuard/internal/domain/models"
)

// EMA returns the exponential moving average of closes at the last bar.
// The seed is the SMA of the first period closes; k = 2/(period+1).
func EMA(candles []models.Candle, period int) (float64, bool) {
	series := EMASeries(candles, period)
	if series == nil {
		return 0, false
	}
	return series[len(series)-1], true
}

// EMASeries computes the EMA for every bar. Entries before period-1 are zero.
// It returns nil when history is shorter than period.
func EMASeries(candles []models.Candle, period int) []float64 {
	if period <= 0 || len(candles) < period {
		return nil
	}
	return talib.Ema(models.Closes(candles), period)
}
