package indicators

import "TradeGuard/internal/domain/models"

// RSI uses the simple (non-smoothed) gains and losses over the last period+1
// closes. It is 100 when the window holds no down move.
func RSI(candles []models.Candle, period int) (float64, bool) {
	if period <= 0 || len(candles) < period+1 {
		return 0, false
	}
	window := candles[len(candles)-period-1:]

	gains, losses := 0.0, 0.0
	for i := 1; i < len(window); i++ {
		d := window[i].Close - window[i-1].Close
		if d > 0 {
			gains += d
		} else {
			losses -= d
		}
	}
	if losses == 0 {
		return 100, true
	}
	p := float64(period)
	rs := (gains / p) / (losses / p)
	return 100 - 100/(1+rs), true
}
