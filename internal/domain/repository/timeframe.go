package repository

import "time"

// Timeframe represents candle resolution buckets.
type Timeframe string

const (
	TF5m   Timeframe = "5m"
	TF15m  Timeframe = "15m"
	TF60m  Timeframe = "60m"
	TFDay  Timeframe = "day"
	TFWeek Timeframe = "week"
)

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF5m, TF15m, TF60m, TFDay, TFWeek:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TF15m }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}

// Duration is the nominal bar length.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TF5m:
		return 5 * time.Minute
	case TF15m:
		return 15 * time.Minute
	case TF60m:
		return time.Hour
	case TFDay:
		return 24 * time.Hour
	case TFWeek:
		return 7 * 24 * time.Hour
	default:
		return 15 * time.Minute
	}
}

// Lookback is the calendar span needed to collect n bars, padded for
// weekends and market holidays.
func (tf Timeframe) Lookback(n int) time.Duration {
	switch tf {
	case TFDay:
		return time.Duration(n*7/5+10) * 24 * time.Hour
	case TFWeek:
		return time.Duration(n+2) * 7 * 24 * time.Hour
	default:
		// ~6.25 trading hours per session
		perDay := int((375 * time.Minute) / tf.Duration())
		if perDay < 1 {
			perDay = 1
		}
		days := n/perDay + 1
		return time.Duration(days*7/5+4) * 24 * time.Hour
	}
}
