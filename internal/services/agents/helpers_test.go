package agents

import (
	"context"
	"errors"
	"sync"

	"TradeGuard/internal/domain/models"
	"TradeGuard/internal/domain/repository"
)

type fakeFeed struct {
	mu      sync.Mutex
	candles map[repository.Timeframe][]models.Candle
	fail    map[repository.Timeframe]bool
	calls   []repository.Timeframe
}

func (f *fakeFeed) GetLatestNCandles(_ context.Context, _, _ string, n int, tf repository.Timeframe) ([]models.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, tf)
	if f.fail[tf] {
		return nil, errors.New("gateway timeout")
	}
	return models.LastN(f.candles[tf], n), nil
}

const t0 = int64(1728531900) // 2024-10-10 03:45 UTC

func closesToCandles(step int64, closes ...float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{Time: t0 + int64(i)*step, Open: c, High: c + 0.5, Low: c - 0.5, Close: c, Volume: 1000}
	}
	return out
}

// vShape falls 103 -> 99, rallies to 103, then falls back to 99.4.
func vShape() []models.Candle {
	var closes []float64
	for i := 0; i <= 10; i++ {
		closes = append(closes, 103-0.4*float64(i))
	}
	for i := 1; i <= 10; i++ {
		closes = append(closes, 99+0.4*float64(i))
	}
	for i := 1; i <= 9; i++ {
		closes = append(closes, 103-0.4*float64(i))
	}
	return closesToCandles(900, closes...)
}

func order(tx, instrument, product string, spot float64) models.Order {
	return models.Order{
		Symbol:          "INFY",
		Exchange:        "NSE",
		InstrumentType:  instrument,
		TransactionType: tx,
		SpotPrice:       spot,
		ProductType:     product,
	}
}

func triggered(r models.AgentResult, id string) *models.CheckResult {
	for i := range r.Triggered {
		if r.Triggered[i].ID == id {
			return &r.Triggered[i]
		}
	}
	return nil
}
