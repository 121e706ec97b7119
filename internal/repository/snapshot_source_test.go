package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	domrepo "TradeGuard/internal/domain/repository"
)

func TestLoadSnapshot(t *testing.T) {
	p := filepath.Join(t.TempDir(), "snap.json")
	body := `{
		"candles": {
			"15m": [{"time":1728531900,"open":100,"high":101,"low":99,"close":100.5,"volume":1200},
			        {"time":1728532800,"open":100.5,"high":102,"low":100,"close":101.8,"volume":1500}],
			"day": [{"time":1728432000,"open":98,"high":101,"low":97,"close":100,"volume":9000},
			        {"time":1728518400,"open":100,"high":103,"low":99,"close":102,"volume":8000}]
		},
		"account": {"positions": [{"symbol":"INFY","exchange":"NSE","product":"MIS","quantity":10,"averagePrice":101}]},
		"vix": 14.5
	}`
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := LoadSnapshot(p, time.UTC)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	ctx := context.Background()
	cs, _ := s.GetLatestNCandles(ctx, "INFY", "NSE", 1, domrepo.TF15m)
	if len(cs) != 1 || cs[0].Close != 101.8 {
		t.Fatalf("last 15m bar = %+v", cs)
	}
	if w, _ := s.GetLatestNCandles(ctx, "INFY", "NSE", 10, domrepo.TFWeek); len(w) != 1 || w[0].High != 103 {
		t.Fatalf("weekly bars should be aggregated from daily: %+v", w)
	}
	if none, err := s.GetLatestNCandles(ctx, "INFY", "NSE", 10, domrepo.TF60m); err != nil || len(none) != 0 {
		t.Fatalf("missing timeframe should be empty: %v %v", none, err)
	}
	if pos, _ := s.Positions(ctx); len(pos) != 1 || pos[0].AveragePrice != 101 {
		t.Fatalf("positions = %+v", pos)
	}

	mkt := s.MarketContext()
	if mkt == nil {
		t.Fatalf("vix present, market context expected")
	}
	if v, err := mkt.VIX(ctx); err != nil || v != 14.5 {
		t.Fatalf("vix = %v %v", v, err)
	}
	if _, err := mkt.Sentiment(ctx); err == nil {
		t.Fatalf("missing sentiment should fail like an outage")
	}
}
