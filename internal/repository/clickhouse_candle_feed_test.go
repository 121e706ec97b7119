package repository

import (
	"strings"
	"testing"

	"TradeGuard/internal/domain/models"
	domrepo "TradeGuard/internal/domain/repository"
)

func TestCandleSchemaCoversEveryTimeframe(t *testing.T) {
	stmts := CandleSchema(DefaultCandleTables)
	if len(stmts) != 5 {
		t.Fatalf("stmts = %d, want 5", len(stmts))
	}
	if !strings.Contains(stmts[0], "candles_5m") || !strings.Contains(stmts[4], "candles_1w") {
		t.Fatalf("unexpected order: %q ... %q", stmts[0][:40], stmts[4][:40])
	}
}

func TestTableForRejectsUnknownTimeframe(t *testing.T) {
	s := &CHCandleFeed{tables: DefaultCandleTables}
	if _, err := s.tableFor("3m"); err == nil {
		t.Fatalf("expected error")
	}
	if tb, err := s.tableFor(domrepo.TFDay); err != nil || tb != "candles_1d" {
		t.Fatalf("day table = %q, %v", tb, err)
	}
}

func TestReverseCandles(t *testing.T) {
	cs := []models.Candle{{Time: 3}, {Time: 2}, {Time: 1}}
	reverseCandles(cs)
	if cs[0].Time != 1 || cs[2].Time != 3 {
		t.Fatalf("not reversed: %+v", cs)
	}
}
