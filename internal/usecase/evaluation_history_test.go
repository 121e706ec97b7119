package usecase

import (
	"context"
	"errors"
	"testing"

	"TradeGuard/internal/domain/models"
)

type fakeHistory struct {
	symbol string
	limit  int
	rows   []models.EvaluationRecord
	err    error
}

func (f *fakeHistory) Recent(_ context.Context, symbol string, limit int) ([]models.EvaluationRecord, error) {
	f.symbol, f.limit = symbol, limit
	return f.rows, f.err
}

func TestEvaluationHistoryRecent(t *testing.T) {
	h := &fakeHistory{}
	uc := NewEvaluationHistoryUseCase(h)

	res, err := uc.Recent(context.Background(), "infy", 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if h.symbol != "INFY" || h.limit != 50 {
		t.Fatalf("store called with %q %d", h.symbol, h.limit)
	}
	if res.Records == nil || res.Count != 0 {
		t.Fatalf("empty history should be an empty list: %+v", res)
	}

	if _, err := uc.Recent(context.Background(), "INFY", 10000); err != nil || h.limit != 500 {
		t.Fatalf("limit should be capped, got %d %v", h.limit, err)
	}
	if _, err := uc.Recent(context.Background(), "", 10); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}

	h.err = errors.New("clickhouse down")
	if _, err := uc.Recent(context.Background(), "INFY", 10); err == nil {
		t.Fatalf("store error should surface")
	}
}
