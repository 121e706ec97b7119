package usecase

import (
	"context"
	"fmt"
	"strings"

	"TradeGuard/internal/domain/models"
	domrepo "TradeGuard/internal/domain/repository"
)

// EvaluationHistoryUseCase reads the evaluation audit trail.
type EvaluationHistoryUseCase struct {
	store domrepo.EvaluationHistory
}

func NewEvaluationHistoryUseCase(store domrepo.EvaluationHistory) *EvaluationHistoryUseCase {
	return &EvaluationHistoryUseCase{store: store}
}

type EvaluationHistoryResult struct {
	Symbol  string                    `json:"symbol"`
	Count   int                       `json:"count"`
	Records []models.EvaluationRecord `json:"records"`
}

func (uc *EvaluationHistoryUseCase) Recent(ctx context.Context, symbol string, limit int) (*EvaluationHistoryResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol required", ErrInvalidRequest)
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	recs, err := uc.store.Recent(ctx, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("recent evaluations: %w", err)
	}
	if recs == nil {
		recs = []models.EvaluationRecord{}
	}
	return &EvaluationHistoryResult{Symbol: symbol, Count: len(recs), Records: recs}, nil
}
