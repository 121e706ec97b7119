package usecase

import (
	"context"
	"fmt"
	"strings"

	"TradeGuard/internal/domain/models"
	domrepo "TradeGuard/internal/domain/repository"
	"TradeGuard/internal/services/agents"
	"TradeGuard/pkg/util"
)

const (
	minStationBars = 30
	maxStationBars = 2000
)

// StationMapper builds a station map for one timeframe.
type StationMapper interface {
	Map(ctx context.Context, symbol, exchange string, tf domrepo.Timeframe, n int, price float64) (*agents.StationMap, error)
}

// StationsUseCase serves support/resistance zones outside of an evaluation.
type StationsUseCase struct {
	mapper StationMapper
}

func NewStationsUseCase(mapper StationMapper) *StationsUseCase {
	return &StationsUseCase{mapper: mapper}
}

// GetStations recomputes the zones on every call; weekly bars are not
// offered since a 30-bar floor already spans more than half a year.
func (uc *StationsUseCase) GetStations(ctx context.Context, req models.StationsRequest) (*agents.StationMap, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol required", ErrInvalidRequest)
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidRequest)
	}
	exchange := strings.ToUpper(strings.TrimSpace(req.Exchange))
	if exchange == "" {
		exchange = "NSE"
	}
	tf := domrepo.NormalizeTimeframe(req.TF)
	if tf == domrepo.TFWeek {
		tf = domrepo.TFDay
	}
	n := util.ClampInt(req.N, minStationBars, maxStationBars)

	m, err := uc.mapper.Map(ctx, symbol, exchange, tf, n, req.Price)
	if err != nil {
		return nil, fmt.Errorf("station map %s:%s %s: %w", exchange, symbol, tf, err)
	}
	return m, nil
}
