package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"TradeGuard/internal/domain/models"
	domrepo "TradeGuard/internal/domain/repository"
)

// Snapshot is a frozen market and account state used for offline
// evaluation. Candles are keyed by timeframe ("5m", "15m", "60m", "day",
// "week"); weekly bars are aggregated from daily ones when absent.
type Snapshot struct {
	Candles   map[domrepo.Timeframe][]models.Candle `json:"candles"`
	Account   SnapshotAccount                       `json:"account"`
	Sentiment *models.Sentiment                     `json:"sentiment,omitempty"`
	Sector    *models.SectorSnapshot                `json:"sector,omitempty"`
	VIX       *float64                              `json:"vix,omitempty"`
}

type SnapshotAccount struct {
	Positions []models.Position      `json:"positions"`
	Orders    []models.OrderSnapshot `json:"orders"`
}

// LoadSnapshot reads a snapshot file.
func LoadSnapshot(path string, loc *time.Location) (*Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if s.Candles == nil {
		s.Candles = map[domrepo.Timeframe][]models.Candle{}
	}
	if _, ok := s.Candles[domrepo.TFWeek]; !ok && len(s.Candles[domrepo.TFDay]) > 0 {
		if loc == nil {
			loc = time.UTC
		}
		s.Candles[domrepo.TFWeek] = AggregateWeekly(s.Candles[domrepo.TFDay], loc)
	}
	return &s, nil
}

// GetLatestNCandles serves the last n bars of the timeframe. A missing
// timeframe is an empty answer.
func (s *Snapshot) GetLatestNCandles(_ context.Context, _, _ string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	return models.LastN(s.Candles[tf], n), nil
}

func (s *Snapshot) Positions(context.Context) ([]models.Position, error) {
	return s.Account.Positions, nil
}

func (s *Snapshot) Orders(context.Context) ([]models.OrderSnapshot, error) {
	return s.Account.Orders, nil
}

// MarketContext returns the snapshot as a market context source, or nil
// when it carries no market data.
func (s *Snapshot) MarketContext() domrepo.MarketContextSource {
	if s.Sentiment == nil && s.Sector == nil && s.VIX == nil {
		return nil
	}
	return snapshotMarket{s}
}

type snapshotMarket struct{ s *Snapshot }

func (m snapshotMarket) Sentiment(context.Context) (*models.Sentiment, error) {
	if m.s.Sentiment == nil {
		return nil, fmt.Errorf("snapshot has no sentiment")
	}
	return m.s.Sentiment, nil
}

func (m snapshotMarket) Sector(_ context.Context, symbol string) (*models.SectorSnapshot, error) {
	if m.s.Sector == nil {
		return nil, fmt.Errorf("snapshot has no sector for %s", symbol)
	}
	return m.s.Sector, nil
}

func (m snapshotMarket) VIX(context.Context) (float64, error) {
	if m.s.VIX == nil {
		return 0, fmt.Errorf("snapshot has no vix")
	}
	return *m.s.VIX, nil
}

var (
	_ domrepo.CandleFeed     = (*Snapshot)(nil)
	_ domrepo.PositionSource = (*Snapshot)(nil)
	_ domrepo.OrderSource    = (*Snapshot)(nil)
)
