package repository

import (
	"context"

	"TradeGuard/internal/domain/models"
)

// CandleFeed serves ascending OHLCV history. A short or empty slice is a
// valid answer, not an error.
type CandleFeed interface {
	GetLatestNCandles(ctx context.Context, symbol, exchange string, n int, tf Timeframe) ([]models.Candle, error)
}

// PositionSource returns the account's current positions.
type PositionSource interface {
	Positions(ctx context.Context) ([]models.Position, error)
}

// OrderSource returns the account's order book for the day.
type OrderSource interface {
	Orders(ctx context.Context) ([]models.OrderSnapshot, error)
}

// MarketContextSource supplies market-wide summaries.
type MarketContextSource interface {
	Sentiment(ctx context.Context) (*models.Sentiment, error)
	Sector(ctx context.Context, symbol string) (*models.SectorSnapshot, error)
	VIX(ctx context.Context) (float64, error)
}

// EvaluationPublisher ships completed evaluations downstream.
type EvaluationPublisher interface {
	Publish(ctx context.Context, res *models.EvaluationResult) error
	Close() error
}

// EvaluationHistory serves the audit trail of past evaluations, newest first.
type EvaluationHistory interface {
	Recent(ctx context.Context, symbol string, limit int) ([]models.EvaluationRecord, error)
}

// Metrics records engine and collaborator telemetry.
type Metrics interface {
	RecordAgentResult(agent string, verdict models.Verdict, riskScore int)
	RecordCheckError(agent, check string)
	RecordSourceError(source string)
	RecordLatency(op string, seconds float64)
}
