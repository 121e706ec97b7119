package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"TradeGuard/internal/domain/models"
	domrepo "TradeGuard/internal/domain/repository"
	pkgch "TradeGuard/pkg/clickhouse"
	applogger "TradeGuard/pkg/logger"
)

// DefaultCandleTables maps each timeframe to its ClickHouse table.
var DefaultCandleTables = map[domrepo.Timeframe]string{
	domrepo.TF5m:   "candles_5m",
	domrepo.TF15m:  "candles_15m",
	domrepo.TF60m:  "candles_60m",
	domrepo.TFDay:  "candles_1d",
	domrepo.TFWeek: "candles_1w",
}

// CHCandleFeed implements CandleFeed backed by ClickHouse.
type CHCandleFeed struct {
	db     *sql.DB
	l      *applogger.Logger
	tables map[domrepo.Timeframe]string
}

func NewCHCandleFeed(ch *pkgch.Client, l *applogger.Logger) *CHCandleFeed {
	if l == nil {
		l = applogger.NewNop()
	}
	return &CHCandleFeed{db: ch.DB(), l: l, tables: DefaultCandleTables}
}

func (s *CHCandleFeed) tableFor(tf domrepo.Timeframe) (string, error) {
	t, ok := s.tables[tf]
	if !ok {
		return "", fmt.Errorf("unsupported timeframe %q", tf)
	}
	return t, nil
}

// GetLatestNCandles queries newest-first and returns the rows ascending.
func (s *CHCandleFeed) GetLatestNCandles(ctx context.Context, symbol, exchange string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	start := time.Now()
	table, err := s.tableFor(tf)
	if err != nil {
		return nil, err
	}
	const qtpl = `
		SELECT toUnixTimestamp(bucket), open, high, low, close, vol
		FROM %s
		WHERE symbol = ? AND exchange = ?
		ORDER BY bucket DESC
		LIMIT ?
	`
	q := fmt.Sprintf(qtpl, table)
	logFields := func(extra ...applogger.Field) []applogger.Field {
		return append([]applogger.Field{
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("limit", n),
		}, extra...)
	}

	rows, err := s.db.QueryContext(ctx, q, symbol, exchange, n)
	if err != nil {
		s.l.Error("clickhouse latest_candles query error", logFields(applogger.Error(err))...)
		return nil, fmt.Errorf("get latest candles: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.Candle, 0, n)
	for rows.Next() {
		var c models.Candle
		var ts uint32
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			s.l.Error("clickhouse latest_candles scan error", logFields(applogger.Error(err))...)
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		c.Time = int64(ts)
		tmp = append(tmp, c)
	}
	if err := rows.Err(); err != nil {
		s.l.Error("clickhouse latest_candles rows error", logFields(applogger.Error(err))...)
		return nil, fmt.Errorf("rows: %w", err)
	}
	reverseCandles(tmp)
	s.l.Debug("clickhouse latest_candles ok", logFields(
		applogger.Int("rows", len(tmp)),
		applogger.Duration("duration_ms", time.Since(start)),
	)...)
	return tmp, nil
}

func reverseCandles(cs []models.Candle) {
	for i, j := 0, len(cs)-1; i < j; i, j = i+1, j-1 {
		cs[i], cs[j] = cs[j], cs[i]
	}
}

// CandleSchema returns idempotent DDL for every candle table.
func CandleSchema(tables map[domrepo.Timeframe]string) []string {
	order := []domrepo.Timeframe{domrepo.TF5m, domrepo.TF15m, domrepo.TF60m, domrepo.TFDay, domrepo.TFWeek}
	stmts := make([]string, 0, len(tables))
	for _, tf := range order {
		t, ok := tables[tf]
		if !ok {
			continue
		}
		stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			symbol LowCardinality(String),
			exchange LowCardinality(String),
			bucket DateTime,
			open Float64,
			high Float64,
			low Float64,
			close Float64,
			vol Float64
		) ENGINE = ReplacingMergeTree
		ORDER BY (symbol, exchange, bucket)`, t))
	}
	return stmts
}

var _ domrepo.CandleFeed = (*CHCandleFeed)(nil)
