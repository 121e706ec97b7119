package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"TradeGuard/internal/domain/models"
	domrepo "TradeGuard/internal/domain/repository"
)

// RecordOf flattens an evaluation into its audit row.
func RecordOf(res *models.EvaluationResult) models.EvaluationRecord {
	rec := models.EvaluationRecord{
		Time:            res.Timestamp,
		Symbol:          res.Order.Symbol,
		Exchange:        res.Order.Exchange,
		TransactionType: res.Order.TransactionType,
		Horizon:         string(res.Horizon),
		Behavioral:      agentScore(&res.Behavioral),
		Structure:       agentScore(res.Structure),
		Pattern:         agentScore(res.Pattern),
		Station:         agentScore(res.Station),
		Verdict:         models.VerdictClear,
		SourceErrors:    len(res.Errors),
	}
	for _, r := range []*models.AgentResult{&res.Behavioral, res.Structure, res.Pattern, res.Station} {
		if r == nil || r.Unavailable {
			continue
		}
		if r.RiskScore > rec.MaxScore {
			rec.MaxScore = r.RiskScore
			rec.Verdict = r.Verdict
		}
	}
	return rec
}

func agentScore(r *models.AgentResult) int {
	if r == nil || r.Unavailable {
		return -1
	}
	return r.RiskScore
}

// CHEvaluationStore keeps an audit trail of evaluations in ClickHouse.
type CHEvaluationStore struct {
	db    *sql.DB
	table string
}

func NewCHEvaluationStore(db *sql.DB, table string) *CHEvaluationStore {
	if table == "" {
		table = "risk_evaluations"
	}
	return &CHEvaluationStore{db: db, table: table}
}

// Schema returns the DDL for the audit table.
func (s *CHEvaluationStore) Schema() []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts DateTime64(3),
		symbol LowCardinality(String),
		exchange LowCardinality(String),
		transaction_type LowCardinality(String),
		horizon LowCardinality(String),
		behavioral Int16,
		structure Int16,
		pattern Int16,
		station Int16,
		max_score Int16,
		verdict LowCardinality(String),
		source_errors UInt8,
		payload String
	) ENGINE = MergeTree
	ORDER BY (symbol, ts)
	TTL toDateTime(ts) + INTERVAL 90 DAY`, s.table)}
}

func (s *CHEvaluationStore) Publish(ctx context.Context, res *models.EvaluationResult) error {
	if res == nil {
		return nil
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal evaluation: %w", err)
	}
	r := RecordOf(res)
	q := fmt.Sprintf(`INSERT INTO %s (ts, symbol, exchange, transaction_type, horizon,
		behavioral, structure, pattern, station, max_score, verdict, source_errors, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	_, err = s.db.ExecContext(ctx, q,
		r.Time, r.Symbol, r.Exchange, r.TransactionType, r.Horizon,
		int16(r.Behavioral), int16(r.Structure), int16(r.Pattern), int16(r.Station),
		int16(r.MaxScore), string(r.Verdict), uint8(r.SourceErrors), string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

// Recent returns the newest audit rows for a symbol, newest first.
func (s *CHEvaluationStore) Recent(ctx context.Context, symbol string, limit int) ([]models.EvaluationRecord, error) {
	q := fmt.Sprintf(`SELECT ts, symbol, exchange, transaction_type, horizon,
		behavioral, structure, pattern, station, max_score, verdict, source_errors
		FROM %s WHERE symbol = ? ORDER BY ts DESC LIMIT ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	out := make([]models.EvaluationRecord, 0, limit)
	for rows.Next() {
		var r models.EvaluationRecord
		var b, st, p, sn, mx int16
		var verdict string
		var errs uint8
		if err := rows.Scan(&r.Time, &r.Symbol, &r.Exchange, &r.TransactionType, &r.Horizon,
			&b, &st, &p, &sn, &mx, &verdict, &errs); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		r.Behavioral, r.Structure, r.Pattern, r.Station, r.MaxScore = int(b), int(st), int(p), int(sn), int(mx)
		r.Verdict = models.Verdict(verdict)
		r.SourceErrors = int(errs)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *CHEvaluationStore) Close() error { return nil }

// FanoutPublisher publishes to every sink and joins their errors.
type FanoutPublisher []domrepo.EvaluationPublisher

func (f FanoutPublisher) Publish(ctx context.Context, res *models.EvaluationResult) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f FanoutPublisher) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ domrepo.EvaluationPublisher = (*CHEvaluationStore)(nil)
	_ domrepo.EvaluationPublisher = FanoutPublisher(nil)
)

var (
	_ domrepo.EvaluationPublisher = (*CHEvaluationStore)(nil)
	_ domrepo.EvaluationHistory   = (*CHEvaluationStore)(nil)
	_ domrepo.EvaluationPublisher = FanoutPublisher(nil)
)
