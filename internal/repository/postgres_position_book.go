package repository

import (
	"context"
	"fmt"

	"TradeGuard/internal/domain/models"
	domrepo "TradeGuard/internal/domain/repository"

	"github.com/jackc/pgx/v5"
)

// pgQuerier is satisfied by *pgxpool.Pool and *pgx.Conn.
type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PGPositionBook serves one account's positions and today's orders from a
// Postgres book kept by the order router.
type PGPositionBook struct {
	db        pgQuerier
	accountID string
}

func NewPGPositionBook(db pgQuerier, accountID string) *PGPositionBook {
	return &PGPositionBook{db: db, accountID: accountID}
}

func (r *PGPositionBook) Positions(ctx context.Context) ([]models.Position, error) {
	rows, err := r.db.Query(ctx, `
		select symbol, exchange, product, quantity, average_price, last_price,
			unrealised_pnl, realised_pnl
		from positions
		where account_id = $1 and trade_date = current_date
		order by symbol
	`, r.accountID)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	out := make([]models.Position, 0)
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.Symbol, &p.Exchange, &p.Product, &p.Quantity, &p.AveragePrice,
			&p.LastPrice, &p.UnrealisedPnL, &p.RealisedPnL); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("positions rows: %w", err)
	}
	return out, nil
}

func (r *PGPositionBook) Orders(ctx context.Context) ([]models.OrderSnapshot, error) {
	rows, err := r.db.Query(ctx, `
		select order_id, symbol, transaction_type, status, quantity, price
		from orders
		where account_id = $1 and placed_at >= date_trunc('day', now())
		order by placed_at desc
	`, r.accountID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	out := make([]models.OrderSnapshot, 0)
	for rows.Next() {
		var o models.OrderSnapshot
		if err := rows.Scan(&o.OrderID, &o.Symbol, &o.TransactionType, &o.Status, &o.Quantity, &o.Price); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("orders rows: %w", err)
	}
	return out, nil
}

var (
	_ domrepo.PositionSource = (*PGPositionBook)(nil)
	_ domrepo.OrderSource    = (*PGPositionBook)(nil)
)
