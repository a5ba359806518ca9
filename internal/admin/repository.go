// AngelaMos | 2026
// repository.go

package admin

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/storefront/internal/core"
)

type OrderTotals struct {
	Revenue decimal.Decimal `db:"revenue"`
	Orders  int             `db:"orders"`
	Pending int             `db:"pending"`
}

type StoreTotals struct {
	Products    int `db:"products"`
	Users       int `db:"users"`
	Subscribers int `db:"subscribers"`
}

type MonthlyRevenue struct {
	Month   string          `db:"month"   json:"month"`
	Revenue decimal.Decimal `db:"revenue" json:"revenue"`
}

type Repository interface {
	OrderTotals(ctx context.Context) (OrderTotals, error)
	StoreTotals(ctx context.Context) (StoreTotals, error)
	RevenueByMonth(ctx context.Context, months int) ([]MonthlyRevenue, error)
	Exec(ctx context.Context, statement string) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) OrderTotals(ctx context.Context) (OrderTotals, error) {
	query := `
		SELECT COALESCE(SUM(total_amount) FILTER (WHERE status <> 'cancelled'), 0) AS revenue,
		       COUNT(*) AS orders,
		       COUNT(*) FILTER (WHERE status = 'pending') AS pending
		FROM orders`

	var t OrderTotals
	if err := r.db.GetContext(ctx, &t, query); err != nil {
		return t, fmt.Errorf("order totals: %w", err)
	}
	return t, nil
}

func (r *repository) StoreTotals(ctx context.Context) (StoreTotals, error) {
	query := `
		SELECT (SELECT COUNT(*) FROM products) AS products,
		       (SELECT COUNT(*) FROM users) AS users,
		       (SELECT COUNT(*) FROM newsletter_subscribers) AS subscribers`

	var t StoreTotals
	if err := r.db.GetContext(ctx, &t, query); err != nil {
		return t, fmt.Errorf("store totals: %w", err)
	}
	return t, nil
}

// RevenueByMonth returns one row per month with orders in it, oldest first,
// covering the current month and the months-1 before it.
func (r *repository) RevenueByMonth(
	ctx context.Context,
	months int,
) ([]MonthlyRevenue, error) {
	query := `
		SELECT to_char(date_trunc('month', created_at), 'YYYY-MM') AS month,
		       SUM(total_amount) AS revenue
		FROM orders
		WHERE status <> 'cancelled'
		  AND created_at >= date_trunc('month', NOW()) - make_interval(months => $1 - 1)
		GROUP BY 1
		ORDER BY 1`

	rows := []MonthlyRevenue{}
	if err := r.db.SelectContext(ctx, &rows, query, months); err != nil {
		return nil, fmt.Errorf("revenue by month: %w", err)
	}
	return rows, nil
}

// Exec runs statement verbatim. It may hold several statements.
func (r *repository) Exec(ctx context.Context, statement string) (int64, error) {
	result, err := r.db.ExecContext(ctx, statement)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
