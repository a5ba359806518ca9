// AngelaMos | 2026
// repository.go

package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/profile"
)

// Repository reads orders and writes them through a caller supplied
// executor so header and items can share one transaction.
type Repository interface {
	InsertHeader(ctx context.Context, q core.DBTX, o *Order) error
	InsertItems(ctx context.Context, q core.DBTX, items []Item) error

	FindByIdempotencyKey(ctx context.Context, userID, key string) (*Order, error)
	GetForUser(ctx context.Context, id, userID string) (*Order, error)
	Get(ctx context.Context, id string) (*Order, error)
	Items(ctx context.Context, orderID string) ([]Item, error)
	ShippingAddress(ctx context.Context, addressID string) (*ShippingAddress, error)
	ListForUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context, limit, offset int) ([]Order, error)
	CountAll(ctx context.Context) (int, error)
	UpdateStatus(ctx context.Context, id string, status Status) (string, error)

	StatsForUser(ctx context.Context, userID string) (profile.OrderStats, error)
	HasPurchased(ctx context.Context, userID, productID string) (bool, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const orderColumns = `o.id, o.user_id, o.total_amount, o.status, o.shipping_address_id,
			  o.payment_method, o.idempotency_key, o.created_at`

func (r *repository) InsertHeader(ctx context.Context, q core.DBTX, o *Order) error {
	query := `
		INSERT INTO orders (id, user_id, total_amount, status, shipping_address_id,
		                    payment_method, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := q.QueryRowxContext(ctx, query,
		o.ID,
		o.UserID,
		o.TotalAmount,
		o.Status,
		o.ShippingAddressID,
		o.PaymentMethod,
		o.IdempotencyKey,
	).Scan(&o.CreatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert order: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

func (r *repository) InsertItems(ctx context.Context, q core.DBTX, items []Item) error {
	query := `
		INSERT INTO order_items (id, order_id, product_id, quantity, price)
		VALUES (:id, :order_id, :product_id, :quantity, :price)`

	result, err := sqlx.NamedExecContext(ctx, q, query, items)
	if err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	if int(n) != len(items) {
		return fmt.Errorf("insert order items: wrote %d of %d", n, len(items))
	}

	return nil
}

func (r *repository) FindByIdempotencyKey(
	ctx context.Context,
	userID, key string,
) (*Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders o
		WHERE o.user_id = $1 AND o.idempotency_key = $2`

	return r.getOne(ctx, "find order by idempotency key", query, userID, key)
}

func (r *repository) GetForUser(ctx context.Context, id, userID string) (*Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders o
		WHERE o.id = $1 AND o.user_id = $2`

	return r.getOne(ctx, "get order", query, id, userID)
}

func (r *repository) Get(ctx context.Context, id string) (*Order, error) {
	query := `SELECT ` + orderColumns + `, p.full_name AS customer_name
		FROM orders o
		LEFT JOIN user_profiles p ON p.id = o.user_id
		WHERE o.id = $1`

	return r.getOne(ctx, "get order", query, id)
}

func (r *repository) getOne(
	ctx context.Context,
	op, query string,
	args ...any,
) (*Order, error) {
	var o Order
	err := r.db.GetContext(ctx, &o, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &o, nil
}

func (r *repository) Items(ctx context.Context, orderID string) ([]Item, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price,
		       p.name AS product_name, p.image_urls
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY p.name`

	items := []Item{}
	if err := r.db.SelectContext(ctx, &items, query, orderID); err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	return items, nil
}

func (r *repository) ShippingAddress(
	ctx context.Context,
	addressID string,
) (*ShippingAddress, error) {
	query := `
		SELECT address_line_1, address_line_2, city, state, postal_code, country
		FROM addresses
		WHERE id = $1`

	var a ShippingAddress
	err := r.db.GetContext(ctx, &a, query, addressID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get shipping address: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get shipping address: %w", err)
	}
	return &a, nil
}

func (r *repository) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders o
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC`

	orders := []Order{}
	if err := r.db.SelectContext(ctx, &orders, query, userID); err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	return orders, nil
}

func (r *repository) ListAll(ctx context.Context, limit, offset int) ([]Order, error) {
	query := `SELECT ` + orderColumns + `, p.full_name AS customer_name
		FROM orders o
		LEFT JOIN user_profiles p ON p.id = o.user_id
		ORDER BY o.created_at DESC
		LIMIT $1 OFFSET $2`

	orders := []Order{}
	if err := r.db.SelectContext(ctx, &orders, query, limit, offset); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (r *repository) CountAll(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM orders`); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

// UpdateStatus returns the owner of the order so their cached views can be
// dropped.
func (r *repository) UpdateStatus(
	ctx context.Context,
	id string,
	status Status,
) (string, error) {
	query := `UPDATE orders SET status = $2 WHERE id = $1 RETURNING user_id`

	var userID string
	err := r.db.GetContext(ctx, &userID, query, id, status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("update order status: %w", core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("update order status: %w", err)
	}
	return userID, nil
}

func (r *repository) StatsForUser(
	ctx context.Context,
	userID string,
) (profile.OrderStats, error) {
	query := `
		SELECT COALESCE(SUM(total_amount) FILTER (WHERE status <> 'cancelled'), 0) AS total_spent,
		       COUNT(*) AS total_orders,
		       COUNT(*) FILTER (WHERE status = 'pending') AS pending_orders
		FROM orders
		WHERE user_id = $1`

	var stats profile.OrderStats
	if err := r.db.GetContext(ctx, &stats, query, userID); err != nil {
		return stats, fmt.Errorf("order stats: %w", err)
	}
	return stats, nil
}

func (r *repository) HasPurchased(
	ctx context.Context,
	userID, productID string,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM order_items oi
			JOIN orders o ON o.id = oi.order_id
			WHERE o.user_id = $1 AND oi.product_id = $2 AND o.status <> 'cancelled'
		)`

	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, userID, productID); err != nil {
		return false, fmt.Errorf("check purchase: %w", err)
	}
	return ok, nil
}
