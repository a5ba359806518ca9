// AngelaMos | 2026
// repository.go

package wishlist

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/storefront/internal/catalog"
	"github.com/carterperez-dev/storefront/internal/core"
)

type Repository interface {
	Toggle(ctx context.Context, userID, productID string) (bool, error)
	List(ctx context.Context, userID string) ([]catalog.Product, error)
	ProductIDs(ctx context.Context, userID string) ([]string, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// Toggle removes the product from the wishlist when present and adds it
// otherwise. It reports whether the product is now on the list.
func (r *repository) Toggle(ctx context.Context, userID, productID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM wishlists WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return false, fmt.Errorf("remove from wishlist: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove from wishlist: %w", err)
	}
	if removed > 0 {
		return false, nil
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO wishlists (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO NOTHING`,
		userID, productID,
	)
	if err != nil {
		if core.IsForeignKeyError(err) {
			return false, fmt.Errorf("add to wishlist: %w", core.ErrNotFound)
		}
		return false, fmt.Errorf("add to wishlist: %w", err)
	}

	return true, nil
}

func (r *repository) List(ctx context.Context, userID string) ([]catalog.Product, error) {
	query := `
		SELECT p.id, p.name, p.description, p.long_description, p.price,
		       p.category_id, c.name AS category_name, p.image_urls, p.data_ai_hint,
		       p.is_featured, p.is_best_seller, p.created_at
		FROM wishlists w
		JOIN products p ON p.id = w.product_id
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC`

	products := []catalog.Product{}
	if err := r.db.SelectContext(ctx, &products, query, userID); err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	return products, nil
}

func (r *repository) ProductIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := r.db.SelectContext(ctx, &ids,
		`SELECT product_id FROM wishlists WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist ids: %w", err)
	}
	return ids, nil
}
