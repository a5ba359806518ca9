// AngelaMos | 2026
// repository.go

package review

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/storefront/internal/catalog"
	"github.com/carterperez-dev/storefront/internal/core"
)

type Repository interface {
	Upsert(ctx context.Context, r *Review) (bool, error)
	ListForProduct(ctx context.Context, productID string) ([]catalog.ProductReview, error)
	ListForUser(ctx context.Context, userID string) ([]Review, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// Upsert keeps one review per user and product. It reports whether a new
// row was inserted rather than an existing one rewritten.
func (r *repository) Upsert(ctx context.Context, rv *Review) (bool, error) {
	query := `
		INSERT INTO reviews (id, user_id, product_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, product_id) DO UPDATE
		SET rating = EXCLUDED.rating,
		    comment = EXCLUDED.comment,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at, (xmax = 0) AS inserted`

	var inserted bool
	err := r.db.QueryRowxContext(ctx, query,
		rv.ID,
		rv.UserID,
		rv.ProductID,
		rv.Rating,
		rv.Comment,
	).Scan(&rv.ID, &rv.CreatedAt, &rv.UpdatedAt, &inserted)
	if err != nil {
		if core.IsForeignKeyError(err) {
			return false, fmt.Errorf("upsert review: %w", core.ErrNotFound)
		}
		return false, fmt.Errorf("upsert review: %w", err)
	}

	return inserted, nil
}

func (r *repository) ListForProduct(
	ctx context.Context,
	productID string,
) ([]catalog.ProductReview, error) {
	query := `
		SELECT r.id, r.rating, r.comment, p.full_name AS author_name, r.created_at
		FROM reviews r
		LEFT JOIN user_profiles p ON p.id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC`

	reviews := []catalog.ProductReview{}
	if err := r.db.SelectContext(ctx, &reviews, query, productID); err != nil {
		return nil, fmt.Errorf("list product reviews: %w", err)
	}
	return reviews, nil
}

func (r *repository) ListForUser(ctx context.Context, userID string) ([]Review, error) {
	query := `
		SELECT r.id, r.user_id, r.product_id, r.rating, r.comment,
		       p.name AS product_name, r.created_at, r.updated_at
		FROM reviews r
		LEFT JOIN products p ON p.id = r.product_id
		WHERE r.user_id = $1
		ORDER BY r.updated_at DESC`

	reviews := []Review{}
	if err := r.db.SelectContext(ctx, &reviews, query, userID); err != nil {
		return nil, fmt.Errorf("list user reviews: %w", err)
	}
	return reviews, nil
}
