// AngelaMos | 2026
// repository.go

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/storefront/internal/core"
)

type Repository interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id string) (*Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	CountProductsInCategory(ctx context.Context, id string) (int, error)
	DeleteCategory(ctx context.Context, id string) error

	ListProducts(ctx context.Context, f ProductFilter) ([]Product, int, error)
	ListFlagged(ctx context.Context, flag ProductFlag, limit int) ([]Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	GetProducts(ctx context.Context, ids []string) ([]Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id string) (*Product, error)
	CountProducts(ctx context.Context) (int, error)

	ListHeroSlides(ctx context.Context, activeOnly bool) ([]HeroSlide, error)
	GetHeroSlide(ctx context.Context, id string) (*HeroSlide, error)
	CreateHeroSlide(ctx context.Context, h *HeroSlide) error
	UpdateHeroSlide(ctx context.Context, h *HeroSlide) error
	DeleteHeroSlide(ctx context.Context, id string) (*HeroSlide, error)
}

type ProductFlag string

const (
	FlagFeatured   ProductFlag = "is_featured"
	FlagBestSeller ProductFlag = "is_best_seller"
	FlagNewest     ProductFlag = ""
)

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const (
	categoryColumns = `id, name, image_url, data_ai_hint, created_at`

	productSelect = `
		SELECT p.id, p.name, p.description, p.long_description, p.price,
		       p.category_id, c.name AS category_name, p.image_urls,
		       p.data_ai_hint, p.is_featured, p.is_best_seller, p.created_at
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id`

	heroColumns = `id, title, subtitle, link, image_url, image_ai_hint, is_active, created_at`
)

func (r *repository) ListCategories(ctx context.Context) ([]Category, error) {
	categories := []Category{}
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY name`
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (r *repository) GetCategory(ctx context.Context, id string) (*Category, error) {
	var c Category
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		return nil, notFound("get category", err)
	}
	return &c, nil
}

func (r *repository) CreateCategory(ctx context.Context, c *Category) error {
	query := `
		INSERT INTO categories (id, name, image_url, data_ai_hint)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query, c.ID, c.Name, c.ImageURL, c.DataAIHint).
		Scan(&c.CreatedAt)
	if err != nil {
		return duplicate("create category", err)
	}
	return nil
}

func (r *repository) UpdateCategory(ctx context.Context, c *Category) error {
	query := `
		UPDATE categories
		SET name = $2, image_url = $3, data_ai_hint = $4
		WHERE id = $1
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query, c.ID, c.Name, c.ImageURL, c.DataAIHint).
		Scan(&c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update category: %w", core.ErrNotFound)
	}
	if err != nil {
		return duplicate("update category", err)
	}
	return nil
}

func (r *repository) CountProductsInCategory(ctx context.Context, id string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM products WHERE category_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("count category products: %w", err)
	}
	return count, nil
}

func (r *repository) DeleteCategory(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if core.IsForeignKeyError(err) {
			return fmt.Errorf("delete category: %w", core.ErrConflict)
		}
		return fmt.Errorf("delete category: %w", err)
	}
	return affectedOne("delete category", result)
}

func (r *repository) ListProducts(
	ctx context.Context,
	f ProductFilter,
) ([]Product, int, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.CategoryID != "" {
		where = append(where, "p.category_id = "+arg(f.CategoryID))
	}
	if f.MinPrice != nil {
		where = append(where, "p.price >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, "p.price <= "+arg(*f.MaxPrice))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM products p` + clause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := productSelect + clause +
		" ORDER BY p.created_at DESC LIMIT " + arg(f.Limit) + " OFFSET " + arg(f.Offset)

	products := []Product{}
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	return products, total, nil
}

func (r *repository) ListFlagged(
	ctx context.Context,
	flag ProductFlag,
	limit int,
) ([]Product, error) {
	query := productSelect
	switch flag {
	case FlagFeatured, FlagBestSeller:
		query += " WHERE p." + string(flag)
	case FlagNewest:
	default:
		return nil, fmt.Errorf("list products: unknown flag %q", flag)
	}
	query += " ORDER BY p.created_at DESC LIMIT $1"

	products := []Product{}
	if err := r.db.SelectContext(ctx, &products, query, limit); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (r *repository) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p Product
	if err := r.db.GetContext(ctx, &p, productSelect+` WHERE p.id = $1`, id); err != nil {
		return nil, notFound("get product", err)
	}
	return &p, nil
}

// GetProducts returns the products that exist among ids, in no particular
// order.
func (r *repository) GetProducts(ctx context.Context, ids []string) ([]Product, error) {
	products := []Product{}
	if len(ids) == 0 {
		return products, nil
	}

	query, args, err := sqlx.In(productSelect+` WHERE p.id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	return products, nil
}

func (r *repository) CreateProduct(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO products (id, name, description, long_description, price,
		                      category_id, image_urls, data_ai_hint,
		                      is_featured, is_best_seller)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.LongDescription,
		p.Price,
		p.CategoryID,
		p.ImageURLs,
		p.DataAIHint,
		p.IsFeatured,
		p.IsBestSeller,
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *repository) UpdateProduct(ctx context.Context, p *Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, long_description = $4, price = $5,
		    category_id = $6, image_urls = $7, data_ai_hint = $8,
		    is_featured = $9, is_best_seller = $10
		WHERE id = $1
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.LongDescription,
		p.Price,
		p.CategoryID,
		p.ImageURLs,
		p.DataAIHint,
		p.IsFeatured,
		p.IsBestSeller,
	).Scan(&p.CreatedAt)
	if err != nil {
		return notFound("update product", err)
	}
	return nil
}

// DeleteProduct removes the product and returns what was removed so its
// images can be cleaned up.
func (r *repository) DeleteProduct(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := r.db.GetContext(ctx, &p, `
		DELETE FROM products p
		WHERE p.id = $1
		RETURNING p.id, p.name, p.description, p.long_description, p.price,
		          p.category_id, NULL AS category_name, p.image_urls,
		          p.data_ai_hint, p.is_featured, p.is_best_seller, p.created_at`,
		id,
	)
	if err != nil {
		if core.IsForeignKeyError(err) {
			return nil, fmt.Errorf("delete product: %w", core.ErrConflict)
		}
		return nil, notFound("delete product", err)
	}
	return &p, nil
}

func (r *repository) CountProducts(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM products`); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

func (r *repository) ListHeroSlides(
	ctx context.Context,
	activeOnly bool,
) ([]HeroSlide, error) {
	query := `SELECT ` + heroColumns + ` FROM hero_slides`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY created_at DESC`

	slides := []HeroSlide{}
	if err := r.db.SelectContext(ctx, &slides, query); err != nil {
		return nil, fmt.Errorf("list hero slides: %w", err)
	}
	return slides, nil
}

func (r *repository) GetHeroSlide(ctx context.Context, id string) (*HeroSlide, error) {
	var h HeroSlide
	query := `SELECT ` + heroColumns + ` FROM hero_slides WHERE id = $1`
	if err := r.db.GetContext(ctx, &h, query, id); err != nil {
		return nil, notFound("get hero slide", err)
	}
	return &h, nil
}

func (r *repository) CreateHeroSlide(ctx context.Context, h *HeroSlide) error {
	query := `
		INSERT INTO hero_slides (id, title, subtitle, link, image_url,
		                         image_ai_hint, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		h.ID, h.Title, h.Subtitle, h.Link, h.ImageURL, h.ImageAIHint, h.IsActive,
	).Scan(&h.CreatedAt)
	if err != nil {
		return fmt.Errorf("create hero slide: %w", err)
	}
	return nil
}

func (r *repository) UpdateHeroSlide(ctx context.Context, h *HeroSlide) error {
	query := `
		UPDATE hero_slides
		SET title = $2, subtitle = $3, link = $4, image_url = $5,
		    image_ai_hint = $6, is_active = $7
		WHERE id = $1
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		h.ID, h.Title, h.Subtitle, h.Link, h.ImageURL, h.ImageAIHint, h.IsActive,
	).Scan(&h.CreatedAt)
	if err != nil {
		return notFound("update hero slide", err)
	}
	return nil
}

func (r *repository) DeleteHeroSlide(ctx context.Context, id string) (*HeroSlide, error) {
	var h HeroSlide
	err := r.db.GetContext(ctx, &h,
		`DELETE FROM hero_slides WHERE id = $1 RETURNING `+heroColumns, id)
	if err != nil {
		return nil, notFound("delete hero slide", err)
	}
	return &h, nil
}

func notFound(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func duplicate(op string, err error) error {
	if core.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, core.ErrDuplicateKey)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func affectedOne(op string, result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return nil
}
