// AngelaMos | 2026
// repository.go

package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/storefront/internal/core"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
	Insert(ctx context.Context, p *Profile) error
	UpdateRole(ctx context.Context, id, role string) error
	Update(ctx context.Context, id string, fullName, avatarURL *string) error
	GetMember(ctx context.Context, id string) (*Member, error)
	ListMembers(ctx context.Context, limit, offset int) ([]Member, error)
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const profileColumns = `p.id, p.role, p.full_name, p.avatar_url, p.created_at, p.updated_at`

func (r *repository) GetByID(ctx context.Context, id string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles p WHERE p.id = $1`

	var p Profile
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get profile: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return &p, nil
}

func (r *repository) Insert(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO user_profiles (id, role, full_name, avatar_url)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID,
		p.Role,
		p.FullName,
		p.AvatarURL,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert profile: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("insert profile: %w", err)
	}

	return nil
}

func (r *repository) UpdateRole(ctx context.Context, id, role string) error {
	query := `
		UPDATE user_profiles
		SET role = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update role", query, id, role)
}

func (r *repository) Update(
	ctx context.Context,
	id string,
	fullName, avatarURL *string,
) error {
	query := `
		UPDATE user_profiles
		SET full_name = COALESCE($2, full_name),
		    avatar_url = COALESCE($3, avatar_url),
		    updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update profile", query, id, fullName, avatarURL)
}

func (r *repository) GetMember(ctx context.Context, id string) (*Member, error) {
	query := `
		SELECT ` + profileColumns + `, u.email
		FROM user_profiles p
		JOIN users u ON u.id = p.id
		WHERE p.id = $1`

	var m Member
	err := r.db.GetContext(ctx, &m, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get member: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}

	return &m, nil
}

func (r *repository) ListMembers(
	ctx context.Context,
	limit, offset int,
) ([]Member, error) {
	query := `
		SELECT ` + profileColumns + `, u.email
		FROM user_profiles p
		JOIN users u ON u.id = p.id
		ORDER BY p.created_at DESC
		LIMIT $1 OFFSET $2`

	var members []Member
	if err := r.db.SelectContext(ctx, &members, query, limit, offset); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	return members, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM user_profiles`)
	if err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}

	return count, nil
}

func (r *repository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
