// AngelaMos | 2026
// repository.go

package address

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/storefront/internal/core"
)

type Repository interface {
	ListForUser(ctx context.Context, userID string) ([]Address, error)
	GetForUser(ctx context.Context, id, userID string) (*Address, error)
	Create(ctx context.Context, a *Address) error
	Update(ctx context.Context, a *Address) error
	Delete(ctx context.Context, id, userID string) error
	SetDefault(ctx context.Context, id, userID string) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const addressColumns = `id, user_id, address_line_1, address_line_2, city, state,
			  postal_code, country, is_default, created_at, updated_at`

func (r *repository) ListForUser(
	ctx context.Context,
	userID string,
) ([]Address, error) {
	query := `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC`

	addresses := []Address{}
	if err := r.db.SelectContext(ctx, &addresses, query, userID); err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}

	return addresses, nil
}

// GetForUser returns ErrNotFound both for a missing address and for one
// owned by somebody else.
func (r *repository) GetForUser(
	ctx context.Context,
	id, userID string,
) (*Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1 AND user_id = $2`

	var a Address
	err := r.db.GetContext(ctx, &a, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get address: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get address: %w", err)
	}

	return &a, nil
}

// Create stores a new address. A user's first address is always the
// default. Two concurrent first inserts both see no rows to lock, so the
// loser of the default index is retried once against the winner's row.
func (r *repository) Create(ctx context.Context, a *Address) error {
	wantDefault := a.IsDefault

	err := r.create(ctx, a)
	if core.IsDuplicateKeyError(err) {
		a.IsDefault = wantDefault
		err = r.create(ctx, a)
	}
	if core.IsDuplicateKeyError(err) {
		return fmt.Errorf("create address: %w", core.ErrConflict)
	}
	return err
}

func (r *repository) create(ctx context.Context, a *Address) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		ids, err := lockUserAddresses(ctx, tx, a.UserID)
		if err != nil {
			return err
		}

		if len(ids) == 0 {
			a.IsDefault = true
		}
		if a.IsDefault && len(ids) > 0 {
			if err := clearDefault(ctx, tx, a.UserID); err != nil {
				return err
			}
		}

		query := `
			INSERT INTO addresses (id, user_id, address_line_1, address_line_2,
			                       city, state, postal_code, country, is_default)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at, updated_at`

		err = tx.QueryRowxContext(ctx, query,
			a.ID,
			a.UserID,
			a.AddressLine1,
			a.AddressLine2,
			a.City,
			a.State,
			a.PostalCode,
			a.Country,
			a.IsDefault,
		).Scan(&a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert address: %w", err)
		}

		return nil
	})
}

// Update rewrites the address fields. Setting is_default moves the default
// here; clearing it on the current default is ignored so the user keeps one.
func (r *repository) Update(ctx context.Context, a *Address) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		ids, err := lockUserAddresses(ctx, tx, a.UserID)
		if err != nil {
			return err
		}
		if !slices.Contains(ids, a.ID) {
			return fmt.Errorf("update address: %w", core.ErrNotFound)
		}

		if a.IsDefault {
			if err := clearDefault(ctx, tx, a.UserID); err != nil {
				return err
			}
		}

		query := `
			UPDATE addresses
			SET address_line_1 = $3, address_line_2 = $4, city = $5, state = $6,
			    postal_code = $7, country = $8,
			    is_default = is_default OR $9,
			    updated_at = NOW()
			WHERE id = $1 AND user_id = $2
			RETURNING is_default, created_at, updated_at`

		err = tx.QueryRowxContext(ctx, query,
			a.ID,
			a.UserID,
			a.AddressLine1,
			a.AddressLine2,
			a.City,
			a.State,
			a.PostalCode,
			a.Country,
			a.IsDefault,
		).Scan(&a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update address: %w", err)
		}

		return nil
	})
}

// Delete removes an address. When it was the default, the most recently
// created remaining address takes over.
func (r *repository) Delete(ctx context.Context, id, userID string) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var wasDefault bool
		err := tx.QueryRowxContext(ctx, `
			DELETE FROM addresses
			WHERE id = $1 AND user_id = $2
			RETURNING is_default`,
			id, userID,
		).Scan(&wasDefault)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("delete address: %w", core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("delete address: %w", err)
		}

		if !wasDefault {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE addresses
			SET is_default = TRUE, updated_at = NOW()
			WHERE id = (
				SELECT id FROM addresses
				WHERE user_id = $1
				ORDER BY created_at DESC
				LIMIT 1
			)`,
			userID,
		)
		if err != nil {
			return fmt.Errorf("promote default address: %w", err)
		}

		return nil
	})
}

// SetDefault makes id the user's only default address. The user's rows are
// locked for the duration so concurrent switches serialise.
func (r *repository) SetDefault(ctx context.Context, id, userID string) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		ids, err := lockUserAddresses(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !slices.Contains(ids, id) {
			return fmt.Errorf("set default address: %w", core.ErrNotFound)
		}

		if err := clearDefault(ctx, tx, userID); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE addresses
			SET is_default = TRUE, updated_at = NOW()
			WHERE id = $1 AND user_id = $2`,
			id, userID,
		)
		if err != nil {
			return fmt.Errorf("set default address: %w", err)
		}

		return nil
	})
}

func lockUserAddresses(
	ctx context.Context,
	tx *sqlx.Tx,
	userID string,
) ([]string, error) {
	var ids []string
	err := tx.SelectContext(ctx, &ids, `
		SELECT id FROM addresses
		WHERE user_id = $1
		FOR UPDATE`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("lock addresses: %w", err)
	}
	return ids, nil
}

func clearDefault(ctx context.Context, tx *sqlx.Tx, userID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE addresses
		SET is_default = FALSE, updated_at = NOW()
		WHERE user_id = $1 AND is_default`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("clear default address: %w", err)
	}
	return nil
}
